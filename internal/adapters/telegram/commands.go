package telegram

import (
	"context"

	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/metrics"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/telegram"
	"dbdwatch/pkg/templates"
)

// Command names
const (
	CommandHelp    = "help"
	CommandRegions = "wilayah"
	CommandRisk    = "risiko"
)

// Assessor predicts a region's risk
type Assessor interface {
	Assess(ctx context.Context, region, modelName string) (*prediction.Assessment, error)
}

// RegionLister lists the dataset's regions
type RegionLister interface {
	Regions(ctx context.Context) ([]string, error)
}

// Commands implements the bot's commands
type Commands struct {
	assessor  Assessor
	regions   RegionLister
	templates *templates.Registry
	title     string
}

func NewCommands(assessor Assessor, regions RegionLister, tmpl *templates.Registry, title string) *Commands {
	return &Commands{assessor: assessor, regions: regions, templates: tmpl, title: title}
}

// Register adds every command to the registry and counts executions
func (c *Commands) Register(reg *telegram.CommandRegistry) error {
	reg.Use(countCommands)

	configs := []telegram.CommandConfig{
		{Name: CommandHelp, Aliases: []string{"start"}, Description: "bantuan", Handler: c.help},
		{Name: CommandRegions, Description: "daftar kabupaten/kota", Handler: c.listRegions},
		{Name: CommandRisk, Description: "prediksi risiko DBD", Usage: "/risiko <wilayah>", Handler: c.risk},
	}
	for _, cfg := range configs {
		if err := reg.Register(cfg); err != nil {
			return err
		}
	}
	return nil
}

func countCommands(next telegram.CommandHandler) telegram.CommandHandler {
	return func(ctx *telegram.CommandContext) error {
		err := next(ctx)
		metrics.RecordTelegramCommand(ctx.Command, err)
		return err
	}
}

func (c *Commands) help(ctx *telegram.CommandContext) error {
	text, err := c.templates.Render("telegram/help", map[string]any{"Title": c.title})
	if err != nil {
		return err
	}
	return ctx.Reply(text)
}

func (c *Commands) listRegions(ctx *telegram.CommandContext) error {
	regions, err := c.regions.Regions(ctx.Ctx)
	if err != nil {
		return err
	}

	text, err := c.templates.Render("telegram/regions", map[string]any{"Regions": regions})
	if err != nil {
		return err
	}
	return ctx.Reply(text)
}

func (c *Commands) risk(ctx *telegram.CommandContext) error {
	if ctx.Args == "" {
		return telegram.UserError{Message: "Gunakan: /risiko `nama wilayah`"}
	}

	a, err := c.assessor.Assess(ctx.Ctx, ctx.Args, "")
	if errors.Is(err, errors.ErrNotFound) {
		text, rerr := c.templates.Render("telegram/not_found", map[string]any{"Query": ctx.Args})
		if rerr != nil {
			return rerr
		}
		return ctx.Reply(text)
	}
	if errors.Is(err, errors.ErrMissingColumn) {
		return telegram.UserError{Message: "Data wilayah ini belum lengkap untuk prediksi\\."}
	}
	if err != nil {
		return err
	}

	text, err := c.templates.Render("telegram/assessment", map[string]any{
		"Region":          a.Prediction.Region,
		"Year":            a.Prediction.Year,
		"Model":           a.Prediction.Model,
		"IR":              a.Prediction.IR,
		"TierLabel":       a.Prediction.Tier.Label(),
		"Recommendations": a.Recommendations,
	})
	if err != nil {
		return err
	}
	return ctx.Reply(text)
}
