package telegram

import (
	"context"
	"sort"
	"strings"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

const (
	unknownCommandReply = "Perintah tidak dikenal\\. Gunakan /help untuk melihat daftar perintah\\."
	genericFailureReply = "Terjadi kesalahan\\. Silakan coba lagi\\."
)

// CommandContext contains all data for command execution
type CommandContext struct {
	Ctx     context.Context
	ChatID  int64
	UserID  int64
	Command string
	Args    string
	Bot     Bot
}

// Reply sends text to the chat the command came from
func (c *CommandContext) Reply(text string) error {
	return c.Bot.SendMessage(c.Ctx, c.ChatID, text)
}

// CommandHandler handles a command
type CommandHandler func(ctx *CommandContext) error

// CommandMiddleware wraps command handlers with additional logic
type CommandMiddleware func(next CommandHandler) CommandHandler

// CommandConfig defines a command registration
type CommandConfig struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     CommandHandler
	Hidden      bool
}

// CommandRegistry routes commands to their handlers
type CommandRegistry struct {
	commands   map[string]*CommandConfig // name or alias -> config
	middleware []CommandMiddleware
	bot        Bot
	log        *logger.Logger
}

func NewCommandRegistry(bot Bot, log *logger.Logger) *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*CommandConfig),
		bot:      bot,
		log:      log.With("component", "command_registry"),
	}
}

// Register adds a command under its name and aliases
func (cr *CommandRegistry) Register(config CommandConfig) error {
	if config.Name == "" || config.Handler == nil {
		return errors.NewValidationError("command", "name and handler are required", config.Name)
	}

	cfg := &config
	for _, name := range append([]string{config.Name}, config.Aliases...) {
		cr.commands[strings.ToLower(name)] = cfg
	}
	cr.log.Debugw("Registered command", "name", config.Name, "aliases", config.Aliases)
	return nil
}

// Use adds global middleware, applied in registration order
func (cr *CommandRegistry) Use(mw CommandMiddleware) {
	cr.middleware = append(cr.middleware, mw)
}

// Handle routes a command. Handler errors are logged and answered with a
// reply; only a failed reply is returned.
func (cr *CommandRegistry) Handle(ctx context.Context, chatID, userID int64, command, args string) error {
	command = strings.ToLower(strings.TrimSpace(command))

	config, ok := cr.commands[command]
	if !ok {
		cr.log.Debugw("Unknown command", "command", command, "chat_id", chatID)
		return cr.bot.SendMessage(ctx, chatID, unknownCommandReply)
	}

	cmdCtx := &CommandContext{
		Ctx:     ctx,
		ChatID:  chatID,
		UserID:  userID,
		Command: config.Name,
		Args:    strings.TrimSpace(args),
		Bot:     cr.bot,
	}

	handler := config.Handler
	for i := len(cr.middleware) - 1; i >= 0; i-- {
		handler = cr.middleware[i](handler)
	}

	if err := handler(cmdCtx); err != nil {
		var userErr UserError
		if errors.As(err, &userErr) {
			return cmdCtx.Reply(userErr.Message)
		}

		cr.log.Errorw("Command execution failed", "command", config.Name, "chat_id", chatID, "error", err)
		return cmdCtx.Reply(genericFailureReply)
	}
	return nil
}

// Commands returns visible commands sorted by name, one entry per command
func (cr *CommandRegistry) Commands() []*CommandConfig {
	seen := make(map[string]bool)
	var out []*CommandConfig
	for _, c := range cr.commands {
		if seen[c.Name] || c.Hidden {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HasCommand checks if command is registered
func (cr *CommandRegistry) HasCommand(command string) bool {
	_, ok := cr.commands[strings.ToLower(strings.TrimSpace(command))]
	return ok
}
