package bootstrap

import (
	"context"
	"sync"

	chclient "dbdwatch/internal/adapters/clickhouse"
	"dbdwatch/internal/adapters/config"
	"dbdwatch/internal/adapters/kafka"
	pgclient "dbdwatch/internal/adapters/postgres"
	redisclient "dbdwatch/internal/adapters/redis"
	telegram "dbdwatch/internal/adapters/telegram"
	"dbdwatch/internal/api"
	"dbdwatch/internal/api/health"
	"dbdwatch/internal/api/web"
	"dbdwatch/internal/domain/observation"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/events"
	chrepo "dbdwatch/internal/repository/clickhouse"
	redisrepo "dbdwatch/internal/repository/redis"
	"dbdwatch/internal/services/catalog"
	importancesvc "dbdwatch/internal/services/importance"
	"dbdwatch/internal/services/report"
	risksvc "dbdwatch/internal/services/risk"
	statssvc "dbdwatch/internal/services/stats"
	"dbdwatch/internal/workers"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
	tg "dbdwatch/pkg/telegram"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order; optional
// integrations stay nil when disabled.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure (all optional)
	PG    *pgclient.Client
	CH    *chclient.Client
	Redis *redisclient.Client

	Repos       *Repositories
	Services    *Services
	Adapters    *Adapters
	Application *Application
	Background  *Background

	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// Repositories groups data access
type Repositories struct {
	Observations    observation.Repository
	Predictions     *chrepo.PredictionRepository // nil without ClickHouse
	AssessmentCache *redisrepo.AssessmentCache   // nil without Redis
}

// Services groups the dashboard's domain services
type Services struct {
	Catalog    *catalog.Catalog
	Risk       *risksvc.Service
	Importance *importancesvc.Service
	Stats      *statssvc.Service
	Report     *report.Exporter
}

// Adapters groups outbound integrations
type Adapters struct {
	KafkaProducer  *kafka.Producer   // nil without brokers
	EventPublisher *events.Publisher // nil without brokers
}

// Application groups the user-facing surfaces
type Application struct {
	HTTPServer      *api.Server
	HealthHandler   *health.Handler
	WebHandler      *web.Handler
	TelegramBot     tg.Bot // nil without a token
	TelegramHandler *telegram.Handler
}

// Background groups periodic jobs
type Background struct {
	WorkerScheduler *workers.Scheduler
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Repos:       &Repositories{},
		Services:    &Services{},
		Adapters:    &Adapters{},
		Application: &Application{},
		Background:  &Background{},
		Lifecycle:   NewLifecycle(),
		WG:          &sync.WaitGroup{},
		Context:     ctx,
		Cancel:      cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics or exits on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitAdapters()
	c.MustInitServices()
	c.MustInitApplication()
	c.MustInitBackground()
}

// Start launches the HTTP server, the Telegram poller and the workers
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.Application.HTTPServer.Start(); err != nil {
			c.Log.Errorw("HTTP server failed", "error", err)
			c.Cancel() // Trigger shutdown on fatal HTTP error
		}
	}()

	if bot := c.Application.TelegramBot; bot != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := bot.Start(c.Context); err != nil && c.Context.Err() == nil {
				c.Log.Errorw("Telegram bot failed", "error", err)
			}
		}()
	}

	if err := c.Background.WorkerScheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	// Cancel application context to signal pollers and workers to stop
	c.Cancel()

	c.Lifecycle.Shutdown(
		c.WG,
		c.Application.HTTPServer,
		c.Application.TelegramBot,
		c.Background.WorkerScheduler,
		c.Services.Catalog,
		c.Adapters.KafkaProducer,
		c.PG,
		c.CH,
		c.Redis,
		c.ErrorTracker,
		c.Log,
	)
}

// historyStore returns the prediction store as an interface, nil when disabled
func (c *Container) historyStore() prediction.Repository {
	if c.Repos.Predictions == nil {
		return nil
	}
	return c.Repos.Predictions
}

// eventPublisher returns the event publisher as an interface, nil when disabled
func (c *Container) eventPublisher() prediction.Publisher {
	if c.Adapters.EventPublisher == nil {
		return nil
	}
	return c.Adapters.EventPublisher
}
