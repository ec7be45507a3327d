package bootstrap

import (
	"context"
	"time"

	chclient "dbdwatch/internal/adapters/clickhouse"
	"dbdwatch/internal/adapters/config"
	errnoop "dbdwatch/internal/adapters/errors/noop"
	"dbdwatch/internal/adapters/errors/sentry"
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
	"dbdwatch/internal/metrics"
	"dbdwatch/internal/ml"
	chrepo "dbdwatch/internal/repository/clickhouse"
	filerepo "dbdwatch/internal/repository/file"
	pgrepo "dbdwatch/internal/repository/postgres"
	redisrepo "dbdwatch/internal/repository/redis"
	"dbdwatch/internal/services/catalog"
	importancesvc "dbdwatch/internal/services/importance"
	"dbdwatch/internal/services/report"
	risksvc "dbdwatch/internal/services/risk"
	statssvc "dbdwatch/internal/services/stats"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
	"dbdwatch/pkg/reconnect"
	tg "dbdwatch/pkg/telegram"
	"dbdwatch/pkg/templates"
)

const connectTimeout = 10 * time.Second

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s %s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)

	metrics.Init()
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the optional data stores, retrying with
// backoff. A store that is configured but stays unreachable aborts startup.
func (c *Container) MustInitInfrastructure() {
	rc := reconnect.NewManager(reconnect.Config{MaxAttempts: c.Config.App.ConnectAttempts}, c.Log)

	if c.Config.Postgres.Host != "" {
		c.Log.Info("Connecting to PostgreSQL...")
		err := rc.Connect(c.Context, "postgres", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, connectTimeout)
			defer cancel()

			pg, err := pgclient.NewClient(ctx, c.Config.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Migrate(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			c.PG = pg
			return nil
		})
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	}

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		err := rc.Connect(c.Context, "clickhouse", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, connectTimeout)
			defer cancel()

			ch, err := chclient.NewClient(ctx, c.Config.ClickHouse)
			if err != nil {
				return err
			}
			if err := ch.Migrate(ctx); err != nil {
				_ = ch.Close()
				return err
			}
			c.CH = ch
			return nil
		})
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		err := rc.Connect(c.Context, "redis", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, connectTimeout)
			defer cancel()

			rdb, err := redisclient.NewClient(ctx, c.Config.Redis)
			if err != nil {
				return err
			}
			c.Redis = rdb
			return nil
		})
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}
}

// ========================================
// Phase 3: Repositories
// ========================================

// MustInitRepositories picks the observation source and the optional stores
func (c *Container) MustInitRepositories() {
	c.Repos.Observations = provideObservationRepository(c.Config, c.PG, c.Log)

	if c.CH != nil {
		c.Repos.Predictions = chrepo.NewPredictionRepository(c.CH.Conn())
	}
	if c.Redis != nil {
		c.Repos.AssessmentCache = redisrepo.NewAssessmentCache(c.Redis, c.Config.Redis.TTL)
	}

	c.Log.Infow("✓ Repositories initialized",
		"dataset_source", c.Config.Data.Source,
		"history", c.Repos.Predictions != nil,
		"cache", c.Repos.AssessmentCache != nil,
	)
}

// ========================================
// Phase 4: External Adapters
// ========================================

// MustInitAdapters initializes the Kafka producer when brokers are configured
func (c *Container) MustInitAdapters() {
	if !c.Config.Kafka.Enabled() {
		c.Log.Info("Kafka brokers not configured, event publishing disabled")
		return
	}

	c.Adapters.KafkaProducer = kafka.NewProducer(kafka.ProducerConfig{
		Brokers: c.Config.Kafka.Brokers,
	})
	c.Adapters.EventPublisher = events.NewPublisher(
		c.Adapters.KafkaProducer,
		c.Config.Kafka.Topic,
		c.Config.App.Name,
		c.Log,
	)
	c.Log.Infow("✓ Kafka producer initialized", "topic", c.Config.Kafka.Topic)
}

// ========================================
// Phase 5: Domain Services
// ========================================

// MustInitServices builds the catalog and the services reading from it
func (c *Container) MustInitServices() {
	cfg := c.Config

	c.Services.Catalog = catalog.New(c.Repos.Observations, catalog.Config{
		BundlePath: cfg.Model.BundlePath,
		Backend:    cfg.Model.Backend,
		ONNX: ml.ONNXConfig{
			LibraryPath: cfg.Model.ONNXLibraryPath,
			InputName:   cfg.Model.ONNXInputName,
			OutputName:  cfg.Model.ONNXOutputName,
		},
	}, c.Log)
	metrics.RegisterArtifactCollector(metrics.NewArtifactCollector(c.Log, c.Services.Catalog))

	// Load eagerly so a broken artifact shows up at startup; the failure is
	// memoized and served as 503 rather than aborting the process.
	if _, err := c.Services.Catalog.Load(c.Context); err != nil {
		c.Log.Errorw("Artifacts unavailable, dashboard will report the load error", "error", err)
	} else if c.Repos.AssessmentCache != nil {
		if err := c.Repos.AssessmentCache.Invalidate(c.Context); err != nil {
			c.Log.Warnw("Failed to invalidate assessment cache", "error", err)
		}
	}

	var cache prediction.Cache
	if c.Repos.AssessmentCache != nil {
		cache = c.Repos.AssessmentCache
	}

	recommender := risksvc.NewRecommender(risksvc.RecommendationThresholds{
		RainfallMM:        cfg.Recommendation.RainfallMM,
		DensityPerKm2:     cfg.Recommendation.DensityPerKm2,
		SanitationPercent: cfg.Recommendation.SanitationPercent,
		WasteTon:          cfg.Recommendation.WasteTon,
	}, templates.Get())

	c.Services.Risk = risksvc.NewService(
		c.Services.Catalog,
		prediction.Thresholds{
			Medium: cfg.Risk.MediumThreshold,
			High:   cfg.Risk.HighThreshold,
		},
		recommender,
		cache,
		c.Log,
	)

	c.Services.Importance = importancesvc.NewService(c.Services.Catalog, importancesvc.Config{
		TopN:               cfg.Importance.TopN,
		PermutationRepeats: cfg.Importance.PermutationRepeats,
		Seed:               cfg.Importance.Seed,
		PreferPermutation:  cfg.Importance.PreferPermutation,
	}, c.Log)

	c.Services.Stats = statssvc.NewService(c.Services.Catalog)
	c.Services.Report = report.NewExporter(c.Services.Catalog, c.Services.Risk, c.Services.Importance, c.Log)

	c.Log.Info("✓ Services initialized")
}

// ========================================
// Phase 6: Application Layer
// ========================================

// MustInitApplication initializes the HTTP server and the Telegram bot
func (c *Container) MustInitApplication() {
	c.Application.HealthHandler = provideHealthHandler(c)

	webHandler, err := web.NewHandler(web.Config{
		Variant: web.Variant(c.Config.Dashboard.Variant),
		Title:   c.Config.Dashboard.Title,
	}, web.Deps{
		Artifacts:  c.Services.Catalog,
		Assessor:   c.Services.Risk,
		Importance: c.Services.Importance,
		Stats:      c.Services.Stats,
		History:    c.historyStore(),
		Exporter:   c.Services.Report,
		Tracker:    c.ErrorTracker,
	}, c.Log)
	if err != nil {
		c.Log.Fatalf("failed to build web handler: %v", err)
	}
	c.Application.WebHandler = webHandler

	c.Application.HTTPServer = api.NewServer(api.ServerConfig{
		Port:           c.Config.HTTP.Port,
		ReadTimeout:    c.Config.HTTP.ReadTimeout,
		WriteTimeout:   c.Config.HTTP.WriteTimeout,
		RateLimitRPS:   c.Config.HTTP.RateLimitRPS,
		RateLimitBurst: c.Config.HTTP.RateLimitBurst,
	}, c.Application.HealthHandler, webHandler, c.Log)

	bot, handler, err := provideTelegramBot(c.Config, c.Services.Risk, c.Services.Catalog, c.Log)
	if err != nil {
		c.Log.Warnw("Telegram bot disabled", "error", err)
		return
	}
	if bot != nil {
		c.Application.TelegramBot = bot
		c.Application.TelegramHandler = handler
	}
}

// ========================================
// Phase 7: Background Processing
// ========================================

// MustInitBackground registers the periodic workers
func (c *Container) MustInitBackground() {
	c.Background.WorkerScheduler = provideWorkers(
		c.Config,
		c.Services.Risk,
		c.historyStore(),
		c.eventPublisher(),
		c.ErrorTracker,
		c.Log,
	)
	c.Log.Info("✓ Background workers initialized")
}

// ========================================
// Helper Provider Functions
// ========================================

func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment, cfg.App.Version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("✓ Error tracking initialized (Sentry)")
	return tracker
}

func provideObservationRepository(cfg *config.Config, pg *pgclient.Client, log *logger.Logger) observation.Repository {
	if cfg.Data.Source == "postgres" {
		if pg == nil {
			log.Fatal("postgres dataset source selected but POSTGRES_HOST is empty")
		}
		return pgrepo.NewObservationRepository(pg.DB())
	}
	return filerepo.NewRepository(cfg.Data.Path, log)
}

// provideHealthHandler marks the artifacts critical, and Postgres too when it
// backs the dataset; the other stores only degrade the service
func provideHealthHandler(c *Container) *health.Handler {
	components := []health.Component{
		{Name: "artifacts", Checker: c.Services.Catalog, Critical: true},
	}
	if c.PG != nil {
		components = append(components, health.Component{
			Name: "postgres", Checker: c.PG, Critical: c.Config.Data.Source == "postgres",
		})
	}
	if c.Redis != nil {
		components = append(components, health.Component{Name: "redis", Checker: c.Redis})
	}
	if c.CH != nil {
		components = append(components, health.Component{Name: "clickhouse", Checker: c.CH})
	}

	return health.New(c.Log, c.Config.App.Name, c.Config.App.Version, components...)
}

// provideTelegramBot returns a nil bot when no token is configured
func provideTelegramBot(
	cfg *config.Config,
	assessor telegram.Assessor,
	regions telegram.RegionLister,
	log *logger.Logger,
) (tg.Bot, *telegram.Handler, error) {
	if cfg.Telegram.BotToken == "" {
		log.Info("Telegram bot token not configured, bot disabled")
		return nil, nil, nil
	}

	bot, err := telegram.NewBot(telegram.Config{
		Token: cfg.Telegram.BotToken,
		Debug: cfg.Telegram.Debug,
	}, log)
	if err != nil {
		return nil, nil, err
	}

	registry := tg.NewCommandRegistry(bot, log)
	commands := telegram.NewCommands(assessor, regions, templates.Get(), cfg.Dashboard.Title)
	if err := commands.Register(registry); err != nil {
		return nil, nil, errors.Wrap(err, "register telegram commands")
	}

	handler := telegram.NewHandler(bot, registry, log)
	bot.SetHandler(handler.HandleUpdate)

	log.Infow("✓ Telegram bot initialized", "commands", len(registry.Commands()))
	return bot, handler, nil
}
