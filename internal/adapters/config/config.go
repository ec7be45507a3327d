package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"dbdwatch/pkg/errors"
)

type Config struct {
	App            AppConfig
	HTTP           HTTPConfig
	Data           DataConfig
	Model          ModelConfig
	Risk           RiskConfig
	Recommendation RecommendationConfig
	Importance     ImportanceConfig
	Dashboard      DashboardConfig
	Postgres       PostgresConfig
	Redis          RedisConfig
	ClickHouse     ClickHouseConfig
	Kafka          KafkaConfig
	Telegram       TelegramConfig
	ErrorTracking  ErrorTrackingConfig
	Workers        WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"dbdwatch"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// ConnectAttempts bounds startup connection retries per data store
	ConnectAttempts int `envconfig:"CONNECT_ATTEMPTS" default:"5"`
}

type HTTPConfig struct {
	Port           int           `envconfig:"HTTP_PORT" default:"8080"`
	ReadTimeout    time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	RateLimitRPS   float64       `envconfig:"HTTP_RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst int           `envconfig:"HTTP_RATE_LIMIT_BURST" default:"40"`
}

// DataConfig selects where observations come from: "file" (csv/xlsx) or "postgres".
type DataConfig struct {
	Source string `envconfig:"DATASET_SOURCE" default:"file"`
	Path   string `envconfig:"DATASET_PATH" default:"data/df_gabungan.csv"`
}

type ModelConfig struct {
	BundlePath string `envconfig:"MODEL_BUNDLE_PATH" default:"data/model_bundle.json"`
	Backend    string `envconfig:"ML_BACKEND" default:"native"`

	// ONNX runtime settings, only read when Backend is "onnx"
	ONNXLibraryPath string `envconfig:"ONNX_LIBRARY_PATH"`
	ONNXInputName   string `envconfig:"ONNX_INPUT_NAME" default:"float_input"`
	ONNXOutputName  string `envconfig:"ONNX_OUTPUT_NAME" default:"variable"`
}

// RiskConfig holds the IR cut points (cases per 100,000 population)
type RiskConfig struct {
	MediumThreshold float64 `envconfig:"RISK_MEDIUM_THRESHOLD" default:"20"`
	HighThreshold   float64 `envconfig:"RISK_HIGH_THRESHOLD" default:"50"`
}

type RecommendationConfig struct {
	RainfallMM        float64 `envconfig:"REC_RAINFALL_MM" default:"2000"`
	DensityPerKm2     float64 `envconfig:"REC_DENSITY_PER_KM2" default:"1200"`
	SanitationPercent float64 `envconfig:"REC_SANITATION_PERCENT" default:"80"`
	WasteTon          float64 `envconfig:"REC_WASTE_TON" default:"100000"`
}

type ImportanceConfig struct {
	TopN               int   `envconfig:"IMPORTANCE_TOP_N" default:"10"`
	PermutationRepeats int   `envconfig:"IMPORTANCE_PERMUTATION_REPEATS" default:"10"`
	Seed               int64 `envconfig:"IMPORTANCE_SEED" default:"42"`
	// PreferPermutation computes permutation importance even when the bundle carries scores
	PreferPermutation bool `envconfig:"IMPORTANCE_PREFER_PERMUTATION" default:"false"`
}

type DashboardConfig struct {
	Variant string `envconfig:"DASHBOARD_VARIANT" default:"comparison"`
	Title   string `envconfig:"DASHBOARD_TITLE" default:"Sistem Otomatis Strategi Pencegahan DBD"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"dbdwatch"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"REDIS_ASSESSMENT_TTL" default:"1h"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"dbdwatch"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_RISK_TOPIC" default:"dbd.risk.assessed"`
}

// Enabled reports whether any broker is configured
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	Debug    bool   `envconfig:"TELEGRAM_DEBUG" default:"false"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type WorkerConfig struct {
	SnapshotEnabled  bool          `envconfig:"WORKER_SNAPSHOT_ENABLED" default:"false"`
	SnapshotInterval time.Duration `envconfig:"WORKER_SNAPSHOT_INTERVAL" default:"24h"`
	// SnapshotCron, when set, replaces the interval (standard 5-field cron)
	SnapshotCron string `envconfig:"WORKER_SNAPSHOT_CRON"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field invariants envconfig cannot express
func (c *Config) Validate() error {
	var errs errors.MultiError

	if c.Risk.MediumThreshold >= c.Risk.HighThreshold {
		errs.Add(errors.NewValidationError("RISK_MEDIUM_THRESHOLD",
			"must be below RISK_HIGH_THRESHOLD", c.Risk.MediumThreshold))
	}

	switch c.Data.Source {
	case "file":
		if c.Data.Path == "" {
			errs.Add(errors.NewValidationError("DATASET_PATH", "required for file source", c.Data.Path))
		}
	case "postgres":
		if c.Postgres.Host == "" {
			errs.Add(errors.NewValidationError("POSTGRES_HOST", "required for postgres source", c.Postgres.Host))
		}
	default:
		errs.Add(errors.NewValidationError("DATASET_SOURCE", "must be file or postgres", c.Data.Source))
	}

	switch c.Model.Backend {
	case "native", "onnx":
	default:
		errs.Add(errors.NewValidationError("ML_BACKEND", "must be native or onnx", c.Model.Backend))
	}

	switch c.Dashboard.Variant {
	case "basic", "analytics", "comparison":
	default:
		errs.Add(errors.NewValidationError("DASHBOARD_VARIANT",
			"must be basic, analytics or comparison", c.Dashboard.Variant))
	}

	if c.Importance.PermutationRepeats < 1 {
		errs.Add(errors.NewValidationError("IMPORTANCE_PERMUTATION_REPEATS", "must be positive", c.Importance.PermutationRepeats))
	}

	return errs.ToError()
}
