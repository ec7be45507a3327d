package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"dbdwatch/internal/adapters/config"
	"dbdwatch/pkg/errors"
)

// observationsSchema is the table the postgres dataset source reads from.
// Numeric columns are nullable; NULL becomes a missing value.
const observationsSchema = `
CREATE TABLE IF NOT EXISTS dengue_observations (
    id                          BIGSERIAL PRIMARY KEY,
    region                      TEXT NOT NULL,
    year                        INTEGER NOT NULL,
    curah_hujan_mm              DOUBLE PRECISION,
    timbulan_sampah_ton         DOUBLE PRECISION,
    kepadatan_penduduk_km2      DOUBLE PRECISION,
    akses_sanitasi_layak_persen DOUBLE PRECISION,
    jumlah_kasus                DOUBLE PRECISION,
    incidence_rate              DOUBLE PRECISION,
    UNIQUE (region, year)
)`

// Client wraps sqlx.DB for the observation store
type Client struct {
	db *sqlx.DB
}

// NewClient connects with pooling sized from config and verifies the connection
func NewClient(ctx context.Context, cfg config.PostgresConfig) (*Client, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to postgres")
	}

	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns((maxConns + 1) / 2)
	db.SetConnMaxLifetime(time.Hour)

	return &Client{db: db}, nil
}

// NewFromDB wraps an existing handle
func NewFromDB(db *sqlx.DB) *Client {
	return &Client{db: db}
}

// DB returns the underlying sqlx.DB instance
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Migrate creates the observation table if it does not exist
func (c *Client) Migrate(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, observationsSchema); err != nil {
		return errors.Wrap(err, "create dengue_observations")
	}
	return nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

// Health checks database connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
