package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"dbdwatch/internal/adapters/config"
	"dbdwatch/pkg/errors"
)

const predictionsSchema = `
CREATE TABLE IF NOT EXISTS dbd_predictions (
    id          UUID,
    region      String,
    year        Int32,
    model       LowCardinality(String),
    ir          Float64,
    tier        LowCardinality(String),
    created_at  DateTime64(3)
) ENGINE = MergeTree()
ORDER BY (region, created_at)`

// Client wraps a ClickHouse connection used for prediction history
type Client struct {
	conn driver.Conn
}

// NewClient opens a compressed native connection and pings it
func NewClient(ctx context.Context, cfg config.ClickHouseConfig) (*Client, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open clickhouse")
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "failed to ping clickhouse")
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Conn() driver.Conn {
	return c.conn
}

// Migrate creates the prediction history table if it does not exist
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.conn.Exec(ctx, predictionsSchema); err != nil {
		return errors.Wrap(err, "create dbd_predictions")
	}
	return nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Health checks ClickHouse connectivity
func (c *Client) Health(ctx context.Context) error {
	return c.conn.Ping(ctx)
}
