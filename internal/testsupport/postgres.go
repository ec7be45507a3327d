package testsupport

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"

	"dbdwatch/internal/adapters/postgres"
)

// NewPostgresTx connects, migrates and returns a transaction that is rolled back on cleanup
func NewPostgresTx(t *testing.T) *sqlx.Tx {
	t.Helper()
	ctx := context.Background()

	client, err := postgres.NewClient(ctx, PostgresConfig(t))
	if err != nil {
		t.Fatalf("failed to create postgres client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	tx, err := client.DB().BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to start transaction: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback() })

	return tx
}
