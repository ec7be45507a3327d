package testsupport

import (
	"context"
	"testing"

	"dbdwatch/internal/adapters/clickhouse"
)

// NewClickHouseClient connects and migrates, closing the client on cleanup
func NewClickHouseClient(t *testing.T) *clickhouse.Client {
	t.Helper()
	ctx := context.Background()

	client, err := clickhouse.NewClient(ctx, ClickHouseConfig(t))
	if err != nil {
		t.Fatalf("failed to connect to clickhouse: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return client
}
