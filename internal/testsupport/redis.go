package testsupport

import (
	"context"
	"testing"

	"dbdwatch/internal/adapters/redis"
)

// NewRedisClient connects to the integration Redis and flushes its DB before and after the test
func NewRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	client, err := redis.NewClient(ctx, RedisConfig(t))
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}

	if _, err := client.DeletePrefix(ctx, ""); err != nil {
		t.Fatalf("failed to clean redis before test: %v", err)
	}
	t.Cleanup(func() {
		_, _ = client.DeletePrefix(ctx, "")
		_ = client.Close()
	})
	return client
}
