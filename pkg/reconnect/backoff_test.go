package reconnect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

func newTestManager(cfg Config) (*Manager, *[]time.Duration) {
	m := NewManager(cfg, logger.Nop())
	var slept []time.Duration
	m.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return m, &slept
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(Config{}, logger.Nop())

	assert.Equal(t, 500*time.Millisecond, m.cfg.MinBackoff)
	assert.Equal(t, 10*time.Second, m.cfg.MaxBackoff)
	assert.Equal(t, 2.0, m.cfg.BackoffMultiplier)
	assert.Equal(t, 5, m.cfg.MaxAttempts)
}

func TestManager_Backoff(t *testing.T) {
	m := NewManager(Config{MinBackoff: time.Second, MaxBackoff: 5 * time.Second, BackoffMultiplier: 2}, logger.Nop())

	assert.Equal(t, time.Second, m.Backoff(1))
	assert.Equal(t, 2*time.Second, m.Backoff(2))
	assert.Equal(t, 4*time.Second, m.Backoff(3))
	assert.Equal(t, 5*time.Second, m.Backoff(4), "capped")
	assert.Equal(t, 5*time.Second, m.Backoff(10))
}

func TestManager_ConnectSucceedsAfterRetries(t *testing.T) {
	m, slept := newTestManager(Config{MinBackoff: time.Second, MaxAttempts: 5})

	calls := 0
	err := m.Connect(context.Background(), "postgres", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.ErrUnavailable
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *slept)
}

func TestManager_ConnectGivesUp(t *testing.T) {
	m, slept := newTestManager(Config{MaxAttempts: 3})

	calls := 0
	err := m.Connect(context.Background(), "redis", func(ctx context.Context) error {
		calls++
		return errors.ErrUnavailable
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, 3, calls)
	assert.Len(t, *slept, 2)
}

func TestManager_ConnectStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(Config{MaxAttempts: 5})

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := m.Connect(ctx, "clickhouse", func(ctx context.Context) error {
		calls++
		cancel()
		return errors.ErrUnavailable
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
