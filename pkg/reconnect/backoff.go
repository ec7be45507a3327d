package reconnect

import (
	"context"
	"time"

	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// Config configures connection retries
type Config struct {
	MinBackoff        time.Duration // Initial backoff (e.g. 500ms)
	MaxBackoff        time.Duration // Backoff cap (e.g. 10s)
	BackoffMultiplier float64       // Growth per failure (e.g. 2.0)
	MaxAttempts       int           // Attempts before giving up, including the first
}

// Manager retries a connect function with exponential backoff
type Manager struct {
	cfg   Config
	log   *logger.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a reconnect manager with sensible defaults
func NewManager(cfg Config, log *logger.Logger) *Manager {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Second
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}

	return &Manager{cfg: cfg, log: log, sleep: sleepContext}
}

// Backoff returns the wait before the given retry (1-based)
func (m *Manager) Backoff(retry int) time.Duration {
	d := m.cfg.MinBackoff
	for i := 1; i < retry; i++ {
		d = time.Duration(float64(d) * m.cfg.BackoffMultiplier)
		if d >= m.cfg.MaxBackoff {
			return m.cfg.MaxBackoff
		}
	}
	return d
}

// Connect calls fn until it succeeds, the attempts run out or ctx ends.
// The last connect error is returned wrapped with the target name.
func (m *Manager) Connect(ctx context.Context, name string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := m.Backoff(attempt - 1)
			m.log.Infow("⏳ Waiting before reconnect attempt",
				"target", name,
				"attempt", attempt,
				"backoff", backoff,
			)
			if err := m.sleep(ctx, backoff); err != nil {
				return errors.Wrapf(err, "connect %s", name)
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			if attempt > 1 {
				m.log.Infow("✅ Connected after retries", "target", name, "attempts", attempt)
			}
			return nil
		}

		m.log.Warnw("Connection attempt failed",
			"target", name,
			"attempt", attempt,
			"max_attempts", m.cfg.MaxAttempts,
			"error", lastErr,
		)
	}

	return errors.Wrapf(lastErr, "connect %s: gave up after %d attempts", name, m.cfg.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
