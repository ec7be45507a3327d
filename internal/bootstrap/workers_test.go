package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbdwatch/internal/adapters/config"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/workers"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

type nopAssessor struct{}

func (nopAssessor) RefreshAll(ctx context.Context, modelName string) ([]prediction.Assessment, map[string]error, error) {
	return nil, nil, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishAssessed(ctx context.Context, predictions []prediction.Prediction) error {
	return nil
}

type messageTracker struct {
	messages []string
	tags     []map[string]string
}

func (m *messageTracker) CaptureError(context.Context, error, map[string]string) error { return nil }

func (m *messageTracker) CaptureMessage(_ context.Context, message string, _ errors.Level, tags map[string]string) error {
	m.messages = append(m.messages, message)
	m.tags = append(m.tags, tags)
	return nil
}

func (m *messageTracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
}

func (m *messageTracker) Flush(context.Context) error { return nil }

func snapshotWorker(t *testing.T, s *workers.Scheduler) workers.Worker {
	t.Helper()
	for _, w := range s.GetWorkers() {
		if w.Name() == workers.SnapshotWorkerName {
			return w
		}
	}
	require.FailNow(t, "snapshot worker not registered")
	return nil
}

func TestProvideWorkers_SnapshotNeedsASink(t *testing.T) {
	cfg := &config.Config{Workers: config.WorkerConfig{SnapshotEnabled: true, SnapshotInterval: time.Hour}}

	s := provideWorkers(cfg, nopAssessor{}, nil, nil, nil, logger.Nop())
	assert.False(t, snapshotWorker(t, s).Enabled())

	s = provideWorkers(cfg, nopAssessor{}, nil, nopPublisher{}, nil, logger.Nop())
	w := snapshotWorker(t, s)
	assert.True(t, w.Enabled())
	assert.Equal(t, time.Hour, w.Interval())
}

func TestProvideWorkers_ReportsMissingSink(t *testing.T) {
	tracker := &messageTracker{}

	cfg := &config.Config{Workers: config.WorkerConfig{SnapshotEnabled: true, SnapshotInterval: time.Hour}}
	provideWorkers(cfg, nopAssessor{}, nil, nil, tracker, logger.Nop())
	require.Len(t, tracker.messages, 1)
	assert.Contains(t, tracker.messages[0], "neither ClickHouse nor Kafka")
	assert.Equal(t, workers.SnapshotWorkerName, tracker.tags[0]["worker"])

	provideWorkers(cfg, nopAssessor{}, nil, nopPublisher{}, tracker, logger.Nop())
	assert.Len(t, tracker.messages, 1)
}

func TestProvideWorkers_DisabledByDefault(t *testing.T) {
	cfg := &config.Config{Workers: config.WorkerConfig{SnapshotInterval: time.Hour}}

	s := provideWorkers(cfg, nopAssessor{}, nil, nopPublisher{}, nil, logger.Nop())
	assert.False(t, snapshotWorker(t, s).Enabled())
}

func TestProvideTelegramBot_NoToken(t *testing.T) {
	bot, handler, err := provideTelegramBot(&config.Config{}, nil, nil, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, bot)
	assert.Nil(t, handler)
}

func TestProvideWorkers_CronSpec(t *testing.T) {
	cfg := &config.Config{Workers: config.WorkerConfig{
		SnapshotEnabled:  true,
		SnapshotInterval: time.Hour,
		SnapshotCron:     "0 2 * * *",
	}}

	s := provideWorkers(cfg, nopAssessor{}, nil, nopPublisher{}, nil, logger.Nop())
	w, ok := snapshotWorker(t, s).(*workers.SnapshotWorker)
	require.True(t, ok)
	assert.Equal(t, "0 2 * * *", w.CronSpec())
}
