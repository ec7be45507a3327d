package bootstrap

import (
	"context"

	"dbdwatch/internal/adapters/config"
	"dbdwatch/internal/domain/prediction"
	"dbdwatch/internal/workers"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

// provideWorkers registers every background worker with a new scheduler.
// Disabled workers are registered too so they show up in logs.
func provideWorkers(
	cfg *config.Config,
	assessor workers.Assessor,
	store prediction.Repository,
	publisher prediction.Publisher,
	tracker errors.Tracker,
	log *logger.Logger,
) *workers.Scheduler {
	scheduler := workers.NewScheduler(log)

	snapshotEnabled := cfg.Workers.SnapshotEnabled
	if snapshotEnabled && store == nil && publisher == nil {
		const msg = "Snapshot worker enabled but neither ClickHouse nor Kafka is configured, disabling it"
		log.Warn(msg)
		if tracker != nil {
			_ = tracker.CaptureMessage(context.Background(), msg, errors.LevelWarning,
				map[string]string{"worker": workers.SnapshotWorkerName})
		}
		snapshotEnabled = false
	}

	snapshot := workers.NewSnapshotWorker(
		assessor,
		store,
		publisher,
		cfg.Workers.SnapshotInterval,
		snapshotEnabled,
		log,
	)
	snapshot.SetCronSpec(cfg.Workers.SnapshotCron)
	scheduler.RegisterWorker(snapshot)

	return scheduler
}
