package bootstrap

import (
	"context"
	"sync"
	"time"

	chclient "dbdwatch/internal/adapters/clickhouse"
	"dbdwatch/internal/adapters/kafka"
	pgclient "dbdwatch/internal/adapters/postgres"
	redisclient "dbdwatch/internal/adapters/redis"
	"dbdwatch/internal/api"
	"dbdwatch/internal/services/catalog"
	"dbdwatch/internal/workers"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
	tg "dbdwatch/pkg/telegram"
)

// Lifecycle manages graceful shutdown of components
type Lifecycle struct {
	shutdownTimeout time.Duration
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		shutdownTimeout: 60 * time.Second,
	}
}

// Shutdown stops components in dependency order:
// 1. No new requests accepted
// 2. Bot stops polling, workers finish their run
// 3. Goroutines drained
// 4. Producer closed after the last worker publish
// 5. Predictors released, errors and logs flushed
// 6. Database connections last
func (l *Lifecycle) Shutdown(
	wg *sync.WaitGroup,
	httpServer *api.Server,
	bot tg.Bot,
	workerScheduler *workers.Scheduler,
	artifacts *catalog.Catalog,
	kafkaProducer *kafka.Producer,
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	errorTracker errors.Tracker,
	log *logger.Logger,
) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), l.shutdownTimeout)
	defer shutdownCancel()

	log.Info("[1/8] Stopping HTTP server...")
	httpCtx, httpCancel := context.WithTimeout(shutdownCtx, 5*time.Second)
	defer httpCancel()

	if err := httpServer.Shutdown(httpCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	} else {
		log.Info("✓ HTTP server stopped")
	}

	log.Info("[2/8] Stopping Telegram bot...")
	if bot != nil {
		bot.Stop()
		log.Info("✓ Telegram bot stopped")
	}

	log.Info("[3/8] Stopping background workers...")
	if workerScheduler != nil && workerScheduler.IsRunning() {
		if err := workerScheduler.Stop(); err != nil {
			log.Errorw("Workers shutdown failed", "error", err)
		} else {
			log.Info("✓ Workers stopped")
		}
	}

	log.Info("[4/8] Waiting for goroutines...")
	l.waitForGoroutines(wg, 5*time.Second, log)

	log.Info("[5/8] Closing Kafka producer...")
	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Errorw("Kafka producer close failed", "error", err)
		} else {
			log.Info("✓ Kafka producer closed")
		}
	}

	log.Info("[6/8] Releasing model predictors...")
	if artifacts != nil {
		artifacts.Close()
	}

	log.Info("[7/8] Flushing error tracker and logs...")
	l.flushErrorTracker(shutdownCtx, errorTracker, log)
	_ = logger.Sync()

	// LAST - other components may need them during shutdown
	log.Info("[8/8] Closing database connections...")
	l.closeDatabases(pgClient, chClient, redisClient, log)

	log.Info("✅ Graceful shutdown complete")
}

// waitForGoroutines waits for all goroutines with a timeout
func (l *Lifecycle) waitForGoroutines(wg *sync.WaitGroup, timeout time.Duration, log *logger.Logger) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("✓ All goroutines finished")
	case <-time.After(timeout):
		log.Warnw("⚠ Some goroutines did not finish within timeout", "timeout", timeout)
	}
}

func (l *Lifecycle) flushErrorTracker(ctx context.Context, tracker errors.Tracker, log *logger.Logger) {
	if tracker == nil {
		return
	}

	flushCtx, flushCancel := context.WithTimeout(ctx, 3*time.Second)
	defer flushCancel()

	if err := tracker.Flush(flushCtx); err != nil {
		log.Errorw("Error tracker flush failed", "error", err)
	}
}

func (l *Lifecycle) closeDatabases(
	pgClient *pgclient.Client,
	chClient *chclient.Client,
	redisClient *redisclient.Client,
	log *logger.Logger,
) {
	var errs errors.MultiError

	if pgClient != nil {
		errs.Add(errors.Wrap(pgClient.Close(), "postgres"))
	}
	if chClient != nil {
		errs.Add(errors.Wrap(chClient.Close(), "clickhouse"))
	}
	if redisClient != nil {
		errs.Add(errors.Wrap(redisClient.Close(), "redis"))
	}

	if errs.HasErrors() {
		log.Errorw("Database close errors", "errors", errs.Errors)
	} else {
		log.Info("✓ Database connections closed")
	}
}
