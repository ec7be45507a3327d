package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"dbdwatch/internal/metrics"
	"dbdwatch/pkg/errors"
	"dbdwatch/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// runRecorder is implemented by workers that keep their own run statistics
type runRecorder interface {
	RecordRun(duration time.Duration, err error)
}

// cronWorker is implemented by workers that may run on a cron expression
type cronWorker interface {
	CronSpec() string
}

// Scheduler runs each registered worker in its own goroutine on its interval
type Scheduler struct {
	workers         []Worker
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	log             *logger.Logger
	started         bool
	shutdownTimeout time.Duration
}

// NewScheduler creates a new worker scheduler
func NewScheduler(log *logger.Logger) *Scheduler {
	return &Scheduler{
		workers:         make([]Worker, 0),
		log:             log.With("component", "scheduler"),
		shutdownTimeout: defaultShutdownTimeout,
	}
}

// RegisterWorker adds a worker; registrations after Start are ignored
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval())
}

// Start begins running all enabled workers. An invalid cron expression
// fails the start before any worker runs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)

	schedules := make(map[string]cron.Schedule)
	for _, worker := range workers {
		cw, ok := worker.(cronWorker)
		if !ok || cw.CronSpec() == "" || !worker.Enabled() {
			continue
		}
		sched, err := cron.ParseStandard(cw.CronSpec())
		if err != nil {
			s.mu.Unlock()
			return errors.Wrapf(errors.ErrInvalidInput, "worker %s cron %q: %v", worker.Name(), cw.CronSpec(), err)
		}
		schedules[worker.Name()] = sched
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.log.Infow("Starting worker scheduler", "workers", len(workers))

	for _, worker := range workers {
		if !worker.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", worker.Name())
			continue
		}

		s.wg.Add(1)
		if sched, ok := schedules[worker.Name()]; ok {
			go s.runCronWorker(worker, sched)
		} else {
			go s.runWorker(worker)
		}
	}

	return nil
}

// Stop cancels all workers and waits for in-flight runs to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(s.shutdownTimeout):
		s.log.Warnw("Worker shutdown timed out", "timeout", s.shutdownTimeout)
		shutdownErr = errors.Wrapf(errors.ErrInternal, "shutdown timeout after %s", s.shutdownTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	s.log.Infow("Worker started", "worker", worker.Name())

	ticker := time.NewTicker(worker.Interval())
	defer ticker.Stop()

	// Run immediately on start
	s.executeWorker(worker)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("Worker stopping due to context cancellation", "worker", worker.Name())
			return
		case <-ticker.C:
			s.executeWorker(worker)
		}
	}
}

// runCronWorker runs the worker at each activation of its cron schedule,
// without the immediate first run
func (s *Scheduler) runCronWorker(worker Worker, sched cron.Schedule) {
	defer s.wg.Done()

	for {
		next := sched.Next(time.Now())
		s.log.Infow("Worker scheduled", "worker", worker.Name(), "next_run", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.log.Infow("Worker stopping due to context cancellation", "worker", worker.Name())
			return
		case <-timer.C:
			s.executeWorker(worker)
		}
	}
}

func (s *Scheduler) executeWorker(worker Worker) {
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrInternal, "worker panicked: %s", fmt.Sprint(r))
			s.log.Errorw("Worker panicked", "worker", worker.Name(), "panic", r)
		}

		duration := time.Since(start)
		metrics.RecordWorkerExecution(worker.Name(), duration, err)
		if rec, ok := worker.(runRecorder); ok {
			rec.RecordRun(duration, err)
		}
	}()

	err = worker.Run(s.ctx)
	if err != nil {
		s.log.Errorw("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", time.Since(start),
		)
		return
	}

	s.log.Debugw("Worker execution completed",
		"worker", worker.Name(),
		"duration", time.Since(start),
	)
}

// GetWorkers returns a copy of the registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
