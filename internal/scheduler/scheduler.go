package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"radar/internal/dispatcher"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) dispatcher.Outcome
}

// Scheduler triggers the runner on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	entryID   cron.EntryID
	spec      string
	runner    Runner
	log       logrus.FieldLogger
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	mu        sync.RWMutex
}

// New creates a scheduler for a standard 5-field cron expression.
func New(spec string, runner Runner, log logrus.FieldLogger) *Scheduler {
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(log)),
			cron.SkipIfStillRunning(cron.PrintfLogger(log)),
		)),
		spec:   spec,
		runner: runner,
		log:    log,
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	entryID, err := s.cron.AddFunc(s.spec, s.runJob)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = entryID
	s.cron.Start()
	s.isRunning = true

	s.log.WithField("schedule", s.spec).Info("scheduler started")
	return nil
}

// Stop cancels an in-flight run and waits for it up to 30 seconds.
func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}

	s.isRunning = false
	s.cancel()
	s.cron.Remove(s.entryID)
	s.mu.Unlock()

	ctx := s.cron.Stop()

	select {
	case <-ctx.Done():
		s.log.Info("scheduler stopped gracefully")
	case <-time.After(30 * time.Second):
		s.log.Warn("scheduler stop timeout, forcing shutdown")
	}

	return nil
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled run.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	return s.cron.Entry(s.entryID).Next
}

// LastRun returns the time of the last scheduled run.
func (s *Scheduler) LastRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	return s.cron.Entry(s.entryID).Prev
}

func (s *Scheduler) runJob() {
	s.mu.RLock()
	ctx := s.ctx
	s.mu.RUnlock()

	outcome := s.runner.Run(ctx)

	s.log.WithField("status", outcome.Status).Info("scheduled run finished")
}
