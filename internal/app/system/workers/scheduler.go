// internal/app/system/workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/fypcollab/internal/app/system/tasks"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs tasks.Jobs on their cron schedules. A job whose previous
// run is still in progress is skipped rather than run twice.
type Scheduler struct {
	cron    *cron.Cron
	log     *zap.Logger
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a scheduler. timeout bounds each job run.
func NewScheduler(logger *zap.Logger, timeout time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		log:     logger,
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Add registers job. An empty schedule disables the job.
func (s *Scheduler) Add(job tasks.Job) error {
	if job.Schedule == "" {
		s.log.Info("background job disabled", zap.String("job", job.Name))
		return nil
	}
	id, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Schedule, err)
	}
	s.mu.Lock()
	s.entries[job.Name] = id
	s.mu.Unlock()
	s.log.Info("background job scheduled",
		zap.String("job", job.Name),
		zap.String("schedule", job.Schedule))
	return nil
}

// RunNow executes a registered or ad-hoc job immediately on the caller's goroutine.
func (s *Scheduler) RunNow(job tasks.Job) {
	s.run(job)
}

// Jobs returns the names of scheduled jobs.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for name := range s.entries {
		out = append(out, name)
	}
	return out
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.Jobs())))
}

// Stop cancels running jobs and waits for them to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out; jobs still running")
	}
}

func (s *Scheduler) run(job tasks.Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("background job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	s.log.Debug("background job finished",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(start)))
}
