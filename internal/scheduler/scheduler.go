// Package scheduler runs the inactivity reminder scan on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mimirswell/mimirswell-server/internal/domain"
)

// DefaultSchedule runs the scan every morning at nine.
const DefaultSchedule = "0 9 * * *"

// DefaultTimeout bounds a single scheduled scan.
const DefaultTimeout = 10 * time.Minute

// Scanner performs one inactivity scan.
type Scanner interface {
	Scan(ctx context.Context) (*domain.ScanResult, error)
}

// Options configures a Scheduler.
type Options struct {
	Schedule string
	Location *time.Location
	Timeout  time.Duration
}

// Scheduler manages the scheduled scan. Overlapping runs are skipped.
type Scheduler struct {
	cron    *gocron.Scheduler
	job     *gocron.Job
	scanner Scanner
	timeout time.Duration
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
}

// New creates a scheduler and registers the scan job. It does not start it.
func New(scanner Scanner, opts Options, logger *slog.Logger) (*Scheduler, error) {
	if opts.Schedule == "" {
		opts.Schedule = DefaultSchedule
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    gocron.NewScheduler(opts.Location),
		scanner: scanner,
		timeout: opts.Timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	s.cron.SingletonModeAll()

	job, err := s.cron.Cron(opts.Schedule).Do(s.runScheduled)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule inactivity scan %q: %w", opts.Schedule, err)
	}
	s.job = job
	return s, nil
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.StartAsync()
	s.running = true
	s.logger.Info("inactivity scan scheduled", "next_run", s.job.NextRun())
}

// Stop halts the scheduler and cancels an in-flight scan.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	if s.running {
		s.cron.Stop()
		s.running = false
	}
}

// Shutdown implements do.Shutdownable.
func (s *Scheduler) Shutdown() error {
	s.Stop()
	return nil
}

// NextRun returns when the scan will next run. Zero until started.
func (s *Scheduler) NextRun() time.Time {
	return s.job.NextRun()
}

// RunNow performs a scan immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) (*domain.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.scanner.Scan(ctx)
}

func (s *Scheduler) runScheduled() {
	start := time.Now()
	result, err := s.RunNow(s.ctx)
	if err != nil {
		s.logger.Error("scheduled inactivity scan failed", "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("scheduled inactivity scan finished",
		"processed", result.Processed,
		"reminders_sent", result.RemindersSent,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"duration", time.Since(start),
	)
}
