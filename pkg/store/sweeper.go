package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper reclaims expired entries from a Sweepable backend on a schedule
// using cron syntax. Backends with native expiry (Redis) do not need one.
type Sweeper struct {
	backend  Sweepable
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a sweeper for the given backend.
//
// Common cron expressions:
//   - "*/5 * * * *"  - Every 5 minutes
//   - "0 * * * *"    - Hourly
//   - "0 3 * * *"    - Daily at 3 AM
func NewSweeper(backend Sweepable, schedule string, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}

	return &Sweeper{
		backend:  backend,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "store.sweeper"),
	}
}

// Start begins scheduled sweeping. If the schedule is empty, Start is a
// no-op. The sweeper stops when the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.runSweep(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("store sweeper started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes one sweep cycle.
func (s *Sweeper) runSweep(ctx context.Context) {
	deleted, err := s.backend.Sweep(ctx, time.Now())
	if err != nil {
		s.logger.Error("scheduled sweep failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled sweep completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled sweep completed, no entries deleted")
	}
}

// Stop stops the sweeper and waits for a running sweep to complete.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done() // Wait for running jobs to finish
		s.running = false
		s.logger.Info("store sweeper stopped")
	}
}

// NextRun returns the next scheduled sweep time, or nil when not running.
func (s *Sweeper) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
