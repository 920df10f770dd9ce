package store

import (
	"context"
	"testing"
	"time"
)

func TestSweeper_StartStop(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	sweeper := NewSweeper(backend, "*/5 * * * *", nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sweeper.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	next := sweeper.NextRun()
	if next == nil {
		t.Fatal("Expected a scheduled next run")
	}
	if !next.After(time.Now()) {
		t.Errorf("Expected next run in the future, got %v", next)
	}

	sweeper.Stop()
}

func TestSweeper_EmptySchedule(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	sweeper := NewSweeper(backend, "", nil)

	if err := sweeper.Start(context.Background()); err != nil {
		t.Fatalf("Start with empty schedule should be a no-op, got %v", err)
	}
	if sweeper.NextRun() != nil {
		t.Error("Expected no scheduled run for empty schedule")
	}
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	sweeper := NewSweeper(backend, "not a cron expression", nil)

	if err := sweeper.Start(context.Background()); err == nil {
		t.Error("Expected error for invalid cron schedule")
		sweeper.Stop()
	}
}

func TestSweeper_RunSweep(t *testing.T) {
	backend := NewMemoryBackend()
	defer backend.Close()

	ctx := context.Background()

	// A negative TTL stores an already-expired entry.
	backend.Set(ctx, "expired", []byte("a"), -time.Second)
	backend.Set(ctx, "fresh", []byte("b"), time.Hour)

	sweeper := NewSweeper(backend, "*/5 * * * *", nil)
	sweeper.runSweep(ctx)

	if backend.Size() != 1 {
		t.Errorf("Expected 1 entry after sweep, got %d", backend.Size())
	}
}
