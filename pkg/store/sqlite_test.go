package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()

	backend, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestSQLiteBackend_Increment(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := backend.Increment(ctx, "counter", time.Minute)
		if err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		if got != want {
			t.Errorf("Expected count %d, got %d", want, got)
		}
	}
}

func TestSQLiteBackend_IncrementResetsAfterExpiry(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return current }

	backend.Increment(ctx, "counter", time.Second)
	if count, _ := backend.Increment(ctx, "counter", time.Second); count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}

	current = current.Add(2 * time.Second)
	count, err := backend.Increment(ctx, "counter", time.Second)
	if err != nil {
		t.Fatalf("Increment after expiry failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected counter to reset to 1 after expiry, got %d", count)
	}
}

func TestSQLiteBackend_IncrementSeparateKeys(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	backend.Increment(ctx, "a", time.Minute)
	backend.Increment(ctx, "a", time.Minute)

	count, err := backend.Increment(ctx, "b", time.Minute)
	if err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected independent counter to start at 1, got %d", count)
	}
}

func TestSQLiteBackend_GetSet(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	if err := backend.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, found, err := backend.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found {
		t.Fatal("Expected key to be found")
	}
	if string(data) != "value" {
		t.Errorf("Expected value %q, got %q", "value", data)
	}

	// Overwrite
	if err := backend.Set(ctx, "key", []byte("updated"), time.Minute); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	data, _, _ = backend.Get(ctx, "key")
	if string(data) != "updated" {
		t.Errorf("Expected value %q, got %q", "updated", data)
	}

	_, found, err = backend.Get(ctx, "missing")
	if err != nil {
		t.Fatalf("Get of missing key failed: %v", err)
	}
	if found {
		t.Error("Expected missing key to not be found")
	}
}

func TestSQLiteBackend_GetExpired(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return current }

	if err := backend.Set(ctx, "key", []byte("value"), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	current = current.Add(2 * time.Second)

	_, found, err := backend.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found {
		t.Error("Expected expired key to not be found")
	}
}

func TestSQLiteBackend_Delete(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	backend.Set(ctx, "key", []byte("value"), time.Minute)
	if err := backend.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, found, _ := backend.Get(ctx, "key")
	if found {
		t.Error("Expected deleted key to not be found")
	}
}

func TestSQLiteBackend_Sweep(t *testing.T) {
	backend := newTestSQLiteBackend(t)
	ctx := context.Background()

	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return current }

	backend.Set(ctx, "short", []byte("a"), time.Second)
	backend.Set(ctx, "long", []byte("b"), time.Hour)

	deleted, err := backend.Sweep(ctx, current.Add(time.Minute))
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 entry swept, got %d", deleted)
	}

	_, found, _ := backend.Get(ctx, "long")
	if !found {
		t.Error("Expected unexpired entry to survive sweep")
	}
}

func TestSQLiteBackend_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	backend, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("Failed to create SQLite backend: %v", err)
	}
	backend.Increment(ctx, "counter", time.Hour)
	backend.Increment(ctx, "counter", time.Hour)
	backend.Close()

	// Reopen and continue counting
	reopened, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite backend: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Increment(ctx, "counter", time.Hour)
	if err != nil {
		t.Fatalf("Increment after reopen failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected counter to persist across restarts, got %d", count)
	}
}

func TestSQLiteBackend_EmptyPath(t *testing.T) {
	_, err := NewSQLiteBackend("")
	if err == nil {
		t.Error("Expected error for empty database path")
	}
}

func BenchmarkSQLiteBackend_Increment(b *testing.B) {
	backend, err := NewSQLiteBackend(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatalf("Failed to create SQLite backend: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backend.Increment(ctx, "bench", time.Minute)
	}
}
