package store

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// MemoryBackend implements Backend using in-process storage.
// This is the default backend and provides fast access with no persistence.
// All data is lost when the process exits, and counters are not shared
// across instances.
//
// MemoryBackend is thread-safe and supports concurrent access using sync.Mutex.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry

	// maxEntries is the maximum number of entries before eviction.
	maxEntries int

	closed bool

	// now is the time source, replaceable in tests.
	now func() time.Time
}

// memoryEntry holds a payload with its expiry. Counters are stored as
// decimal strings, mirroring the Redis representation.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryBackendConfig configures the memory backend.
type MemoryBackendConfig struct {
	// MaxEntries is the maximum number of entries to store. The oldest
	// entry (by expiry) is evicted when the cap is reached.
	// Default: 100,000
	MaxEntries int
}

// NewMemoryBackend creates a new in-memory backend with default settings.
func NewMemoryBackend() *MemoryBackend {
	return NewMemoryBackendWithConfig(MemoryBackendConfig{})
}

// NewMemoryBackendWithConfig creates a new in-memory backend with custom
// configuration.
func NewMemoryBackendWithConfig(cfg MemoryBackendConfig) *MemoryBackend {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100000
	}

	return &MemoryBackend{
		entries:    make(map[string]*memoryEntry),
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// Increment atomically increments the counter at key.
func (m *MemoryBackend) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	now := m.now()

	ent, ok := m.entries[key]
	if !ok || ent.expired(now) {
		if !ok && len(m.entries) >= m.maxEntries {
			m.evictSoonestLocked()
		}
		m.entries[key] = &memoryEntry{
			value:     []byte("1"),
			expiresAt: now.Add(ttl),
		}
		return 1, nil
	}

	count, err := strconv.ParseInt(string(ent.value), 10, 64)
	if err != nil {
		return 0, ErrInvalidCounter
	}

	count++
	ent.value = strconv.AppendInt(ent.value[:0], count, 10)
	return count, nil
}

// Get returns the payload stored at key, treating expired entries as absent.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, false, ErrClosed
	}

	ent, ok := m.entries[key]
	if !ok || ent.expired(m.now()) {
		return nil, false, nil
	}

	// Copy so callers cannot mutate the stored payload.
	out := make([]byte, len(ent.value))
	copy(out, ent.value)
	return out, true, nil
}

// Set stores a payload at key with the given TTL.
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if _, ok := m.entries[key]; !ok && len(m.entries) >= m.maxEntries {
		m.evictSoonestLocked()
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	m.entries[key] = &memoryEntry{
		value:     stored,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Delete removes the entry at key.
func (m *MemoryBackend) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.entries, key)
	return nil
}

// Ping reports whether the backend is usable.
func (m *MemoryBackend) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	return nil
}

// Sweep removes entries that expired before now. It implements Sweepable.
func (m *MemoryBackend) Sweep(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	deleted := 0
	for key, ent := range m.entries {
		if ent.expired(now) {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases the backend. Subsequent operations return ErrClosed.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}

// Size returns the current number of stored entries, including entries that
// have expired but not yet been swept. Useful for monitoring and testing.
func (m *MemoryBackend) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// evictSoonestLocked evicts the entry closest to expiry to make room.
// Caller must hold the lock.
func (m *MemoryBackend) evictSoonestLocked() {
	var (
		victim  string
		soonest time.Time
		found   bool
	)

	for key, ent := range m.entries {
		if !found || ent.expiresAt.Before(soonest) {
			victim = key
			soonest = ent.expiresAt
			found = true
		}
	}

	if found {
		delete(m.entries, victim)
	}
}
