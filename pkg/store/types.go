package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend is the interface for counter store implementations.
// All methods must be safe for concurrent use.
type Backend interface {
	// Increment atomically increments the counter at key and returns the
	// count after incrementing. On the first increment of a key the entry's
	// TTL is set to ttl; subsequent increments leave the TTL untouched.
	// The increment and the TTL arming happen in a single round trip.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Get returns the payload stored at key. The second return value is
	// false if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a payload at key with the given TTL, replacing any
	// existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes the entry at key. No-op if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Ping checks the health of the backing store.
	Ping(ctx context.Context) error

	// Close releases any resources held by the backend.
	// The backend must not be used after calling Close.
	Close() error
}

// Sweepable is implemented by backends whose expired entries must be
// physically reclaimed by the Sweeper. Redis expires keys natively and does
// not implement it.
type Sweepable interface {
	// Sweep removes entries that expired before now and returns how many
	// were deleted.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// Kind identifies a counter store backend implementation.
type Kind int

const (
	// KindMemory is the in-process map backend.
	KindMemory Kind = iota

	// KindRedis is the Redis backend.
	KindRedis

	// KindSQLite is the SQLite backend.
	KindSQLite
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMemory:
		return "memory"
	case KindRedis:
		return "redis"
	case KindSQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "memory":
		return KindMemory, nil
	case "redis":
		return KindRedis, nil
	case "sqlite":
		return KindSQLite, nil
	default:
		return 0, fmt.Errorf("unsupported store backend %q (expected memory, redis, or sqlite)", s)
	}
}

// Sentinel errors returned by backends.
var (
	// ErrClosed is returned when an operation is attempted on a closed backend.
	ErrClosed = errors.New("store: backend closed")

	// ErrInvalidCounter is returned when Increment finds a non-numeric
	// payload at the key (the key is shared with a Set entry).
	ErrInvalidCounter = errors.New("store: value at key is not a counter")
)
