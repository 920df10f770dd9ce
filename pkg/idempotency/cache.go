package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"floodgate-hq/floodgate/pkg/store"
)

const (
	// DefaultTTL is how long cached results are retained.
	DefaultTTL = 24 * time.Hour

	// DefaultKeyPrefix namespaces cache keys in the shared store.
	DefaultKeyPrefix = "idempotency"
)

// statusSucceeded is the only status ever persisted. Failed operations leave
// no record, so the next attempt re-executes.
const statusSucceeded = "succeeded"

// record is the stored envelope for one successful operation result.
type record struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// Observer receives cache hit and miss events. *ratelimit.Metrics satisfies
// it.
type Observer interface {
	ObserveIdempotencyHit()
	ObserveIdempotencyMiss()
}

// Cache deduplicates operation executions by key over a shared store.
type Cache struct {
	backend  store.Backend
	prefix   string
	ttl      time.Duration
	logger   *slog.Logger
	observer Observer
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the retention period for cached results.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the namespace prefix for cache keys.
func WithKeyPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithLogger sets the logger for degraded-store warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the hit/miss observer.
func WithObserver(obs Observer) Option {
	return func(c *Cache) {
		c.observer = obs
	}
}

// NewCache creates an idempotency cache over the given backend.
func NewCache(backend store.Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		prefix:  DefaultKeyPrefix,
		ttl:     DefaultTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "idempotency")
	return c
}

// Do executes fn under the given key, returning the cached result instead
// when a prior call with the same key succeeded. The second return value is
// true when the result came from the cache.
//
// A lookup failure degrades to a miss: availability of the operation wins
// over deduplication. A store failure after fn succeeds only loses the
// cache entry, never the result.
func (c *Cache) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (json.RawMessage, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("idempotency key must not be empty")
	}

	storeKey := c.storeKey(key)

	if rec, ok := c.lookup(ctx, storeKey); ok {
		c.logger.Debug("idempotency cache hit", "key", key, "record_id", rec.ID)
		if c.observer != nil {
			c.observer.ObserveIdempotencyHit()
		}
		return rec.Result, true, nil
	}
	if c.observer != nil {
		c.observer.ObserveIdempotencyMiss()
	}

	value, err := fn(ctx)
	if err != nil {
		// Failures are not cached so the caller can retry.
		return nil, false, err
	}

	result, err := json.Marshal(value)
	if err != nil {
		return nil, false, fmt.Errorf("failed to serialize result for key %q: %w", key, err)
	}

	c.persist(ctx, key, storeKey, result)
	return result, false, nil
}

// Forget removes the cached result for a key, forcing the next Do to
// execute.
func (c *Cache) Forget(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, c.storeKey(key))
}

// Wrap returns a function with the same signature as fn that consults the
// cache under the key chosen per invocation.
func (c *Cache) Wrap(fn func(ctx context.Context) (any, error)) func(ctx context.Context, key string) (json.RawMessage, bool, error) {
	return func(ctx context.Context, key string) (json.RawMessage, bool, error) {
		return c.Do(ctx, key, fn)
	}
}

// Call is the typed variant of Do. Cached results are unmarshalled back into
// T.
func Call[T any](ctx context.Context, c *Cache, key string, fn func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T

	raw, cached, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, false, err
	}

	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return zero, cached, fmt.Errorf("failed to decode cached result for key %q: %w", key, err)
	}
	return value, cached, nil
}

// lookup fetches and decodes a stored record. Any failure is treated as a
// cache miss.
func (c *Cache) lookup(ctx context.Context, storeKey string) (*record, bool) {
	data, found, err := c.backend.Get(ctx, storeKey)
	if err != nil {
		c.logger.Warn("idempotency lookup failed, treating as miss", "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		c.logger.Warn("corrupt idempotency record, treating as miss", "error", err)
		return nil, false
	}
	if rec.Status != statusSucceeded {
		return nil, false
	}
	return &rec, true
}

// persist stores a success record. Errors are logged, not returned: the
// operation already succeeded and its result must reach the caller.
func (c *Cache) persist(ctx context.Context, key, storeKey string, result json.RawMessage) {
	rec := record{
		ID:        uuid.NewString(),
		Status:    statusSucceeded,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		c.logger.Warn("failed to encode idempotency record", "key", key, "error", err)
		return
	}

	if err := c.backend.Set(ctx, storeKey, data, c.ttl); err != nil {
		c.logger.Warn("failed to store idempotency record", "key", key, "error", err)
	}
}

func (c *Cache) storeKey(key string) string {
	return c.prefix + ":" + key
}
