package store

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend using Redis. Counters and cached payloads
// are shared across all instances pointing at the same server, making this
// the backend of choice for multi-instance deployments.
//
// Expiry is handled natively by Redis; the backend is not Sweepable.
type RedisBackend struct {
	client *redis.Client
}

// incrementScript performs INCR and arms the TTL on first increment in a
// single round trip. PEXPIRE only runs when INCR created the key, so later
// increments never extend the window.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return count
`)

// RedisBackendConfig configures the Redis backend.
//
// If URL is set it takes precedence over the discrete fields.
type RedisBackendConfig struct {
	// URL is a full connection URL (redis[s]://[:password@]host:port/db).
	URL string

	// Host is the server hostname, used when URL is empty.
	Host string

	// Port is the server port, used when URL is empty.
	Port int

	// Password authenticates against the server. Optional.
	Password string

	// DB is the logical database number.
	DB int

	// SSL enables TLS when connecting via discrete fields.
	SSL bool

	// DialTimeout bounds the initial connectivity check.
	// Default: 5 seconds
	DialTimeout time.Duration
}

// NewRedisBackend creates a Redis backend and verifies connectivity.
func NewRedisBackend(cfg RedisBackendConfig) (*RedisBackend, error) {
	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

// redisOptions builds client options from either the URL or discrete fields.
func redisOptions(cfg RedisBackendConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opts, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return opts, nil
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("redis host is required when no URL is given")
	}

	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.SSL {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts, nil
}

// Increment atomically increments the counter at key via a Lua script.
func (r *RedisBackend) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	res, err := incrementScript.Run(ctx, r.client, []string{key}, ttl.Milliseconds()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis increment failed: %w", err)
	}

	count, ok := res.(int64)
	if !ok {
		return 0, fmt.Errorf("redis increment returned unexpected type %T", res)
	}
	return count, nil
}

// Get returns the payload stored at key.
func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}
	return val, true, nil
}

// Set stores a payload at key with the given TTL.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes the entry at key.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping checks connectivity to the server.
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
