package config

import "time"

// Config is the root configuration for Floodgate.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts, and TLS settings.
	Server ServerConfig `yaml:"server"`

	// Store contains counter store configuration including backend
	// selection and per-backend connection settings.
	Store StoreConfig `yaml:"store"`

	// RateLimit contains rate limiting rules and the failure policy
	// applied when the counter store is unreachable.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// Idempotency contains configuration for the idempotent result cache.
	Idempotency IdempotencyConfig `yaml:"idempotency"`

	// Telemetry contains observability configuration (logging, metrics).
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds to.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum duration to keep idle connections open.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is how long to wait for in-flight requests on shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// TLS configures optional TLS termination.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains TLS settings for the HTTP server.
type TLSConfig struct {
	// Enabled turns on TLS termination.
	Enabled bool `yaml:"enabled"`

	// CertFile is the path to the PEM-encoded certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`
}

// StoreConfig selects and configures the counter store backend.
type StoreConfig struct {
	// Backend is the backend kind: "memory", "redis", or "sqlite".
	Backend string `yaml:"backend"`

	// SweepSchedule is a cron expression for sweeping expired entries from
	// backends without native expiry (memory, sqlite). Empty disables the
	// sweeper; Redis expires keys natively and ignores this setting.
	SweepSchedule string `yaml:"sweep_schedule"`

	// Memory configures the in-memory backend.
	Memory MemoryStoreConfig `yaml:"memory"`

	// Redis configures the Redis backend.
	Redis RedisStoreConfig `yaml:"redis"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteStoreConfig `yaml:"sqlite"`
}

// MemoryStoreConfig contains settings for the in-memory backend.
type MemoryStoreConfig struct {
	// MaxEntries caps the number of stored entries. The oldest entry is
	// evicted when the cap is reached.
	MaxEntries int `yaml:"max_entries"`
}

// RedisStoreConfig contains settings for the Redis backend.
//
// If URL is set it takes precedence over the discrete fields. The URL format
// is redis[s]://[:password@]host:port/db.
type RedisStoreConfig struct {
	// URL is a full Redis connection URL.
	URL string `yaml:"url"`

	// Host is the Redis server hostname.
	Host string `yaml:"host"`

	// Port is the Redis server port.
	Port int `yaml:"port"`

	// Password authenticates against the server. Optional.
	Password string `yaml:"password"`

	// DB is the logical database number.
	DB int `yaml:"db"`

	// SSL enables TLS on the connection when no URL is given.
	SSL bool `yaml:"ssl"`

	// DialTimeout bounds the initial connection attempt.
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// SQLiteStoreConfig contains settings for the SQLite backend.
type SQLiteStoreConfig struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait for locks before failing.
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RateLimitConfig contains the rate limiting rules and policies.
type RateLimitConfig struct {
	// FailurePolicy decides what happens when the counter store is
	// unreachable: "fail_open" admits all requests, "fail_closed" rejects
	// them. The check path never surfaces a store error either way.
	FailurePolicy string `yaml:"failure_policy"`

	// DefaultRule applies to scopes without an explicit rule. If nil,
	// unknown scopes are unlimited.
	DefaultRule *RuleConfig `yaml:"default_rule"`

	// Rules maps scope names to their quota.
	Rules map[string]RuleConfig `yaml:"rules"`
}

// RuleConfig is a single scope quota.
type RuleConfig struct {
	// Limit is the maximum number of admitted requests per window.
	Limit int64 `yaml:"limit"`

	// Window is the fixed window duration.
	Window time.Duration `yaml:"window"`

	// Action on violation: "reject" (default) returns an error to the
	// caller, "log" records the violation but admits the request.
	Action string `yaml:"action"`
}

// IdempotencyConfig contains settings for the idempotent result cache.
type IdempotencyConfig struct {
	// Enabled turns on the Idempotency-Key replay middleware.
	Enabled bool `yaml:"enabled"`

	// TTL is how long cached results are retained.
	TTL time.Duration `yaml:"ttl"`

	// KeyPrefix namespaces cache keys in the shared store.
	KeyPrefix string `yaml:"key_prefix"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	Path string `yaml:"path"`
}
