package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Store defaults
	DefaultStoreBackend      = "memory"
	DefaultSweepSchedule     = "*/5 * * * *"
	DefaultMemoryMaxEntries  = 100000
	DefaultRedisHost         = "localhost"
	DefaultRedisPort         = 6379
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultSQLitePath        = "data/floodgate.db"
	DefaultSQLiteBusyTimeout = 5 * time.Second

	// Rate limit defaults
	DefaultFailurePolicy = "fail_open"
	DefaultRuleAction    = "reject"

	// Idempotency defaults
	DefaultIdempotencyTTL       = 24 * time.Hour
	DefaultIdempotencyKeyPrefix = "idempotency"

	// Telemetry defaults
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsPath = "/metrics"
)

// ApplyDefaults fills in zero-valued fields with default values.
// It is called by LoadConfig before validation.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Store
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.SweepSchedule == "" {
		cfg.Store.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Store.Memory.MaxEntries == 0 {
		cfg.Store.Memory.MaxEntries = DefaultMemoryMaxEntries
	}
	if cfg.Store.Redis.Host == "" {
		cfg.Store.Redis.Host = DefaultRedisHost
	}
	if cfg.Store.Redis.Port == 0 {
		cfg.Store.Redis.Port = DefaultRedisPort
	}
	if cfg.Store.Redis.DialTimeout == 0 {
		cfg.Store.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Rate limit
	if cfg.RateLimit.FailurePolicy == "" {
		cfg.RateLimit.FailurePolicy = DefaultFailurePolicy
	}
	if cfg.RateLimit.DefaultRule != nil && cfg.RateLimit.DefaultRule.Action == "" {
		cfg.RateLimit.DefaultRule.Action = DefaultRuleAction
	}
	for scope, rule := range cfg.RateLimit.Rules {
		if rule.Action == "" {
			rule.Action = DefaultRuleAction
			cfg.RateLimit.Rules[scope] = rule
		}
	}

	// Idempotency
	if cfg.Idempotency.TTL == 0 {
		cfg.Idempotency.TTL = DefaultIdempotencyTTL
	}
	if cfg.Idempotency.KeyPrefix == "" {
		cfg.Idempotency.KeyPrefix = DefaultIdempotencyKeyPrefix
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
