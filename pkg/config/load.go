package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any
// errors. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention FLOODGATE_SECTION_FIELD (e.g., FLOODGATE_SERVER_LISTEN_ADDRESS)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format FLOODGATE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("FLOODGATE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("FLOODGATE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("FLOODGATE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("FLOODGATE_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Store overrides
	if val := os.Getenv("FLOODGATE_STORE_BACKEND"); val != "" {
		cfg.Store.Backend = val
	}
	if val := os.Getenv("FLOODGATE_STORE_SWEEP_SCHEDULE"); val != "" {
		cfg.Store.SweepSchedule = val
	}
	if val := os.Getenv("FLOODGATE_STORE_REDIS_URL"); val != "" {
		cfg.Store.Redis.URL = val
	}
	if val := os.Getenv("FLOODGATE_STORE_REDIS_HOST"); val != "" {
		cfg.Store.Redis.Host = val
	}
	if val := os.Getenv("FLOODGATE_STORE_REDIS_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Redis.Port = i
		}
	}
	if val := os.Getenv("FLOODGATE_STORE_REDIS_PASSWORD"); val != "" {
		cfg.Store.Redis.Password = val
	}
	if val := os.Getenv("FLOODGATE_STORE_REDIS_DB"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Store.Redis.DB = i
		}
	}
	if val := os.Getenv("FLOODGATE_STORE_REDIS_SSL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Store.Redis.SSL = b
		}
	}
	if val := os.Getenv("FLOODGATE_STORE_SQLITE_PATH"); val != "" {
		cfg.Store.SQLite.Path = val
	}

	// Rate limit overrides
	if val := os.Getenv("FLOODGATE_RATE_LIMIT_FAILURE_POLICY"); val != "" {
		cfg.RateLimit.FailurePolicy = val
	}

	// Idempotency overrides
	if val := os.Getenv("FLOODGATE_IDEMPOTENCY_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Idempotency.Enabled = b
		}
	}
	if val := os.Getenv("FLOODGATE_IDEMPOTENCY_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Idempotency.TTL = d
		}
	}

	// Telemetry overrides
	if val := os.Getenv("FLOODGATE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("FLOODGATE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("FLOODGATE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}
