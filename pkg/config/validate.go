package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateIdempotency(&cfg.Idempotency)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{"server.shutdown_timeout", "must be positive"})
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{"server.tls.cert_file", "required when TLS is enabled"})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{"server.tls.key_file", "required when TLS is enabled"})
		}
	}

	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory", "redis", "sqlite":
	default:
		errs = append(errs, FieldError{"store.backend",
			fmt.Sprintf("unsupported backend %q (expected memory, redis, or sqlite)", cfg.Backend)})
	}

	if cfg.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.SweepSchedule); err != nil {
			errs = append(errs, FieldError{"store.sweep_schedule",
				fmt.Sprintf("invalid cron expression %q: %v", cfg.SweepSchedule, err)})
		}
	}

	switch cfg.Backend {
	case "memory":
		if cfg.Memory.MaxEntries <= 0 {
			errs = append(errs, FieldError{"store.memory.max_entries", "must be positive"})
		}
	case "redis":
		if cfg.Redis.URL != "" {
			u, err := url.Parse(cfg.Redis.URL)
			if err != nil {
				errs = append(errs, FieldError{"store.redis.url", fmt.Sprintf("invalid URL: %v", err)})
			} else if u.Scheme != "redis" && u.Scheme != "rediss" {
				errs = append(errs, FieldError{"store.redis.url",
					fmt.Sprintf("unsupported scheme %q (expected redis or rediss)", u.Scheme)})
			}
		} else {
			if cfg.Redis.Host == "" {
				errs = append(errs, FieldError{"store.redis.host", "must not be empty"})
			}
			if cfg.Redis.Port <= 0 || cfg.Redis.Port > 65535 {
				errs = append(errs, FieldError{"store.redis.port", "must be between 1 and 65535"})
			}
			if cfg.Redis.DB < 0 {
				errs = append(errs, FieldError{"store.redis.db", "must not be negative"})
			}
		}
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{"store.sqlite.path", "must not be empty"})
		}
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	switch cfg.FailurePolicy {
	case "fail_open", "fail_closed":
	default:
		errs = append(errs, FieldError{"rate_limit.failure_policy",
			fmt.Sprintf("unsupported policy %q (expected fail_open or fail_closed)", cfg.FailurePolicy)})
	}

	if cfg.DefaultRule != nil {
		errs = append(errs, validateRule("rate_limit.default_rule", cfg.DefaultRule)...)
	}

	for scope, rule := range cfg.Rules {
		if strings.TrimSpace(scope) == "" {
			errs = append(errs, FieldError{"rate_limit.rules", "scope name must not be empty"})
			continue
		}
		errs = append(errs, validateRule(fmt.Sprintf("rate_limit.rules.%s", scope), &rule)...)
	}

	return errs
}

func validateRule(field string, rule *RuleConfig) []FieldError {
	var errs []FieldError

	if rule.Limit <= 0 {
		errs = append(errs, FieldError{field + ".limit", "must be positive"})
	}
	if rule.Window <= 0 {
		errs = append(errs, FieldError{field + ".window", "must be positive"})
	}
	switch rule.Action {
	case "reject", "log":
	default:
		errs = append(errs, FieldError{field + ".action",
			fmt.Sprintf("unsupported action %q (expected reject or log)", rule.Action)})
	}

	return errs
}

func validateIdempotency(cfg *IdempotencyConfig) []FieldError {
	var errs []FieldError

	if cfg.TTL <= 0 {
		errs = append(errs, FieldError{"idempotency.ttl", "must be positive"})
	}
	if cfg.KeyPrefix == "" {
		errs = append(errs, FieldError{"idempotency.key_prefix", "must not be empty"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level",
			fmt.Sprintf("unsupported level %q (expected debug, info, warn, or error)", cfg.Logging.Level)})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format",
			fmt.Sprintf("unsupported format %q (expected json or text)", cfg.Logging.Format)})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}

	return errs
}
