// Package config provides configuration loading and validation for Floodgate.
//
// # Overview
//
// Configuration is loaded from a YAML file, defaults are applied, and the
// result is validated before use. Environment variables with the FLOODGATE_
// prefix override file-based values.
//
// # Usage
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The loaded Config is passed by reference into the components that need it
// (store factory, evaluator, server). There is no package-level configuration
// state: components never reach back into this package at runtime.
//
// # Sections
//
//   - server: HTTP listen address, timeouts, TLS
//   - store: counter store backend selection (memory, redis, sqlite)
//   - rate_limit: scope rules, default rule, failure policy
//   - idempotency: result cache TTL and key prefix
//   - telemetry: logging and metrics
package config
