// Package telemetry groups Floodgate's observability concerns.
//
// # Components
//
//   - logging: structured slog logger construction from configuration
//
// Prometheus metrics live next to the code they instrument (see
// ratelimit.Metrics); the server exposes them on the configured
// metrics endpoint.
package telemetry
