// Package server provides the HTTP front end for rate limit checks.
//
// # Overview
//
// The server exposes a small API surface:
//
//   - POST /v1/check   evaluates a quota and returns the decision
//   - GET  /health     liveness probe
//   - GET  /metrics    Prometheus metrics (when enabled)
//
// Requests pass through a middleware chain of recovery, request ID
// assignment, structured request logging, rate limiting, and optional
// Idempotency-Key replay, in that order from the outside in.
//
// # Rate limit responses
//
// Rejected requests receive 429 with Retry-After and X-RateLimit-* headers
// and a structured JSON error naming the exceeded scope. Admitted requests
// carry the same X-RateLimit-* headers so clients can pace themselves.
package server
