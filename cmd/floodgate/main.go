// Floodgate is a rate limiting and idempotency service over a pluggable
// counter store.
//
// It enforces fixed-window quotas per scope (API key, client IP, route) and
// deduplicates retried operations by idempotency key, backed by an in-memory,
// Redis, or SQLite store.
//
// Usage:
//
//	# Start server with default configuration
//	floodgate run
//
//	# Start with custom configuration file
//	floodgate run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	floodgate validate --config /path/to/config.yaml
//
//	# Evaluate a quota once against the configured store
//	floodgate check --scope api_key --identifier key-123
//
//	# Show version information
//	floodgate version
package main

func main() {
	Execute()
}
