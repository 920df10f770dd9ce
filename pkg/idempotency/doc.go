// Package idempotency provides a result cache that makes retried operations
// safe to repeat.
//
// # Overview
//
// An operation runs under a caller-chosen key. On the first successful run
// the serialized result is stored under that key with a TTL; later runs with
// the same key return the cached result without executing the operation
// again. Failures are never cached: the error propagates and the next attempt
// executes the operation from scratch.
//
// The guarantee is at-least-once, not exactly-once. Two concurrent first
// calls may both execute; whichever finishes last overwrites the stored
// result. Serving a slightly stale result is acceptable for this cache's
// purpose of absorbing client retries.
//
// # Usage
//
//	cache := idempotency.NewCache(backend, idempotency.WithTTL(time.Hour))
//
//	result, cached, err := cache.Do(ctx, "payment-123", func(ctx context.Context) (any, error) {
//	    return chargeCard(ctx, req)
//	})
//
// Call provides a typed variant, and Wrap turns any operation into an
// idempotent one with the key decided per invocation.
package idempotency
