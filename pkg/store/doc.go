// Package store provides the key-value counter store backing the rate
// limiter and the idempotency cache.
//
// # Overview
//
// The store package defines a small Backend interface (atomic increment with
// TTL, plus get/set/delete for opaque payloads) and three implementations:
//
//   - Memory: mutex-guarded map with per-entry expiry (default, no persistence)
//   - Redis: shared counters for multi-instance deployments (go-redis/v9)
//   - SQLite: durable single-instance storage (modernc.org/sqlite)
//
// Backend selection is a tagged enum (Kind) resolved through ParseKind and
// the New factory.
//
// # Atomicity
//
// Increment is the contract the rate limiter relies on: it must be atomic
// across concurrent callers and must arm the TTL on the first increment of a
// key, in a single round trip to the backing store. The Redis backend uses a
// Lua script for this; the SQLite backend a single UPSERT statement; the
// memory backend a mutex.
//
// # Expiry
//
// Redis expires keys natively. The memory backend treats expired entries as
// absent and the SQLite backend excludes them from reads; both rely on the
// Sweeper to physically reclaim them.
package store
