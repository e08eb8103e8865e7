// Package cache provides the TTL key/value stores that sit in front of the Spotify API
// and the daylist fallback chain.
//
// # Stores
//
// [Store] is deliberately small: Get, Set with a TTL, Delete, Clear. Values are opaque
// bytes (raw JSON response bodies, UTF-8 phrases, base64 images). Three backends exist:
//   - [MemoryStore]: process-local map guarded by a RWMutex, the default
//   - [SQLiteStore]: a cache_entries table, so a CLI run and the server can share entries
//   - [RedisStore]: native key expiry, for deployments that already run redis
//
// A read never returns an entry whose expiry is at or before the current time.
//
// # Policy
//
// [Policy] maps API endpoint prefixes to TTLs. Rules are evaluated in order and the first
// matching prefix wins, so more specific prefixes must come first. A zero TTL bypasses
// the cache entirely.
//
// # Loader
//
// [Loader] wraps a Store with single-flight deduplication: concurrent misses for the same
// key share one upstream call. Store failures are logged and treated as misses.
package cache
