// Package cache is a size-bounded, TTL-based cache over a persistent string store.
//
// Entries are JSON envelopes holding the caller's value, the time it was last
// written or read, and a fixed expiry. The cache is best-effort: it never returns
// an error to its caller and may drop entries when the store is under pressure.
//
// Features:
//   - Per-entry TTL with lazy expiry on read and an explicit expiry sweep
//   - A per-entry size limit and an aggregate budget per key prefix
//   - Partial eviction of the oldest entries instead of a full flush
//   - Critical keys that survive eviction and Clear
//   - Stale reads and a stale-while-revalidate wrapper (Prefetch)
//   - Upsert/remove helpers for list-shaped values
//
// Usage:
//
//	c := cache.New(memory.New(memory.Config{}), cache.DefaultConfig())
//	c.Set(ctx, "projects", projects, cache.Options{TTL: time.Minute})
//	projects, ok := cache.Get[[]Project](ctx, c, "projects", cache.Options{}, false)
//
//	// Serve whatever is cached and refresh it in the background.
//	projects = cache.Prefetch(ctx, c, "projects", fetchProjects, cache.Options{})
package cache
