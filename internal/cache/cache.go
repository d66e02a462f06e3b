package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/store"
)

// Cache is a best-effort TTL cache over a store.Store. All operations on one
// Cache are serialized; fetch functions passed to Prefetch run outside the lock.
type Cache struct {
	store  store.Store
	cfg    Config
	clock  clock.Clock
	logger logging.Logger

	mu        sync.Mutex
	refreshes sync.WaitGroup
	stats     counters
}

// New creates a cache over s.
func New(s store.Store, cfg Config) *Cache {
	cfg = cfg.withDefaults()
	return &Cache{
		store:  s,
		cfg:    cfg,
		clock:  cfg.Clock,
		logger: cfg.Logger.WithFields(logging.String("component", "cache")),
	}
}

// Config returns the effective configuration.
func (c *Cache) Config() Config {
	return c.cfg
}

type readState int

const (
	readMiss readState = iota
	readFresh
	readStale
)

// Set stores data under key. It reports whether the value was persisted.
func (c *Cache) Set(ctx context.Context, key string, data any, opts Options) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMs()
	return c.set(ctx, key, data, now, now+c.ttl(opts).Milliseconds(), opts)
}

// GetJSON returns the raw JSON value cached under key.
func (c *Cache) GetJSON(ctx context.Context, key string, opts Options, allowStale bool) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, state := c.lookup(ctx, key, opts, allowStale, true)
	if state == readMiss {
		return nil, false
	}
	return e.Data, true
}

// Get returns the value cached under key decoded as T. Expired values are only
// returned when allowStale is set.
func Get[T any](ctx context.Context, c *Cache, key string, opts Options, allowStale bool) (T, bool) {
	var zero T
	data, ok := c.GetJSON(ctx, key, opts, allowStale)
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Debug("Cached value does not decode into requested type",
			logging.String("key", key), logging.Err(err))
		return zero, false
	}
	return v, true
}

// Has reports whether a fresh value is cached under key.
func (c *Cache) Has(ctx context.Context, key string, opts Options) bool {
	_, ok := c.GetJSON(ctx, key, opts, false)
	return ok
}

// Remove deletes key, critical or not.
func (c *Cache) Remove(ctx context.Context, key string, opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, full := c.resolve(key, opts)
	if err := c.store.Remove(ctx, full); err != nil {
		c.logger.Warn("Failed to remove cache entry", logging.String("key", full), logging.Err(err))
	}
}

// Clear removes every non-critical key under prefix and returns how many were
// removed. An empty prefix means the configured one.
func (c *Cache) Clear(ctx context.Context, prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix = c.prefixOrDefault(prefix)
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn("Failed to list keys for clear", logging.String("prefix", prefix), logging.Err(err))
		return 0
	}

	removed := 0
	for _, k := range keys {
		if c.isCritical(k, prefix) {
			continue
		}
		if c.removeKey(ctx, k) {
			removed++
		}
	}
	c.logger.Info("Cache cleared", logging.String("prefix", prefix), logging.Int("removed", removed))
	return removed
}

// Age returns how long ago key was last written or read. Expired entries still
// have an age; the entry is not touched.
func (c *Cache) Age(ctx context.Context, key string, opts Options) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, full := c.resolve(key, opts)
	raw, err := c.store.Get(ctx, full)
	if err != nil {
		return 0, false
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return 0, false
	}
	return time.Duration(c.nowMs()-e.Timestamp) * time.Millisecond, true
}

// Wait blocks until all background refreshes started by Prefetch have finished.
func (c *Cache) Wait() {
	c.refreshes.Wait()
}

func (c *Cache) set(ctx context.Context, key string, data any, now, expiresAt int64, opts Options) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		c.stats.rejected.Add(1)
		c.logger.Warn("Cache value is not serializable", logging.String("key", key), logging.Err(err))
		return false
	}
	return c.write(ctx, key, payload, now, expiresAt, opts)
}

func (c *Cache) write(ctx context.Context, key string, data json.RawMessage, now, expiresAt int64, opts Options) bool {
	prefix, full := c.resolve(key, opts)

	raw, err := encodeEntry(entry{Data: data, Timestamp: now, ExpiresAt: expiresAt})
	if err != nil {
		c.stats.rejected.Add(1)
		c.logger.Warn("Cache entry could not be encoded", logging.String("key", full), logging.Err(err))
		return false
	}

	size := ByteSize(raw)
	if limit := c.maxSize(opts); size > limit {
		c.stats.rejected.Add(1)
		c.logger.Warn("Cache entry exceeds size limit, not caching",
			logging.String("key", full),
			logging.Int64("size", size),
			logging.Int64("limit", limit))
		return false
	}

	target := c.cleanupTarget()
	if c.totalSize(ctx, prefix)+size > c.cfg.TotalBudget {
		c.cleanup(ctx, prefix, target)
	}

	err = c.store.Set(ctx, full, raw)
	if err == nil {
		c.stats.writes.Add(1)
		return true
	}
	if !store.IsQuotaExceeded(err) {
		c.stats.dropped.Add(1)
		c.logger.Warn("Cache write failed", logging.String("key", full), logging.Err(err))
		return false
	}

	c.logger.Info("Store quota exceeded, evicting and retrying", logging.String("key", full))
	c.cleanup(ctx, prefix, target)
	if err := c.store.Set(ctx, full, raw); err != nil {
		c.stats.dropped.Add(1)
		c.logger.Warn("Cache write dropped after retry", logging.String("key", full), logging.Err(err))
		return false
	}
	c.stats.writes.Add(1)
	return true
}

// lookup reads key and applies expiry. Callers hold c.mu.
func (c *Cache) lookup(ctx context.Context, key string, opts Options, allowStale, touch bool) (entry, readState) {
	prefix, full := c.resolve(key, opts)

	raw, err := c.store.Get(ctx, full)
	if err != nil {
		if !store.IsNotFound(err) {
			c.logger.Debug("Cache read failed", logging.String("key", full), logging.Err(err))
		}
		c.stats.misses.Add(1)
		return entry{}, readMiss
	}

	e, err := decodeEntry(raw)
	if err != nil {
		c.logger.Debug("Discarding unreadable cache entry", logging.String("key", full), logging.Err(err))
		if !c.isCritical(full, prefix) && c.removeKey(ctx, full) {
			c.stats.corrupt.Add(1)
		}
		c.stats.misses.Add(1)
		return entry{}, readMiss
	}

	now := c.nowMs()
	if e.expired(now) {
		if allowStale {
			c.stats.staleHits.Add(1)
			return e, readStale
		}
		if !c.isCritical(full, prefix) && c.removeKey(ctx, full) {
			c.stats.expired.Add(1)
		}
		c.stats.misses.Add(1)
		return entry{}, readMiss
	}

	if touch {
		c.touch(ctx, full, e, now)
	}
	c.stats.hits.Add(1)
	return e, readFresh
}

// touch moves the access time forward and keeps the expiry.
func (c *Cache) touch(ctx context.Context, full string, e entry, now int64) {
	e.Timestamp = now
	raw, err := encodeEntry(e)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, full, raw); err != nil {
		c.logger.Debug("Failed to refresh cache entry access time", logging.String("key", full), logging.Err(err))
	}
}

func (c *Cache) removeKey(ctx context.Context, full string) bool {
	if err := c.store.Remove(ctx, full); err != nil {
		c.logger.Debug("Failed to remove cache entry", logging.String("key", full), logging.Err(err))
		return false
	}
	return true
}

// isCritical matches both the exact prefixed name and any key containing the name.
func (c *Cache) isCritical(full, prefix string) bool {
	for _, name := range c.cfg.CriticalKeys {
		if name == "" {
			continue
		}
		if full == prefix+name || strings.Contains(full, name) {
			return true
		}
	}
	return false
}

func (c *Cache) resolve(key string, opts Options) (prefix, full string) {
	prefix = c.prefixOrDefault(opts.KeyPrefix)
	return prefix, prefix + key
}

func (c *Cache) prefixOrDefault(prefix string) string {
	if prefix == "" {
		return c.cfg.Prefix
	}
	return prefix
}

func (c *Cache) ttl(opts Options) time.Duration {
	if opts.TTL > 0 {
		return opts.TTL
	}
	return c.cfg.DefaultTTL
}

func (c *Cache) maxSize(opts Options) int64 {
	if opts.MaxSize > 0 {
		return opts.MaxSize
	}
	return c.cfg.MaxEntrySize
}

func (c *Cache) cleanupTarget() int64 {
	return int64(float64(c.cfg.TotalBudget) * cleanupTargetRatio)
}

func (c *Cache) nowMs() int64 {
	return c.clock.Now().UnixMilli()
}
