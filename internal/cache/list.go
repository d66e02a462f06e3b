package cache

import (
	"context"
	"encoding/json"

	"dashboard-cache/internal/common/logging"
)

// Identifiable is implemented by list items that can be upserted or removed by id.
type Identifiable interface {
	CacheID() string
}

// UpsertItem replaces the item with the same id in the list cached under key, or
// prepends it. An existing list keeps its expiry; a new list gets the TTL from opts.
func UpsertItem[T Identifiable](ctx context.Context, c *Cache, key string, item T, opts Options) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowMs()
	expiresAt := now + c.ttl(opts).Milliseconds()

	var items []T
	if e, state := c.lookup(ctx, key, opts, false, false); state == readFresh {
		if err := json.Unmarshal(e.Data, &items); err != nil {
			c.logger.Debug("Cached value is not a list, skipping upsert",
				logging.String("key", key), logging.Err(err))
			return false
		}
		expiresAt = e.ExpiresAt
	}

	id := item.CacheID()
	replaced := false
	for i := range items {
		if items[i].CacheID() == id {
			items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		items = append([]T{item}, items...)
	}

	return c.set(ctx, key, items, now, expiresAt, opts)
}

// RemoveItem drops every item with the given id from the list cached under key.
// It does nothing when no fresh list is cached.
func RemoveItem[T Identifiable](ctx context.Context, c *Cache, key, id string, opts Options) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, state := c.lookup(ctx, key, opts, false, false)
	if state != readFresh {
		return false
	}

	var items []T
	if err := json.Unmarshal(e.Data, &items); err != nil {
		c.logger.Debug("Cached value is not a list, skipping remove",
			logging.String("key", key), logging.Err(err))
		return false
	}

	kept := make([]T, 0, len(items))
	for _, it := range items {
		if it.CacheID() != id {
			kept = append(kept, it)
		}
	}

	return c.set(ctx, key, kept, c.nowMs(), e.ExpiresAt, opts)
}
