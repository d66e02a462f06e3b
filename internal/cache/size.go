package cache

import (
	"context"

	"dashboard-cache/internal/common/logging"
)

// ByteSize returns the UTF-8 encoded length of s, which is what store quotas count.
func ByteSize(s string) int64 {
	return int64(len(s))
}

// TotalSize sums the byte size of every stored value under prefix. It scans the
// store on every call.
func (c *Cache) TotalSize(ctx context.Context, prefix string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalSize(ctx, c.prefixOrDefault(prefix))
}

func (c *Cache) totalSize(ctx context.Context, prefix string) int64 {
	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn("Failed to list keys for size accounting",
			logging.String("prefix", prefix), logging.Err(err))
		return 0
	}

	var total int64
	for _, k := range keys {
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		total += ByteSize(raw)
	}
	return total
}
