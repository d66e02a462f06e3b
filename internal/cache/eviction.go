package cache

import (
	"context"
	"math"
	"sort"

	"dashboard-cache/internal/common/logging"
)

// CleanupResult counts the entries removed by a cleanup pass.
type CleanupResult struct {
	Expired int `json:"expired"`
	Corrupt int `json:"corrupt"`
	Evicted int `json:"evicted"`
}

// Total is the number of entries removed.
func (r CleanupResult) Total() int {
	return r.Expired + r.Corrupt + r.Evicted
}

type candidate struct {
	key       string
	size      int64
	timestamp int64
}

// Cleanup removes expired and unreadable entries under prefix. When targetSize is
// positive and the remaining entries still exceed it, the oldest fraction of them
// is evicted, skipping anything accessed within the recent-access window.
// Critical keys are never removed.
func (c *Cache) Cleanup(ctx context.Context, prefix string, targetSize int64) CleanupResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cleanup(ctx, c.prefixOrDefault(prefix), targetSize)
}

func (c *Cache) cleanup(ctx context.Context, prefix string, targetSize int64) CleanupResult {
	var res CleanupResult

	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		c.logger.Warn("Cleanup could not list keys", logging.String("prefix", prefix), logging.Err(err))
		return res
	}

	now := c.nowMs()
	live := make([]candidate, 0, len(keys))
	for _, k := range keys {
		if c.isCritical(k, prefix) {
			continue
		}
		raw, err := c.store.Get(ctx, k)
		if err != nil {
			continue
		}
		e, err := decodeEntry(raw)
		switch {
		case err != nil:
			if c.removeKey(ctx, k) {
				res.Corrupt++
			}
		case e.expired(now):
			if c.removeKey(ctx, k) {
				res.Expired++
			}
		default:
			live = append(live, candidate{key: k, size: ByteSize(raw), timestamp: e.Timestamp})
		}
	}

	if targetSize > 0 {
		res.Evicted = c.evictOldest(ctx, live, targetSize, now)
	}

	c.stats.expired.Add(int64(res.Expired))
	c.stats.corrupt.Add(int64(res.Corrupt))
	c.stats.evicted.Add(int64(res.Evicted))
	if res.Total() > 0 {
		c.logger.Info("Cache cleanup removed entries",
			logging.String("prefix", prefix),
			logging.Int("expired", res.Expired),
			logging.Int("corrupt", res.Corrupt),
			logging.Int("evicted", res.Evicted))
	}
	return res
}

func (c *Cache) evictOldest(ctx context.Context, live []candidate, targetSize, now int64) int {
	var total int64
	for _, cand := range live {
		total += cand.size
	}
	if total <= targetSize || len(live) == 0 {
		return 0
	}

	sort.SliceStable(live, func(i, j int) bool {
		return live[i].timestamp < live[j].timestamp
	})

	toRemove := int(math.Floor(c.cfg.EvictionFraction * float64(len(live))))
	if toRemove < 1 {
		toRemove = 1
	}

	window := c.cfg.RecentAccessWindow.Milliseconds()
	evicted := 0
	for _, cand := range live {
		if evicted >= toRemove {
			break
		}
		if now-cand.timestamp < window {
			continue
		}
		if c.removeKey(ctx, cand.key) {
			evicted++
		}
	}
	return evicted
}
