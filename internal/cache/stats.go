package cache

import "sync/atomic"

// Stats is a snapshot of cache activity since creation.
type Stats struct {
	Hits            int64 `json:"hits"`
	StaleHits       int64 `json:"stale_hits"`
	Misses          int64 `json:"misses"`
	Writes          int64 `json:"writes"`
	Rejected        int64 `json:"rejected"`
	Dropped         int64 `json:"dropped"`
	Expired         int64 `json:"expired"`
	Corrupt         int64 `json:"corrupt"`
	Evicted         int64 `json:"evicted"`
	Refreshes       int64 `json:"refreshes"`
	RefreshFailures int64 `json:"refresh_failures"`
	FetchFailures   int64 `json:"fetch_failures"`
}

type counters struct {
	hits, staleHits, misses    atomic.Int64
	writes, rejected, dropped  atomic.Int64
	expired, corrupt, evicted  atomic.Int64
	refreshes, refreshFailures atomic.Int64
	fetchFailures              atomic.Int64
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:            c.stats.hits.Load(),
		StaleHits:       c.stats.staleHits.Load(),
		Misses:          c.stats.misses.Load(),
		Writes:          c.stats.writes.Load(),
		Rejected:        c.stats.rejected.Load(),
		Dropped:         c.stats.dropped.Load(),
		Expired:         c.stats.expired.Load(),
		Corrupt:         c.stats.corrupt.Load(),
		Evicted:         c.stats.evicted.Load(),
		Refreshes:       c.stats.refreshes.Load(),
		RefreshFailures: c.stats.refreshFailures.Load(),
		FetchFailures:   c.stats.fetchFailures.Load(),
	}
}
