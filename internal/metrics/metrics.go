// Package metrics exports cache statistics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dashboard-cache/internal/cache"
)

const namespace = "dashcache"

// sizeScanTimeout bounds the store scan behind the size gauge.
const sizeScanTimeout = 5 * time.Second

type counter struct {
	desc  *prometheus.Desc
	value func(cache.Stats) int64
}

// Collector reads cache statistics on every scrape.
type Collector struct {
	cache    *cache.Cache
	counters []counter
	size     *prometheus.Desc
}

// NewCollector creates a collector for c.
func NewCollector(c *cache.Cache) *Collector {
	newCounter := func(name, help string, value func(cache.Stats) int64) counter {
		return counter{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
			value: value,
		}
	}

	return &Collector{
		cache: c,
		counters: []counter{
			newCounter("hits_total", "Fresh cache reads.", func(s cache.Stats) int64 { return s.Hits }),
			newCounter("stale_hits_total", "Expired entries served to stale reads.", func(s cache.Stats) int64 { return s.StaleHits }),
			newCounter("misses_total", "Cache reads that found nothing usable.", func(s cache.Stats) int64 { return s.Misses }),
			newCounter("writes_total", "Entries persisted to the store.", func(s cache.Stats) int64 { return s.Writes }),
			newCounter("rejected_total", "Writes refused before reaching the store.", func(s cache.Stats) int64 { return s.Rejected }),
			newCounter("dropped_total", "Writes the store refused.", func(s cache.Stats) int64 { return s.Dropped }),
			newCounter("expired_total", "Expired entries removed.", func(s cache.Stats) int64 { return s.Expired }),
			newCounter("corrupt_total", "Unreadable entries removed.", func(s cache.Stats) int64 { return s.Corrupt }),
			newCounter("evicted_total", "Live entries evicted to free space.", func(s cache.Stats) int64 { return s.Evicted }),
			newCounter("refreshes_total", "Background refreshes started.", func(s cache.Stats) int64 { return s.Refreshes }),
			newCounter("refresh_failures_total", "Background refreshes that failed.", func(s cache.Stats) int64 { return s.RefreshFailures }),
			newCounter("fetch_failures_total", "Foreground fetches that failed with nothing cached.", func(s cache.Stats) int64 { return s.FetchFailures }),
		},
		size: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "size_bytes"),
			"Bytes stored under the cache prefix.",
			nil, prometheus.Labels{"prefix": c.Config().Prefix},
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.counters {
		ch <- m.desc
	}
	ch <- c.size
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.cache.Stats()
	for _, m := range c.counters {
		ch <- prometheus.MustNewConstMetric(m.desc, prometheus.CounterValue, float64(m.value(stats)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), sizeScanTimeout)
	defer cancel()
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(c.cache.TotalSize(ctx, "")))
}

// NewRegistry returns a registry holding the cache collector and the Go runtime collectors.
func NewRegistry(c *cache.Cache) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		NewCollector(c),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
