package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-cache/internal/cache"
	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/store/memory"
)

func newTestCache() *cache.Cache {
	cfg := cache.DefaultConfig()
	cfg.Logger = logging.NewNopLogger()
	return cache.New(memory.New(memory.Config{}), cfg)
}

func TestCollector_Counters(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()

	require.True(t, c.Set(ctx, "a", 1, cache.Options{TTL: time.Minute}))
	c.Has(ctx, "a", cache.Options{})
	c.Has(ctx, "b", cache.Options{})

	expected := `
# HELP dashcache_hits_total Fresh cache reads.
# TYPE dashcache_hits_total counter
dashcache_hits_total 1
# HELP dashcache_misses_total Cache reads that found nothing usable.
# TYPE dashcache_misses_total counter
dashcache_misses_total 1
# HELP dashcache_writes_total Entries persisted to the store.
# TYPE dashcache_writes_total counter
dashcache_writes_total 1
`
	err := testutil.CollectAndCompare(NewCollector(c), strings.NewReader(expected),
		"dashcache_hits_total", "dashcache_misses_total", "dashcache_writes_total")
	assert.NoError(t, err)
}

func TestCollector_MetricCount(t *testing.T) {
	// Twelve counters plus the size gauge.
	assert.Equal(t, 13, testutil.CollectAndCount(NewCollector(newTestCache())))
}

func TestCollector_SizeGauge(t *testing.T) {
	ctx := context.Background()
	c := newTestCache()
	require.True(t, c.Set(ctx, "a", "value", cache.Options{}))

	size := c.TotalSize(ctx, "")
	require.Positive(t, size)

	count := testutil.CollectAndCount(NewCollector(c), "dashcache_size_bytes")
	assert.Equal(t, 1, count)
}

func TestHandler(t *testing.T) {
	reg := NewRegistry(newTestCache())

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), "dashcache_hits_total 0")
	assert.Contains(t, string(body), `dashcache_size_bytes{prefix="dashcache:"} 0`)
	assert.Contains(t, string(body), "go_goroutines")
}
