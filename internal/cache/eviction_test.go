package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/store"
	"dashboard-cache/internal/store/memory"
)

// fill writes n entries one second apart so their timestamps order k0 < k1 < ...
func fill(t *testing.T, c *Cache, mock interface{ Add(time.Duration) }, n int, ttl time.Duration) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.True(t, c.Set(context.Background(), fmt.Sprintf("k%d", i), strings.Repeat("x", 100), Options{TTL: ttl}))
		mock.Add(time.Second)
	}
}

// envelopeSize is the stored size of a 100-byte string entry.
func envelopeSize(t *testing.T) int64 {
	t.Helper()
	data, err := json.Marshal(strings.Repeat("x", 100))
	require.NoError(t, err)
	raw, err := encodeEntry(entry{
		Data:      data,
		Timestamp: testEpoch.UnixMilli(),
		ExpiresAt: testEpoch.Add(time.Hour).UnixMilli(),
	})
	require.NoError(t, err)
	return ByteSize(raw)
}

func TestCleanup_ExpirySweep(t *testing.T) {
	ctx := context.Background()
	c, mem, mock := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "short", "v", Options{TTL: time.Second}))
	require.True(t, c.Set(ctx, "long", "v", Options{TTL: time.Hour}))
	require.NoError(t, mem.Set(ctx, "dashcache:junk", "not an envelope"))
	require.NoError(t, mem.Set(ctx, "unrelated", "not ours"))
	mock.Add(time.Minute)

	res := c.Cleanup(ctx, "", 0)
	assert.Equal(t, CleanupResult{Expired: 1, Corrupt: 1}, res)
	assert.False(t, storeHas(t, mem, "dashcache:short"))
	assert.False(t, storeHas(t, mem, "dashcache:junk"))
	assert.True(t, storeHas(t, mem, "dashcache:long"))
	assert.True(t, storeHas(t, mem, "unrelated"))
}

func TestCleanup_BoundedEviction(t *testing.T) {
	tests := []struct {
		n       int
		evicted int
	}{
		{n: 1, evicted: 1},
		{n: 3, evicted: 1},
		{n: 5, evicted: 1},
		{n: 9, evicted: 1},
		{n: 10, evicted: 2},
		{n: 16, evicted: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			ctx := context.Background()
			c, mem, mock := newTestCache(t, nil)

			fill(t, c, mock, tt.n, time.Hour)
			mock.Add(5 * time.Minute)

			res := c.Cleanup(ctx, "", 1)
			assert.Equal(t, tt.evicted, res.Evicted)

			for i := 0; i < tt.n; i++ {
				key := fmt.Sprintf("dashcache:k%d", i)
				assert.Equal(t, i >= tt.evicted, storeHas(t, mem, key), key)
			}
		})
	}
}

func TestCleanup_NoEvictionUnderTarget(t *testing.T) {
	ctx := context.Background()
	c, _, mock := newTestCache(t, nil)

	fill(t, c, mock, 5, time.Hour)
	mock.Add(5 * time.Minute)

	res := c.Cleanup(ctx, "", 1<<20)
	assert.Equal(t, 0, res.Evicted)
}

func TestCleanup_SkipsRecentlyAccessed(t *testing.T) {
	ctx := context.Background()
	c, mem, mock := newTestCache(t, nil)

	fill(t, c, mock, 5, time.Hour)
	mock.Add(5 * time.Minute)

	// k0 is the oldest write but was just read.
	require.True(t, c.Has(ctx, "k0", Options{}))

	res := c.Cleanup(ctx, "", 1)
	assert.Equal(t, 1, res.Evicted)
	assert.True(t, storeHas(t, mem, "dashcache:k0"))
	assert.False(t, storeHas(t, mem, "dashcache:k1"))
}

func TestCleanup_AllRecentEvictsNothing(t *testing.T) {
	ctx := context.Background()
	c, _, mock := newTestCache(t, nil)

	fill(t, c, mock, 5, time.Hour)

	res := c.Cleanup(ctx, "", 1)
	assert.Equal(t, 0, res.Evicted)
}

func TestCleanup_PrefixScoped(t *testing.T) {
	ctx := context.Background()
	c, mem, mock := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "a", "v", Options{TTL: time.Second, KeyPrefix: "other:"}))
	require.True(t, c.Set(ctx, "b", "v", Options{TTL: time.Second}))
	mock.Add(time.Minute)

	res := c.Cleanup(ctx, "other:", 0)
	assert.Equal(t, 1, res.Expired)
	assert.False(t, storeHas(t, mem, "other:a"))
	assert.True(t, storeHas(t, mem, "dashcache:b"))
}

func TestCriticalKeys_Immunity(t *testing.T) {
	ctx := context.Background()
	c, mem, mock := newTestCache(t, func(cfg *Config) {
		cfg.CriticalKeys = []string{"session"}
	})

	require.True(t, c.Set(ctx, "session", "me", Options{TTL: time.Second}))
	require.True(t, c.Set(ctx, "user-session-42", "me", Options{TTL: time.Second}))
	mock.Add(time.Second)
	fill(t, c, mock, 5, time.Hour)
	require.True(t, c.Set(ctx, "plain", "v", Options{TTL: time.Second}))
	mock.Add(10 * time.Minute)

	// Expired critical entries survive the sweep.
	res := c.Cleanup(ctx, "", 0)
	assert.Equal(t, 1, res.Expired)
	assert.True(t, storeHas(t, mem, "dashcache:session"))
	assert.True(t, storeHas(t, mem, "dashcache:user-session-42"))

	// They are the oldest entries but eviction passes them over.
	res = c.Cleanup(ctx, "", 1)
	assert.Equal(t, 1, res.Evicted)
	assert.True(t, storeHas(t, mem, "dashcache:session"))
	assert.False(t, storeHas(t, mem, "dashcache:k0"))

	// An expired non-stale read misses without deleting them.
	assert.False(t, c.Has(ctx, "session", Options{}))
	assert.True(t, storeHas(t, mem, "dashcache:session"))
	v, ok := Get[string](ctx, c, "session", Options{}, true)
	require.True(t, ok)
	assert.Equal(t, "me", v)

	c.Clear(ctx, "")
	assert.True(t, storeHas(t, mem, "dashcache:session"))
	assert.True(t, storeHas(t, mem, "dashcache:user-session-42"))
	assert.False(t, storeHas(t, mem, "dashcache:k1"))

	// Only an explicit remove of that key deletes it.
	c.Remove(ctx, "session", Options{})
	assert.False(t, storeHas(t, mem, "dashcache:session"))
	assert.True(t, storeHas(t, mem, "dashcache:user-session-42"))
}

func TestSet_BudgetTriggersEviction(t *testing.T) {
	ctx := context.Background()
	size := envelopeSize(t)
	c, mem, mock := newTestCache(t, func(cfg *Config) {
		cfg.TotalBudget = 5*size + size/10
	})

	fill(t, c, mock, 5, time.Hour)
	mock.Add(5 * time.Minute)

	require.True(t, c.Set(ctx, "k5", strings.Repeat("x", 100), Options{TTL: time.Hour}))

	assert.False(t, storeHas(t, mem, "dashcache:k0"), "oldest entry should be evicted")
	for i := 1; i <= 5; i++ {
		assert.True(t, storeHas(t, mem, fmt.Sprintf("dashcache:k%d", i)))
	}
	assert.Equal(t, int64(1), c.Stats().Evicted)
}

func TestSet_QuotaRetrySucceedsAfterCleanup(t *testing.T) {
	ctx := context.Background()
	entrySize := int64(len("dashcache:k0")) + envelopeSize(t)
	mem := memory.New(memory.Config{QuotaBytes: 3*entrySize + entrySize/2})
	c, mock := newTestCacheWithStore(t, mem, nil)

	fill(t, c, mock, 3, time.Second)
	mock.Add(5 * time.Minute)

	assert.True(t, c.Set(ctx, "k3", strings.Repeat("x", 100), Options{TTL: time.Second}))
	assert.True(t, storeHas(t, mem, "dashcache:k3"))
	assert.False(t, storeHas(t, mem, "dashcache:k0"))

	s := c.Stats()
	assert.Equal(t, int64(3), s.Expired)
	assert.Equal(t, int64(0), s.Dropped)
}

func TestSet_QuotaRetryFailureDropsWrite(t *testing.T) {
	ctx := context.Background()
	entrySize := int64(len("dashcache:k0")) + envelopeSize(t)
	mem := memory.New(memory.Config{QuotaBytes: 3*entrySize + entrySize/2})
	c, mock := newTestCacheWithStore(t, mem, nil)

	fill(t, c, mock, 3, time.Hour)

	assert.False(t, c.Set(ctx, "k3", strings.Repeat("x", 100), Options{TTL: time.Hour}))
	assert.False(t, storeHas(t, mem, "dashcache:k3"))
	for i := 0; i < 3; i++ {
		assert.True(t, storeHas(t, mem, fmt.Sprintf("dashcache:k%d", i)))
	}
	assert.Equal(t, int64(1), c.Stats().Dropped)
}

type failingStore struct {
	*memory.Store
	setErr error
	sets   int
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

var _ store.Store = (*failingStore)(nil)

func TestSet_StoreErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New(memory.Config{}), setErr: errors.StoreError("disk on fire", nil)}
	c, _ := newTestCacheWithStore(t, fs, nil)

	assert.False(t, c.Set(ctx, "k", "v", Options{}))
	assert.Equal(t, 1, fs.sets, "non-quota errors are not retried")
	assert.Equal(t, int64(1), c.Stats().Dropped)
}

func TestGet_TouchFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: memory.New(memory.Config{})}
	c, _ := newTestCacheWithStore(t, fs, nil)

	require.True(t, c.Set(ctx, "k", "v", Options{}))
	fs.setErr = errors.StoreError("read-only", nil)

	v, ok := Get[string](ctx, c, "k", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, "v", v)
}
