package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID string `json:"id"`
	V  int    `json:"v"`
}

func (w widget) CacheID() string { return w.ID }

func TestUpsertAndRemoveItem(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "widgets", []widget{{ID: "b", V: 2}}, Options{}))

	require.True(t, UpsertItem(ctx, c, "widgets", widget{ID: "a", V: 1}, Options{}))
	got, ok := Get[[]widget](ctx, c, "widgets", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, []widget{{ID: "a", V: 1}, {ID: "b", V: 2}}, got)

	require.True(t, RemoveItem[widget](ctx, c, "widgets", "b", Options{}))
	got, ok = Get[[]widget](ctx, c, "widgets", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, []widget{{ID: "a", V: 1}}, got)
}

func TestUpsertItem_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "widgets", []widget{{ID: "a", V: 1}, {ID: "b", V: 2}, {ID: "c", V: 3}}, Options{}))
	require.True(t, UpsertItem(ctx, c, "widgets", widget{ID: "b", V: 20}, Options{}))

	got, ok := Get[[]widget](ctx, c, "widgets", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, []widget{{ID: "a", V: 1}, {ID: "b", V: 20}, {ID: "c", V: 3}}, got)
}

func TestUpsertItem_PreservesExpiry(t *testing.T) {
	ctx := context.Background()
	c, mem, mock := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "widgets", []widget{{ID: "a"}}, Options{TTL: time.Minute}))
	mock.Add(30 * time.Second)

	require.True(t, UpsertItem(ctx, c, "widgets", widget{ID: "b"}, Options{TTL: time.Hour}))

	e := storedEntry(t, mem, "dashcache:widgets")
	assert.Equal(t, testEpoch.Add(30*time.Second).UnixMilli(), e.Timestamp)
	assert.Equal(t, testEpoch.Add(time.Minute).UnixMilli(), e.ExpiresAt)
}

func TestUpsertItem_CreatesListOnMiss(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestCache(t, nil)

	require.True(t, UpsertItem(ctx, c, "widgets", widget{ID: "a", V: 1}, Options{TTL: time.Hour}))

	got, ok := Get[[]widget](ctx, c, "widgets", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, []widget{{ID: "a", V: 1}}, got)
	assert.Equal(t, testEpoch.Add(time.Hour).UnixMilli(), storedEntry(t, mem, "dashcache:widgets").ExpiresAt)
}

func TestUpsertItem_ExpiredListStartsOver(t *testing.T) {
	ctx := context.Background()
	c, _, mock := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "widgets", []widget{{ID: "old"}}, Options{TTL: time.Second}))
	mock.Add(time.Minute)

	require.True(t, UpsertItem(ctx, c, "widgets", widget{ID: "new"}, Options{}))
	got, ok := Get[[]widget](ctx, c, "widgets", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, []widget{{ID: "new"}}, got)
}

func TestUpsertItem_NonListValueIsLeftAlone(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "widgets", map[string]int{"a": 1}, Options{}))
	assert.False(t, UpsertItem(ctx, c, "widgets", widget{ID: "a"}, Options{}))

	got, ok := Get[map[string]int](ctx, c, "widgets", Options{}, false)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"a": 1}, got)
}

func TestRemoveItem_NoopWithoutList(t *testing.T) {
	ctx := context.Background()
	c, mem, _ := newTestCache(t, nil)

	assert.False(t, RemoveItem[widget](ctx, c, "widgets", "a", Options{}))
	assert.False(t, storeHas(t, mem, "dashcache:widgets"))
}

func TestRemoveItem_LastItemLeavesEmptyList(t *testing.T) {
	ctx := context.Background()
	c, mem, mock := newTestCache(t, nil)

	require.True(t, c.Set(ctx, "widgets", []widget{{ID: "a"}}, Options{TTL: time.Minute}))
	mock.Add(10 * time.Second)
	require.True(t, RemoveItem[widget](ctx, c, "widgets", "a", Options{}))

	e := storedEntry(t, mem, "dashcache:widgets")
	assert.JSONEq(t, "[]", string(e.Data))
	assert.Equal(t, testEpoch.Add(time.Minute).UnixMilli(), e.ExpiresAt)
}
