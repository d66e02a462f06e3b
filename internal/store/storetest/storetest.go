// Package storetest holds the behavioural contract every store backend must meet.
package storetest

import (
	"context"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-cache/internal/store"
)

// RunContract exercises s against the store.Store contract. Each subtest gets a
// fresh store from newStore.
func RunContract(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "absent")
		require.Error(t, err)
		assert.True(t, store.IsNotFound(err), "got %v", err)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "dashcache:a", `{"data":1}`))

		v, err := s.Get(ctx, "dashcache:a")
		require.NoError(t, err)
		assert.Equal(t, `{"data":1}`, v)
	})

	t.Run("set overwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "one"))
		require.NoError(t, s.Set(ctx, "k", "two"))

		v, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "two", v)
	})

	t.Run("multibyte values round trip", func(t *testing.T) {
		s := newStore(t)
		value := `{"name":"Bohrgerät ✓ 設備"}`
		require.NoError(t, s.Set(ctx, "utf8", value))

		v, err := s.Get(ctx, "utf8")
		require.NoError(t, err)
		assert.Equal(t, value, v)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "k", "v"))
		require.NoError(t, s.Remove(ctx, "k"))

		_, err := s.Get(ctx, "k")
		assert.True(t, store.IsNotFound(err))

		assert.NoError(t, s.Remove(ctx, "never-existed"))
	})

	t.Run("keys by prefix", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"dashcache:a", "dashcache:b", "other:c", "dashcache*x"} {
			require.NoError(t, s.Set(ctx, k, "v"))
		}

		keys, err := s.Keys(ctx, "dashcache:")
		require.NoError(t, err)
		sort.Strings(keys)
		assert.Equal(t, []string{"dashcache:a", "dashcache:b"}, keys)

		all, err := s.Keys(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})

	t.Run("glob characters in prefix are literal", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "p*[1]:a", "v"))
		require.NoError(t, s.Set(ctx, "p-x:b", "v"))

		keys, err := s.Keys(ctx, "p*[1]:")
		require.NoError(t, err)
		assert.Equal(t, []string{"p*[1]:a"}, keys)
	})

	t.Run("keys after remove", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Set(ctx, "n:a", "v"))
		require.NoError(t, s.Set(ctx, "n:b", "v"))
		require.NoError(t, s.Remove(ctx, "n:a"))

		keys, err := s.Keys(ctx, "n:")
		require.NoError(t, err)
		assert.Equal(t, []string{"n:b"}, keys)
	})
}

// RunQuotaContract checks that a store built with a quota of quotaBytes rejects a
// write that would overflow it with a quota error and keeps the previous state.
func RunQuotaContract(t *testing.T, quotaBytes int, newStore func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("quota rejects overflowing write", func(t *testing.T) {
		s := newStore(t)
		half := strings.Repeat("a", quotaBytes/2)
		require.NoError(t, s.Set(ctx, "q:1", half))

		err := s.Set(ctx, "q:2", strings.Repeat("b", quotaBytes))
		require.Error(t, err)
		assert.True(t, store.IsQuotaExceeded(err), "got %v", err)

		_, err = s.Get(ctx, "q:2")
		assert.True(t, store.IsNotFound(err))

		v, err := s.Get(ctx, "q:1")
		require.NoError(t, err)
		assert.Equal(t, half, v)
	})

	t.Run("overwrite accounts for replaced value", func(t *testing.T) {
		s := newStore(t)
		big := strings.Repeat("a", quotaBytes-16)
		require.NoError(t, s.Set(ctx, "q:1", big))
		require.NoError(t, s.Set(ctx, "q:1", big))
	})

	t.Run("remove frees room", func(t *testing.T) {
		s := newStore(t)
		big := strings.Repeat("a", quotaBytes-16)
		require.NoError(t, s.Set(ctx, "q:1", big))
		require.Error(t, s.Set(ctx, "q:2", big))
		require.NoError(t, s.Remove(ctx, "q:1"))
		assert.NoError(t, s.Set(ctx, "q:2", big))
	})
}
