package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashboard-cache/internal/store"
	"dashboard-cache/internal/store/storetest"
)

func newTestStore(t *testing.T, quota int64) *Store {
	t.Helper()
	s, err := New(&Config{
		DatabasePath: filepath.Join(t.TempDir(), "cache.db"),
		QuotaBytes:   quota,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.RunContract(t, func(t *testing.T) store.Store {
		return newTestStore(t, 0)
	})
}

func TestStoreQuotaContract(t *testing.T) {
	storetest.RunQuotaContract(t, 1024, func(t *testing.T) store.Store {
		return newTestStore(t, 1024)
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.Error(t, (&Config{}).Validate())
	assert.Error(t, (&Config{DatabasePath: "x.db", QuotaBytes: -1}).Validate())
	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, "sqlite", DefaultConfig().GetType())
	assert.Contains(t, (&Config{DatabasePath: "a.db"}).GetConnectionString(), "a.db")
}

func TestNew_InvalidConfig(t *testing.T) {
	s, err := New(&Config{})
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := New(&Config{DatabasePath: path})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "dashcache:projects", `{"data":[]}`))
	require.NoError(t, s.Close())

	reopened, err := New(&Config{DatabasePath: path})
	require.NoError(t, err)
	defer reopened.Close()

	v, err := reopened.Get(ctx, "dashcache:projects")
	require.NoError(t, err)
	assert.Equal(t, `{"data":[]}`, v)
}

func TestStore_PercentAndUnderscoreAreLiteral(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)

	require.NoError(t, s.Set(ctx, "a%_:1", "v"))
	require.NoError(t, s.Set(ctx, "abc:2", "v"))

	keys, err := s.Keys(ctx, "a%_:")
	require.NoError(t, err)
	assert.Equal(t, []string{"a%_:1"}, keys)
}

func TestStore_Health(t *testing.T) {
	s := newTestStore(t, 0)
	assert.NoError(t, s.Health(context.Background()))
}

func TestIsQuotaError(t *testing.T) {
	assert.True(t, isQuotaError(sqlite3.Error{Code: sqlite3.ErrFull}))
	assert.True(t, isQuotaError(fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrFull})))
	assert.False(t, isQuotaError(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.False(t, isQuotaError(errors.New("other")))
}

func TestFactory(t *testing.T) {
	f := &Factory{}
	assert.Equal(t, "sqlite", f.GetType())

	s, err := f.Create(store.GenericConfig{
		"database_path": filepath.Join(t.TempDir(), "f.db"),
		"quota_bytes":   "8",
	})
	require.NoError(t, err)
	defer s.Close()

	err = s.Set(context.Background(), "key", "too long value")
	assert.True(t, store.IsQuotaExceeded(err))
}
