// Package memory is a process-local store backend on top of patrickmn/go-cache.
//
// Items never expire at this layer; TTLs are the cache's business. An optional
// byte quota mimics the per-origin limits of browser storage so eviction paths can
// be exercised without a real backend.
package memory

import (
	"context"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"dashboard-cache/internal/store"
)

// Config controls the memory backend.
type Config struct {
	// QuotaBytes caps the summed byte length of keys and values. Zero means unbounded.
	QuotaBytes int64
}

// Store keeps entries in a go-cache instance with expiration disabled.
type Store struct {
	items *gocache.Cache
	quota int64

	mu   sync.Mutex // serializes quota accounting with writes
	used int64
}

var _ store.Store = (*Store)(nil)

// New creates an empty memory store.
func New(config Config) *Store {
	return &Store{
		items: gocache.New(gocache.NoExpiration, 0),
		quota: config.QuotaBytes,
	}
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	v, ok := s.items.Get(key)
	if !ok {
		return "", store.NotFound(key)
	}
	return v.(string), nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := int64(len(key) + len(value))
	if old, ok := s.items.Get(key); ok {
		delta -= int64(len(key) + len(old.(string)))
	}

	if s.quota > 0 && s.used+delta > s.quota {
		return store.QuotaExceeded(key, nil)
	}

	s.items.Set(key, value, gocache.NoExpiration)
	s.used += delta
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items.Get(key); ok {
		s.items.Delete(key)
		s.used -= int64(len(key) + len(old.(string)))
	}
	return nil
}

func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	items := s.items.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Used returns the bytes currently accounted against the quota.
func (s *Store) Used() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Flush()
	s.used = 0
	return nil
}

// Factory creates memory stores from a generic configuration.
type Factory struct{}

func (f *Factory) Create(config store.GenericConfig) (store.Store, error) {
	return New(Config{QuotaBytes: config.Int64("quota_bytes", 0)}), nil
}

func (f *Factory) GetType() string {
	return "memory"
}
