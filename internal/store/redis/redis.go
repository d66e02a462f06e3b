// Package redis is a store backend on go-redis. It is the shared-store option:
// several processes pointing at the same Redis see each other's entries with
// last-write-wins semantics.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/store"
)

const scanBatch = 200

type Config struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// Store keeps cache entries as plain Redis strings without server-side TTL.
type Store struct {
	rdb *redis.Client
}

var _ store.Store = (*Store)(nil)

func New(config *Config) (*Store, error) {
	if config == nil {
		return nil, errors.ConfigError("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.ConnectionError("failed to connect to Redis", err)
	}

	return &Store{rdb: rdb}, nil
}

// NewFromClient wraps an existing client. The store takes ownership and closes it.
func NewFromClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", store.NotFound(key)
	}
	if err != nil {
		return "", errors.StoreError("redis get failed", err).WithContext("key", key)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		if isQuotaError(err) {
			return store.QuotaExceeded(key, err)
		}
		return errors.StoreError("redis set failed", err).WithContext("key", key)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return errors.StoreError("redis delete failed", err).WithContext("key", key)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	iter := s.rdb.Scan(ctx, 0, escapeGlob(prefix)+"*", scanBatch).Iterator()

	seen := make(map[string]struct{})
	var keys []string
	for iter.Next(ctx) {
		k := iter.Val()
		// SCAN may return a key more than once.
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.StoreError("redis scan failed", err).WithContext("prefix", prefix)
	}
	return keys, nil
}

func (s *Store) Health(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

// isQuotaError matches the reply Redis sends once maxmemory is reached and the
// eviction policy cannot make room.
func isQuotaError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "OOM ")
}

// escapeGlob makes every character of prefix literal in a SCAN MATCH pattern.
func escapeGlob(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Factory creates Redis stores from a generic configuration.
type Factory struct{}

func (f *Factory) Create(config store.GenericConfig) (store.Store, error) {
	s, err := New(&Config{
		Address:  config.String("address", "localhost:6379"),
		Password: config.String("password", ""),
		DB:       config.Int("db", 0),
		PoolSize: config.Int("pool_size", 10),
	})
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}
	return s, nil
}

func (f *Factory) GetType() string {
	return "redis"
}
