package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/common/logging"
)

// Fetcher loads the authoritative value for a cache key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Prefetch returns the value cached under key, fresh or stale, and refreshes it in
// the background. On a miss it calls fetch and caches the result. If that fails
// the caller gets an empty value: an empty slice or map for those kinds, otherwise
// the zero value.
func Prefetch[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], opts Options) T {
	if v, ok := cachedValue[T](ctx, c, key, opts); ok {
		refreshInBackground(ctx, c, key, fetch, opts)
		return v
	}

	v, err := safeFetch(ctx, fetch)
	if err != nil {
		c.stats.fetchFailures.Add(1)
		c.logger.Warn("Fetch failed and nothing is cached, returning empty value",
			logging.String("key", key), logging.Err(err))
		return emptyValue[T]()
	}

	c.Set(ctx, key, v, opts)
	return v
}

// cachedValue reads fresh or stale data without removing expired entries.
func cachedValue[T any](ctx context.Context, c *Cache, key string, opts Options) (T, bool) {
	var v T

	c.mu.Lock()
	e, state := c.lookup(ctx, key, opts, true, true)
	c.mu.Unlock()

	if state == readMiss {
		return v, false
	}
	if err := json.Unmarshal(e.Data, &v); err != nil {
		c.logger.Debug("Cached value does not decode into requested type",
			logging.String("key", key), logging.Err(err))
		return v, false
	}
	return v, true
}

func refreshInBackground[T any](ctx context.Context, c *Cache, key string, fetch Fetcher[T], opts Options) {
	bg := context.WithoutCancel(ctx)

	c.stats.refreshes.Add(1)
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()

		v, err := safeFetch(bg, fetch)
		if err != nil {
			c.stats.refreshFailures.Add(1)
			c.logger.Debug("Background refresh failed", logging.String("key", key), logging.Err(err))
			return
		}
		c.Set(bg, key, v, opts)
	}()
}

func safeFetch[T any](ctx context.Context, fetch Fetcher[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.InternalError(fmt.Sprintf("fetch panicked: %v", r), nil)
		}
	}()
	return fetch(ctx)
}

func emptyValue[T any]() T {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	switch t.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0).Interface().(T)
	case reflect.Map:
		return reflect.MakeMap(t).Interface().(T)
	}
	return zero
}
