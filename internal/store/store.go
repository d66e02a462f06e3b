// Package store defines the persistent string key/value contract the cache is
// layered on, plus a registry of backend factories.
//
// A Store is the cache's only durable dependency. Backends are expected to be
// synchronous from the caller's point of view, to report a missing key with an
// errors.ErrTypeNotFound error and a full medium with an errors.ErrTypeQuota
// error. Capacity may be shared with unrelated data living in the same backend.
package store

import (
	"context"

	"dashboard-cache/internal/common/errors"
)

// Store is a quota-limited string key/value store.
type Store interface {
	// Get returns the value stored under key, or a not-found error.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any previous value. It returns a
	// quota error when the backend has no room for the write.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Keys lists every key starting with prefix. An empty prefix lists all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.IsType(err, errors.ErrTypeNotFound)
}

// IsQuotaExceeded reports whether err means the backend is out of room.
func IsQuotaExceeded(err error) bool {
	return errors.IsType(err, errors.ErrTypeQuota)
}

// NotFound builds the canonical not-found error for key.
func NotFound(key string) error {
	return errors.NotFoundError("key " + key)
}

// QuotaExceeded builds the canonical quota error for a write of key.
func QuotaExceeded(key string, cause error) error {
	return errors.QuotaError("quota exceeded", cause).WithContext("key", key)
}
