package store

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Factory builds a Store from a generic configuration map.
type Factory interface {
	Create(config GenericConfig) (Store, error)
	GetType() string
}

// GenericConfig is a simple map-based configuration handed to factories.
type GenericConfig map[string]interface{}

// String returns the string value stored under key, or def.
func (gc GenericConfig) String(key, def string) string {
	if v, ok := gc[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Int returns the integer value stored under key, or def. String values are parsed.
func (gc GenericConfig) Int(key string, def int) int {
	switch v := gc[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Int64 returns the int64 value stored under key, or def. String values are parsed.
func (gc GenericConfig) Int64(key string, def int64) int64 {
	switch v := gc[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

// Duration returns the duration stored under key, or def. String values are parsed.
func (gc GenericConfig) Duration(key string, def time.Duration) time.Duration {
	switch v := gc[key].(type) {
	case time.Duration:
		return v
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

func (r *Registry) Register(storeType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[storeType] = factory
}

func (r *Registry) Create(storeType string, config GenericConfig) (Store, error) {
	r.mu.RLock()
	factory, exists := r.factories[storeType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("store type %s not registered", storeType)
	}

	return factory.Create(config)
}

// GetAvailableTypes returns the registered backend names in sorted order.
func (r *Registry) GetAvailableTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for storeType := range r.factories {
		types = append(types, storeType)
	}
	sort.Strings(types)
	return types
}

func (r *Registry) IsRegistered(storeType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[storeType]
	return exists
}
