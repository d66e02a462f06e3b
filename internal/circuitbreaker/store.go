package circuitbreaker

import (
	"context"

	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/store"
)

// Store routes every call to a backend through a Breaker.
type Store struct {
	next    store.Store
	breaker *Breaker
}

var _ store.Store = (*Store)(nil)

// Wrap guards next with a breaker named after the backend.
func Wrap(next store.Store, name string, config Config, logger logging.Logger) *Store {
	return &Store{next: next, breaker: New(name, config, logger)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.breaker.Execute(func() error {
		var err error
		value, err = s.next.Get(ctx, key)
		return err
	})
	return value, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.breaker.Execute(func() error {
		return s.next.Set(ctx, key, value)
	})
}

func (s *Store) Remove(ctx context.Context, key string) error {
	return s.breaker.Execute(func() error {
		return s.next.Remove(ctx, key)
	})
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.breaker.Execute(func() error {
		var err error
		keys, err = s.next.Keys(ctx, prefix)
		return err
	})
	return keys, err
}

// Health bypasses the breaker so probes always reach the backend.
func (s *Store) Health(ctx context.Context) error {
	if checker, ok := s.next.(interface{ Health(context.Context) error }); ok {
		return checker.Health(ctx)
	}
	return nil
}

// Breaker exposes the underlying breaker for stats.
func (s *Store) Breaker() *Breaker {
	return s.breaker
}

func (s *Store) Close() error {
	return s.next.Close()
}
