// Package circuitbreaker guards store backends with Sony's gobreaker so that an
// unreachable Redis or PostgreSQL server fails fast instead of stalling every
// cache operation on its network timeout.
package circuitbreaker

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/common/logging"
)

// Config tunes a Breaker.
type Config struct {
	// MaxFailures consecutive failures open the circuit.
	MaxFailures int
	// Timeout is how long an open circuit waits before letting probes through.
	Timeout time.Duration
	// HalfOpenRequests probes are admitted while half-open.
	HalfOpenRequests int
}

// DefaultConfig returns the breaker settings used for networked stores.
func DefaultConfig() Config {
	return Config{MaxFailures: 5, Timeout: 30 * time.Second, HalfOpenRequests: 1}
}

func (c Config) Validate() error {
	switch {
	case c.MaxFailures <= 0:
		return fmt.Errorf("max failures must be positive, got %d", c.MaxFailures)
	case c.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	case c.HalfOpenRequests <= 0:
		return fmt.Errorf("half-open requests must be positive, got %d", c.HalfOpenRequests)
	}
	return nil
}

// State is the gobreaker circuit state.
type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Stats is a snapshot of a breaker, totals counted since the last state change
// or counting interval.
type Stats struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Failures  int    `json:"failures"`
	Successes int    `json:"successes"`
}

// Breaker fails calls fast once a backend keeps erroring.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a breaker. An invalid config falls back to DefaultConfig.
func New(name string, config Config, logger logging.Logger) *Breaker {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.String("breaker", name))

	if err := config.Validate(); err != nil {
		logger.Warn("Invalid circuit breaker config, using defaults", logging.Err(err))
		config = DefaultConfig()
	}

	threshold := uint32(config.MaxFailures)
	return &Breaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(config.HalfOpenRequests),
		Interval:    time.Minute,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			)
		},
		IsSuccessful: reachable,
	})}
}

// reachable counts any answer from a live backend as a success. A missing key
// or a full store says nothing about the connection.
func reachable(err error) bool {
	switch errors.GetType(err) {
	case "", errors.ErrTypeNotFound, errors.ErrTypeQuota, errors.ErrTypeValidation, errors.ErrTypeSerialization:
		return true
	}
	return false
}

// Execute runs fn within the circuit breaker. While the circuit is open fn is
// not called and a connection error is returned.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.ConnectionError(fmt.Sprintf("circuit breaker %q rejected the call", b.cb.Name()), err)
	}
	return err
}

func (b *Breaker) State() State {
	return b.cb.State()
}

func (b *Breaker) Stats() Stats {
	counts := b.cb.Counts()
	return Stats{
		Name:      b.cb.Name(),
		State:     b.cb.State().String(),
		Failures:  int(counts.TotalFailures),
		Successes: int(counts.TotalSuccesses),
	}
}
