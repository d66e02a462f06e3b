// Package ratelimit limits request rates per key using golang.org/x/time/rate.
//
// Each key (typically a client IP) gets its own token bucket. Buckets that have
// not been used for CleanupPeriod are dropped so the key set stays bounded.
//
// Basic usage:
//
//	limiter, err := ratelimit.New(ratelimit.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	router.Use(ratelimit.HTTPMiddleware(limiter, ratelimit.IPKey))
package ratelimit

import (
	"time"

	"dashboard-cache/internal/common/errors"
)

// Config represents rate limiter configuration
type Config struct {
	RequestsPerSecond int  `json:"requests_per_second"`
	BurstSize         int  `json:"burst_size"`
	Enabled           bool `json:"enabled"`

	// Cleanup settings
	MaxKeys       int           `json:"max_keys,omitempty"`
	CleanupPeriod time.Duration `json:"cleanup_period,omitempty"`
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.RequestsPerSecond < 0 {
		return errors.ValidationError("requests per second must not be negative")
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 10
	}
	if c.BurstSize <= 0 {
		c.BurstSize = c.RequestsPerSecond
	}
	if c.MaxKeys <= 0 {
		c.MaxKeys = 10000
	}
	if c.CleanupPeriod <= 0 {
		c.CleanupPeriod = 5 * time.Minute
	}
	return nil
}

// DefaultConfig returns a default rate limiter configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 50,
		BurstSize:         100,
		Enabled:           true,
		MaxKeys:           10000,
		CleanupPeriod:     5 * time.Minute,
	}
}
