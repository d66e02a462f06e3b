package cache

import (
	"time"

	"github.com/benbjohnson/clock"

	"dashboard-cache/internal/common/logging"
)

const (
	DefaultPrefix                   = "dashcache:"
	DefaultTTL                      = 5 * time.Minute
	DefaultMaxEntrySize       int64 = 2 << 20
	DefaultTotalBudget        int64 = 8 << 20
	DefaultRecentAccessWindow       = 2 * time.Minute
	DefaultEvictionFraction         = 0.2

	// cleanupTargetRatio is the share of TotalBudget a pressure-driven cleanup aims for.
	cleanupTargetRatio = 0.95
)

// Config holds cache-wide settings. Zero values fall back to the defaults above.
type Config struct {
	Prefix             string
	DefaultTTL         time.Duration
	MaxEntrySize       int64
	TotalBudget        int64
	RecentAccessWindow time.Duration
	EvictionFraction   float64
	// CriticalKeys are logical-name substrings exempt from eviction and Clear.
	CriticalKeys []string

	Clock  clock.Clock
	Logger logging.Logger
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix:             DefaultPrefix,
		DefaultTTL:         DefaultTTL,
		MaxEntrySize:       DefaultMaxEntrySize,
		TotalBudget:        DefaultTotalBudget,
		RecentAccessWindow: DefaultRecentAccessWindow,
		EvictionFraction:   DefaultEvictionFraction,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = d.DefaultTTL
	}
	if c.MaxEntrySize <= 0 {
		c.MaxEntrySize = d.MaxEntrySize
	}
	if c.TotalBudget <= 0 {
		c.TotalBudget = d.TotalBudget
	}
	if c.RecentAccessWindow <= 0 {
		c.RecentAccessWindow = d.RecentAccessWindow
	}
	if c.EvictionFraction <= 0 || c.EvictionFraction > 1 {
		c.EvictionFraction = d.EvictionFraction
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}
	if c.Logger == nil {
		c.Logger = logging.GetGlobalLogger()
	}
	return c
}

// Options tune a single call. Zero values use the cache's configuration.
type Options struct {
	TTL       time.Duration
	KeyPrefix string
	// MaxSize limits the serialized size of this entry in bytes.
	MaxSize int64
}
