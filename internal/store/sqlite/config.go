package sqlite

import (
	"dashboard-cache/internal/common/errors"
)

type Config struct {
	DatabasePath string
	// QuotaBytes caps the summed byte length of keys and values. Zero means unbounded.
	QuotaBytes int64
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return errors.ConfigError("database path is required")
	}
	if c.QuotaBytes < 0 {
		return errors.ConfigError("quota must not be negative")
	}
	return nil
}

func (c *Config) GetType() string {
	return "sqlite"
}

// GetConnectionString enables WAL and a busy timeout so concurrent processes
// sharing the file wait instead of failing.
func (c *Config) GetConnectionString() string {
	return "file:" + c.DatabasePath + "?_journal_mode=WAL&_busy_timeout=5000"
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "./dashboard_cache.db",
	}
}
