// Package config provides configuration management for the dashboard cache service.
// It handles loading configuration from environment variables with sensible defaults
// and validates the configuration to ensure the service starts safely.
//
// The cache can persist to one of several stores: an in-process memory store,
// Redis, SQLite or PostgreSQL. Only the settings of the selected store are validated.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Admin API port (default: 8080)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Write logs to this file instead of stdout
//   - LOG_JSON: Emit JSON logs instead of console format (default: false)
//
// Rate Limiting (admin API, per client IP):
//   - RATE_LIMIT_ENABLED: Enable rate limiting (default: true)
//   - RATE_LIMIT_RPS: Requests per second (default: 50)
//   - RATE_LIMIT_BURST: Burst size (default: 100)
//
// Cache Settings:
//   - CACHE_STORE: Store type - "memory", "redis", "sqlite" or "postgres" (default: memory)
//   - CACHE_PREFIX: Namespace prepended to every key (default: dashcache:)
//   - CACHE_DEFAULT_TTL: TTL for entries written without one (default: 5m)
//   - CACHE_MAX_ENTRY_SIZE: Largest serialized entry in bytes (default: 2097152)
//   - CACHE_TOTAL_BUDGET: Aggregate size budget in bytes (default: 8388608)
//   - CACHE_QUOTA_BYTES: Hard store quota for memory/sqlite/postgres, 0 for none (default: 0)
//   - CACHE_CRITICAL_KEYS: Comma-separated key names exempt from eviction
//   - CACHE_SWEEP_SCHEDULE: Cron schedule for the maintenance sweep (default: @every 1m)
//
// Store Circuit Breaker (redis and postgres only):
//   - STORE_BREAKER_MAX_FAILURES: Consecutive failures that open the circuit, 0 disables (default: 5)
//   - STORE_BREAKER_TIMEOUT: How long the circuit stays open (default: 30s)
//
// SQLite Configuration:
//   - DATABASE_PATH: SQLite database file path (default: ./dashboard_cache.db)
//
// Redis Configuration:
//   - REDIS_ADDRESS: Redis server address (default: localhost:6379)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// PostgreSQL Configuration:
//   - POSTGRES_HOST: PostgreSQL host (default: localhost)
//   - POSTGRES_PORT: PostgreSQL port (default: 5432)
//   - POSTGRES_DB: PostgreSQL database name (default: dashboard_cache)
//   - POSTGRES_USER: PostgreSQL username (default: postgres)
//   - POSTGRES_PASSWORD: PostgreSQL password
//   - POSTGRES_SSL_MODE: PostgreSQL SSL mode (default: disable)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
//	ttl := cfg.DefaultTTL()
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration values for the dashboard cache service.
// String fields mirror their environment variables; the typed accessors parse
// them and are only meaningful after Validate has succeeded.
type Config struct {
	// Application settings
	Port     string // Admin API port
	LogLevel string // Logging level (debug, info, warn, error)
	LogFile  string // Optional log file path
	LogJSON  bool   // JSON log encoding

	// Rate limiting configuration
	RateLimitEnabled bool
	RateLimitRPS     string
	RateLimitBurst   string

	// Cache settings
	StoreType     string // memory, redis, sqlite or postgres
	Prefix        string // Key namespace
	TTL           string // Default entry TTL (e.g. "5m")
	MaxEntrySize  string // Per-entry byte limit
	TotalBudget   string // Aggregate byte budget
	QuotaBytes    string // Hard store quota in bytes
	CriticalKeys  string // Comma-separated critical key names
	SweepSchedule string // Cron schedule for maintenance

	// SQLite
	DatabasePath string

	// Redis
	RedisAddress  string
	RedisPassword string
	RedisDB       string
	RedisPoolSize string

	// PostgreSQL
	PostgresHost     string
	PostgresPort     string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// Circuit breaker around networked stores
	BreakerMaxFailures string
	BreakerTimeout     string
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration - call Validate() on the
// returned Config before use.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		LogJSON:  getBoolEnv("LOG_JSON", false),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),
		RateLimitRPS:     getEnv("RATE_LIMIT_RPS", "50"),
		RateLimitBurst:   getEnv("RATE_LIMIT_BURST", "100"),

		StoreType:     getEnv("CACHE_STORE", "memory"),
		Prefix:        getEnv("CACHE_PREFIX", "dashcache:"),
		TTL:           getEnv("CACHE_DEFAULT_TTL", "5m"),
		MaxEntrySize:  getEnv("CACHE_MAX_ENTRY_SIZE", "2097152"),
		TotalBudget:   getEnv("CACHE_TOTAL_BUDGET", "8388608"),
		QuotaBytes:    getEnv("CACHE_QUOTA_BYTES", "0"),
		CriticalKeys:  getEnv("CACHE_CRITICAL_KEYS", ""),
		SweepSchedule: getEnv("CACHE_SWEEP_SCHEDULE", "@every 1m"),

		DatabasePath: getEnv("DATABASE_PATH", "./dashboard_cache.db"),

		RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresDB:       getEnv("POSTGRES_DB", "dashboard_cache"),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresSSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),

		BreakerMaxFailures: getEnv("STORE_BREAKER_MAX_FAILURES", "5"),
		BreakerTimeout:     getEnv("STORE_BREAKER_TIMEOUT", "30s"),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves a boolean environment variable value or returns a default value.
//
// This function accepts common boolean representations:
//   - "true", "1", "t", "TRUE", "True" -> true
//   - "false", "0", "f", "FALSE", "False" -> false
//   - Any other value or parsing error -> returns defaultValue
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks that every value parses and that the selected store has the
// settings it needs.
//
// Returns:
//   - error: A descriptive error if validation fails, nil if configuration is valid
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	if c.Prefix == "" {
		return fmt.Errorf("CACHE_PREFIX must not be empty")
	}
	if ttl, err := time.ParseDuration(c.TTL); err != nil || ttl <= 0 {
		return fmt.Errorf("CACHE_DEFAULT_TTL must be a positive duration (e.g., '30s', '5m')")
	}
	if n, err := strconv.ParseInt(c.MaxEntrySize, 10, 64); err != nil || n < 1 {
		return fmt.Errorf("CACHE_MAX_ENTRY_SIZE must be a positive number of bytes")
	}
	if n, err := strconv.ParseInt(c.TotalBudget, 10, 64); err != nil || n < 1 {
		return fmt.Errorf("CACHE_TOTAL_BUDGET must be a positive number of bytes")
	}
	if c.maxEntrySize() > c.totalBudget() {
		return fmt.Errorf("CACHE_MAX_ENTRY_SIZE must not exceed CACHE_TOTAL_BUDGET")
	}
	if n, err := strconv.ParseInt(c.QuotaBytes, 10, 64); err != nil || n < 0 {
		return fmt.Errorf("CACHE_QUOTA_BYTES must be zero or a positive number of bytes")
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		return fmt.Errorf("CACHE_SWEEP_SCHEDULE must be a valid cron schedule: %v", err)
	}

	if c.RateLimitEnabled {
		if rps, err := strconv.Atoi(c.RateLimitRPS); err != nil || rps < 1 {
			return fmt.Errorf("RATE_LIMIT_RPS must be a positive number")
		}
		if burst, err := strconv.Atoi(c.RateLimitBurst); err != nil || burst < 1 {
			return fmt.Errorf("RATE_LIMIT_BURST must be a positive number")
		}
	}

	if n, err := strconv.Atoi(c.BreakerMaxFailures); err != nil || n < 0 {
		return fmt.Errorf("STORE_BREAKER_MAX_FAILURES must be zero or a positive number")
	}
	if c.breakerFailures() > 0 {
		if d, err := time.ParseDuration(c.BreakerTimeout); err != nil || d <= 0 {
			return fmt.Errorf("STORE_BREAKER_TIMEOUT must be a positive duration")
		}
	}

	switch c.StoreType {
	case "memory":
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when using SQLite")
		}
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when using Redis")
		}
		if db, err := strconv.Atoi(c.RedisDB); err != nil || db < 0 || db > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if poolSize, err := strconv.Atoi(c.RedisPoolSize); err != nil || poolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	case "postgres", "postgresql":
		if c.PostgresHost == "" {
			return fmt.Errorf("POSTGRES_HOST is required when using PostgreSQL")
		}
		if c.PostgresDB == "" {
			return fmt.Errorf("POSTGRES_DB is required when using PostgreSQL")
		}
		if c.PostgresUser == "" {
			return fmt.Errorf("POSTGRES_USER is required when using PostgreSQL")
		}
		if port, err := strconv.Atoi(c.PostgresPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("POSTGRES_PORT must be a valid port number")
		}
	default:
		return fmt.Errorf("CACHE_STORE must be 'memory', 'redis', 'sqlite' or 'postgres'")
	}

	return nil
}

// StoreKind returns the registry name of CACHE_STORE.
func (c *Config) StoreKind() string {
	if c.StoreType == "postgresql" {
		return "postgres"
	}
	return c.StoreType
}

func (c *Config) breakerFailures() int {
	n, _ := strconv.Atoi(c.BreakerMaxFailures)
	return n
}

// Breaker returns the store circuit breaker settings. A zero failure count
// means the breaker is disabled.
func (c *Config) Breaker() (maxFailures int, timeout time.Duration) {
	timeout, _ = time.ParseDuration(c.BreakerTimeout)
	return c.breakerFailures(), timeout
}

// DefaultTTL returns CACHE_DEFAULT_TTL.
func (c *Config) DefaultTTL() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

func (c *Config) maxEntrySize() int64 {
	n, _ := strconv.ParseInt(c.MaxEntrySize, 10, 64)
	return n
}

func (c *Config) totalBudget() int64 {
	n, _ := strconv.ParseInt(c.TotalBudget, 10, 64)
	return n
}

// MaxEntryBytes returns CACHE_MAX_ENTRY_SIZE.
func (c *Config) MaxEntryBytes() int64 { return c.maxEntrySize() }

// TotalBudgetBytes returns CACHE_TOTAL_BUDGET.
func (c *Config) TotalBudgetBytes() int64 { return c.totalBudget() }

// Quota returns CACHE_QUOTA_BYTES.
func (c *Config) Quota() int64 {
	n, _ := strconv.ParseInt(c.QuotaBytes, 10, 64)
	return n
}

// CriticalKeyList splits CACHE_CRITICAL_KEYS, dropping blanks.
func (c *Config) CriticalKeyList() []string {
	var keys []string
	for _, k := range strings.Split(c.CriticalKeys, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// RedisDBNumber returns REDIS_DB.
func (c *Config) RedisDBNumber() int {
	n, _ := strconv.Atoi(c.RedisDB)
	return n
}

// RedisPool returns REDIS_POOL_SIZE.
func (c *Config) RedisPool() int {
	n, _ := strconv.Atoi(c.RedisPoolSize)
	return n
}

// RateLimit returns RATE_LIMIT_RPS and RATE_LIMIT_BURST.
func (c *Config) RateLimit() (rps, burst int) {
	rps, _ = strconv.Atoi(c.RateLimitRPS)
	burst, _ = strconv.Atoi(c.RateLimitBurst)
	return rps, burst
}

// PostgresPortNumber returns POSTGRES_PORT.
func (c *Config) PostgresPortNumber() int {
	n, _ := strconv.Atoi(c.PostgresPort)
	return n
}
