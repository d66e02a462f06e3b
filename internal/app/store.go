package app

import (
	"context"
	"fmt"
	"time"

	"dashboard-cache/internal/circuitbreaker"
	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/common/utils"
	"dashboard-cache/internal/config"
	"dashboard-cache/internal/store"
	"dashboard-cache/internal/store/memory"
	"dashboard-cache/internal/store/postgres"
	"dashboard-cache/internal/store/redis"
	"dashboard-cache/internal/store/sqlite"
)

// NewStoreRegistry returns a registry with every built-in backend registered.
func NewStoreRegistry() *store.Registry {
	registry := store.NewRegistry()
	registry.Register("memory", &memory.Factory{})
	registry.Register("redis", &redis.Factory{})
	registry.Register("sqlite", &sqlite.Factory{})
	registry.Register("postgres", &postgres.Factory{})
	return registry
}

// StoreConfig maps the environment configuration onto the generic settings
// understood by the factory for cfg.StoreKind().
func StoreConfig(cfg *config.Config) store.GenericConfig {
	switch cfg.StoreKind() {
	case "redis":
		return store.GenericConfig{
			"address":   cfg.RedisAddress,
			"password":  cfg.RedisPassword,
			"db":        cfg.RedisDBNumber(),
			"pool_size": cfg.RedisPool(),
		}
	case "sqlite":
		return store.GenericConfig{
			"database_path": cfg.DatabasePath,
			"quota_bytes":   cfg.Quota(),
		}
	case "postgres":
		return store.GenericConfig{
			"host":        cfg.PostgresHost,
			"port":        cfg.PostgresPort,
			"database":    cfg.PostgresDB,
			"username":    cfg.PostgresUser,
			"password":    cfg.PostgresPassword,
			"sslmode":     cfg.PostgresSSLMode,
			"quota_bytes": cfg.Quota(),
		}
	default:
		return store.GenericConfig{
			"quota_bytes": cfg.Quota(),
		}
	}
}

// initializeStore connects to the configured backend. Connection failures are
// retried with backoff since networked stores often come up after the service.
func (app *App) initializeStore(ctx context.Context) error {
	kind := app.Config.StoreKind()
	registry := NewStoreRegistry()
	if !registry.IsRegistered(kind) {
		return errors.ConfigError(fmt.Sprintf("unknown store type %q", kind)).
			WithContext("available", registry.GetAvailableTypes())
	}

	settings := StoreConfig(app.Config)

	retry := utils.DefaultRetryConfig()
	retry.RetryableErrors = func(err error) bool {
		return errors.IsType(err, errors.ErrTypeConnection)
	}

	var s store.Store
	err := utils.RetryWithBackoff(ctx, retry, func(ctx context.Context) error {
		created, err := registry.Create(kind, settings)
		if err != nil {
			return err
		}
		s = created
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		app.Logger.Warn("Store connection failed, retrying",
			logging.String("store", kind),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.Err(err),
		)
	})
	if err != nil {
		return fmt.Errorf("failed to initialize %s store: %w", kind, err)
	}

	app.Store = app.guardStore(kind, s)
	app.Logger.Info("Store initialized", logging.String("store", kind))
	return nil
}

// guardStore puts networked backends behind a circuit breaker.
func (app *App) guardStore(kind string, s store.Store) store.Store {
	maxFailures, timeout := app.Config.Breaker()
	if maxFailures == 0 || (kind != "redis" && kind != "postgres") {
		return s
	}

	cfg := circuitbreaker.DefaultConfig()
	cfg.MaxFailures = maxFailures
	cfg.Timeout = timeout

	app.Logger.Info("Store circuit breaker enabled",
		logging.Int("max_failures", maxFailures),
		logging.Duration("timeout", timeout),
	)
	return circuitbreaker.Wrap(s, kind+"-store", cfg, logging.GetGlobalLogger())
}
