package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"dashboard-cache/internal/cache"
	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/config"
	"dashboard-cache/internal/maintenance"
	"dashboard-cache/internal/metrics"
	"dashboard-cache/internal/store"
)

// App holds all the application dependencies
type App struct {
	Config    *config.Config
	Store     store.Store
	Cache     *cache.Cache
	Scheduler *maintenance.Scheduler
	Metrics   *prometheus.Registry
	Logger    logging.Logger
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	// Initialize components in order of dependency
	if err := app.initializeStore(ctx); err != nil {
		return nil, err
	}

	app.initializeCache()

	if err := app.initializeScheduler(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.Metrics = metrics.NewRegistry(app.Cache)

	return app, nil
}

func (app *App) initializeCache() {
	app.Cache = cache.New(app.Store, cache.Config{
		Prefix:       app.Config.Prefix,
		DefaultTTL:   app.Config.DefaultTTL(),
		MaxEntrySize: app.Config.MaxEntryBytes(),
		TotalBudget:  app.Config.TotalBudgetBytes(),
		CriticalKeys: app.Config.CriticalKeyList(),
		Logger:       logging.GetGlobalLogger(),
	})

	app.Logger.Info("Cache initialized",
		logging.String("prefix", app.Config.Prefix),
		logging.Duration("default_ttl", app.Config.DefaultTTL()),
		logging.Int64("total_budget", app.Config.TotalBudgetBytes()),
		logging.Int("critical_keys", len(app.Config.CriticalKeyList())),
	)
}

func (app *App) initializeScheduler() error {
	scheduler, err := maintenance.New(app.Cache, app.Config.SweepSchedule, logging.GetGlobalLogger())
	if err != nil {
		return fmt.Errorf("failed to create maintenance scheduler: %w", err)
	}
	app.Scheduler = scheduler
	return nil
}

// Health reports whether the backing store is reachable. Backends without a
// health probe are always considered healthy.
func (app *App) Health(ctx context.Context) error {
	if checker, ok := app.Store.(interface{ Health(context.Context) error }); ok {
		return checker.Health(ctx)
	}
	return nil
}

// Handler builds the HTTP handler tree for the admin API.
func (app *App) Handler() (http.Handler, error) {
	return app.routes()
}

// Cleanup releases all resources
func (app *App) Cleanup() {
	if app.Cache != nil {
		app.Cache.Wait()
	}

	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn("Error closing store", logging.Err(err))
		} else {
			app.Logger.Info("Store closed")
		}
	}
}
