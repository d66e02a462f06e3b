package app

import (
	"net/http"

	"github.com/gorilla/mux"

	"dashboard-cache/internal/common/logging"
	"dashboard-cache/internal/common/ratelimit"
	"dashboard-cache/internal/handlers"
	"dashboard-cache/internal/metrics"
	"dashboard-cache/internal/middleware"
)

// routes configures all HTTP routes for the application
func (app *App) routes() (http.Handler, error) {
	router := mux.NewRouter()

	// Request IDs first so every log line below can carry one
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)

	limiter, err := app.newRateLimiter()
	if err != nil {
		return nil, err
	}
	if limiter != nil {
		router.Use(ratelimit.HTTPMiddleware(limiter, ratelimit.IPKey))
	}

	h := handlers.New(app.Cache, app, metrics.Handler(app.Metrics), logging.GetGlobalLogger())
	h.Register(router)

	return router, nil
}

// newRateLimiter returns nil when rate limiting is disabled.
func (app *App) newRateLimiter() (*ratelimit.Limiter, error) {
	if !app.Config.RateLimitEnabled {
		app.Logger.Info("Rate limiting disabled")
		return nil, nil
	}

	rps, burst := app.Config.RateLimit()
	cfg := ratelimit.DefaultConfig()
	cfg.RequestsPerSecond = rps
	cfg.BurstSize = burst

	limiter, err := ratelimit.New(cfg)
	if err != nil {
		return nil, err
	}

	app.Logger.Info("Rate limiting enabled",
		logging.Int("requests_per_second", rps),
		logging.Int("burst", burst),
	)
	return limiter, nil
}
