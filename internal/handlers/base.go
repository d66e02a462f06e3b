// Package handlers implements the cache admin HTTP API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"dashboard-cache/internal/cache"
	"dashboard-cache/internal/common/logging"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handlers struct {
	cache     *cache.Cache
	health    HealthChecker
	metrics   http.Handler
	logger    logging.Logger
	clock     clock.Clock
	startedAt time.Time
}

// New creates the handlers. health and metrics may be nil.
func New(c *cache.Cache, health HealthChecker, metrics http.Handler, logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	clk := c.Config().Clock
	return &Handlers{
		cache:     c,
		health:    health,
		metrics:   metrics,
		logger:    logger.WithFields(logging.String("component", "handlers")),
		clock:     clk,
		startedAt: clk.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
