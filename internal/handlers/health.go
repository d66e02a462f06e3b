package handlers

import (
	"context"
	"net/http"
	"time"

	"dashboard-cache/internal/common/logging"
)

const healthTimeout = 3 * time.Second

// HealthCheck reports service and store health
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{} "Service is healthy"
// @Failure 503 {object} map[string]interface{} "Store is unreachable"
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":       "healthy",
		"store_status": "healthy",
		"timestamp":    h.clock.Now().UTC(),
		"uptime":       h.clock.Since(h.startedAt).Round(time.Second).String(),
	}

	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			h.logger.WithContext(r.Context()).Warn("Store health check failed", logging.Err(err))
			status["status"] = "unhealthy"
			status["store_status"] = "unhealthy"
			status["error"] = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}

	writeJSON(w, http.StatusOK, status)
}
