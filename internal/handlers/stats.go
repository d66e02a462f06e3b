package handlers

import (
	"net/http"
)

// Statistics handlers

// GetStats returns cache statistics
// @Summary Get cache statistics
// @Description Returns activity counters and the current stored size
// @Tags statistics
// @Produce json
// @Success 200 {object} map[string]interface{} "Cache statistics"
// @Router /api/stats [get]
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	cfg := h.cache.Config()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":          h.cache.Stats(),
		"prefix":         cfg.Prefix,
		"total_size":     h.cache.TotalSize(r.Context(), ""),
		"total_budget":   cfg.TotalBudget,
		"max_entry_size": cfg.MaxEntrySize,
		"critical_keys":  cfg.CriticalKeys,
	})
}
