package handlers

import (
	"net/http"
	"strconv"
)

// ClearCache removes every non-critical entry under a prefix
// @Summary Clear the cache
// @Tags cache
// @Produce json
// @Param prefix query string false "Key prefix (default: configured prefix)"
// @Success 200 {object} map[string]interface{} "Number of entries removed"
// @Router /api/cache/clear [post]
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	removed := h.cache.Clear(r.Context(), r.URL.Query().Get("prefix"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

// CleanupCache runs the expiry sweep and, with a target, size eviction
// @Summary Run cache cleanup
// @Tags cache
// @Produce json
// @Param target query int false "Target size in bytes; 0 only removes expired entries"
// @Param prefix query string false "Key prefix (default: configured prefix)"
// @Success 200 {object} cache.CleanupResult "Entries removed"
// @Failure 400 {string} string "Invalid target"
// @Router /api/cache/cleanup [post]
func (h *Handlers) CleanupCache(w http.ResponseWriter, r *http.Request) {
	var target int64
	if raw := r.URL.Query().Get("target"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			http.Error(w, "target must be a non-negative number of bytes", http.StatusBadRequest)
			return
		}
		target = n
	}

	res := h.cache.Cleanup(r.Context(), r.URL.Query().Get("prefix"), target)
	writeJSON(w, http.StatusOK, res)
}
