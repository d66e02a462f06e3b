package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"dashboard-cache/internal/cache"
	"dashboard-cache/internal/common/logging"
)

// optionsFromRequest reads the ttl and prefix query parameters.
func optionsFromRequest(r *http.Request) (cache.Options, error) {
	var opts cache.Options
	q := r.URL.Query()
	if ttl := q.Get("ttl"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return opts, errInvalidTTL
		}
		opts.TTL = d
	}
	opts.KeyPrefix = q.Get("prefix")
	return opts, nil
}

type badRequest string

func (e badRequest) Error() string { return string(e) }

const errInvalidTTL = badRequest("ttl must be a positive duration")

// GetEntry returns the cached JSON value
// @Summary Read a cache entry
// @Tags cache
// @Produce json
// @Param key path string true "Cache key"
// @Param stale query bool false "Return expired data instead of a miss"
// @Param prefix query string false "Key prefix (default: configured prefix)"
// @Success 200 {object} interface{} "Cached value"
// @Failure 404 {string} string "Cache entry not found"
// @Router /api/cache/{key} [get]
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	opts, err := optionsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	stale, _ := strconv.ParseBool(r.URL.Query().Get("stale"))

	data, ok := h.cache.GetJSON(r.Context(), key, opts, stale)
	if !ok {
		http.Error(w, "Cache entry not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// PutEntry stores the request body as the cached value
// @Summary Write a cache entry
// @Tags cache
// @Accept json
// @Param key path string true "Cache key"
// @Param ttl query string false "Entry TTL, e.g. 30s (default: configured TTL)"
// @Success 204 "Stored"
// @Failure 400 {string} string "Invalid JSON or TTL"
// @Failure 413 {string} string "Entry rejected"
// @Router /api/cache/{key} [put]
func (h *Handlers) PutEntry(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	opts, err := optionsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := h.cache.Config().MaxEntrySize
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > limit {
		http.Error(w, "Entry too large", http.StatusRequestEntityTooLarge)
		return
	}
	if !json.Valid(body) {
		http.Error(w, "Request body must be valid JSON", http.StatusBadRequest)
		return
	}

	if !h.cache.Set(r.Context(), key, json.RawMessage(body), opts) {
		h.logger.WithContext(r.Context()).Warn("Cache write rejected", logging.String("key", key))
		http.Error(w, "Entry rejected", http.StatusRequestEntityTooLarge)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes a cache entry, critical or not
// @Summary Delete a cache entry
// @Tags cache
// @Param key path string true "Cache key"
// @Success 204 "Removed"
// @Router /api/cache/{key} [delete]
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.cache.Remove(r.Context(), mux.Vars(r)["key"], opts)
	w.WriteHeader(http.StatusNoContent)
}

// GetEntryAge returns the time since the entry was last written or read
// @Summary Cache entry age
// @Tags cache
// @Produce json
// @Param key path string true "Cache key"
// @Success 200 {object} map[string]interface{} "Entry age"
// @Failure 404 {string} string "Cache entry not found"
// @Router /api/cache/{key}/age [get]
func (h *Handlers) GetEntryAge(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	opts, err := optionsFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	age, ok := h.cache.Age(r.Context(), key, opts)
	if !ok {
		http.Error(w, "Cache entry not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"key":    key,
		"age":    age.String(),
		"age_ms": age.Milliseconds(),
	})
}
