package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Register adds every admin route to router.
func (h *Handlers) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	if h.metrics != nil {
		router.Handle("/metrics", h.metrics).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.GetStats).Methods("GET")

	api.HandleFunc("/cache/clear", h.ClearCache).Methods("POST")
	api.HandleFunc("/cache/cleanup", h.CleanupCache).Methods("POST")
	api.HandleFunc("/cache/{key}", h.GetEntry).Methods("GET")
	api.HandleFunc("/cache/{key}", h.PutEntry).Methods("PUT")
	api.HandleFunc("/cache/{key}", h.DeleteEntry).Methods("DELETE")
	api.HandleFunc("/cache/{key}/age", h.GetEntryAge).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})
}
