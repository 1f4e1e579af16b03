// Package api exposes the engine's observability surface: prometheus
// metrics on /healthz and a JSON counters snapshot on /stats. The
// engine has no content-facing REST routes; content flows over the bus.
package api

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// StatsProvider supplies a counters snapshot for the stats endpoint.
type StatsProvider interface {
	Stats() map[string]any
}

// Server wires the observability routes.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
}

// NewServer creates the API server. Each provider contributes one
// section of the stats document under its name.
func NewServer(providers map[string]StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(providers),
	}
}

// Register attaches the HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
