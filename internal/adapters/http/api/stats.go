package api

import "net/http"

// StatsHandler handles stats requests.
type StatsHandler struct {
	providers map[string]StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(providers map[string]StatsProvider) *StatsHandler {
	return &StatsHandler{providers: providers}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	stats := make(map[string]any, len(h.providers))
	for name, provider := range h.providers {
		stats[name] = provider.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}
