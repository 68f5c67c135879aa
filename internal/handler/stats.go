package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/contentguard/internal/service"
)

// StatsHandler serves the unauthenticated marketing counters.
type StatsHandler struct {
	stats  *service.StatsService
	logger *slog.Logger
}

func NewStatsHandler(stats *service.StatsService, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// HandlePublic returns the landing-page counters.
//
// HTTP: GET /api/stats/public (no auth)
func (h *StatsHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Public(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
