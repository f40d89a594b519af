package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmarinho/leadcore/internal/usecase"
)

type StatsProvider interface {
	Execute(ctx context.Context, campaignID string) (*usecase.VerificationStats, error)
}

type StatsHandler struct {
	UC StatsProvider
}

func NewStatsHandler(uc StatsProvider) *StatsHandler {
	return &StatsHandler{UC: uc}
}

// Handle reports per-campaign verification metrics.
// GET /campaigns/{campaignID}/verification-stats
func (h *StatsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")

	stats, err := h.UC.Execute(r.Context(), campaignID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to compute verification stats",
		})
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
