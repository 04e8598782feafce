package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/videotube/internal/service"
)

// DashboardHandler serves the signed-in user's channel dashboard.
type DashboardHandler struct {
	dashboard *service.DashboardService
	logger    *slog.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, logger: logger}
}

// HTTP: GET /api/v1/dashboard/stats
func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.GetChannelStats(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}

// HTTP: GET /api/v1/dashboard/videos
func (h *DashboardHandler) HandleVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.dashboard.GetChannelVideos(r.Context(), currentUserID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, videos)
}
