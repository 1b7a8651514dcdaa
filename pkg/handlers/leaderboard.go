package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/auth"
	"github.com/banya-league/banya-engine/pkg/services"
)

// LeaderboardHandler serves ranked standings.
type LeaderboardHandler struct {
	leaderboard services.LeaderboardService
	logger      *zap.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(leaderboard services.LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard, logger: logger}
}

// RegisterRoutes registers the leaderboard handler's routes on the given mux.
func (h *LeaderboardHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/leaderboard", authMiddleware.RequireAuth(h.Standings))
}

// Standings handles GET /api/leaderboard. The period query parameter
// selects the window: week, month, year, or all (the default).
func (h *LeaderboardHandler) Standings(w http.ResponseWriter, r *http.Request) {
	period := services.LeaderboardPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = services.PeriodAll
	}

	rows, err := h.leaderboard.Standings(r.Context(), period)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, rows); err != nil {
		h.logger.Error("Failed to encode leaderboard response", zap.Error(err))
	}
}
