package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/auth"
	"github.com/banya-league/banya-engine/pkg/services"
)

// UpdateSettingRequest is the payload for changing one rule weight.
type UpdateSettingRequest struct {
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}

// SettingsHandler exposes the rule weight store.
type SettingsHandler struct {
	settings services.SettingsService
	logger   *zap.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings services.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

// RegisterRoutes registers the settings handler's routes on the given mux.
func (h *SettingsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/settings", authMiddleware.RequireAuth(h.GetAll))
	mux.HandleFunc("PUT /api/settings/{key}", authMiddleware.RequireAuth(h.Update))
}

// GetAll handles GET /api/settings.
func (h *SettingsHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	configs, err := h.settings.GetAll(r.Context())
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, configs); err != nil {
		h.logger.Error("Failed to encode settings response", zap.Error(err))
	}
}

// Update handles PUT /api/settings/{key}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req UpdateSettingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.settings.Update(r.Context(), key, req.Value, req.Description); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	configs, err := h.settings.GetAll(r.Context())
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, configs); err != nil {
		h.logger.Error("Failed to encode settings response", zap.Error(err))
	}
}
