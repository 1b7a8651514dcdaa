package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/auth"
	"github.com/banya-league/banya-engine/pkg/config"
)

// LoginRequest is the payload for admin password login.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued session token.
type LoginResponse struct {
	Token string `json:"token"`
}

// AuthHandler handles admin login.
type AuthHandler struct {
	authService *auth.Service
	cfg         *config.Config
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService *auth.Service, cfg *config.Config, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg, logger: logger}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
}

// Login handles POST /api/auth/login. On success the token is returned
// in the body and also set as a session cookie for browser clients.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	token, err := h.authService.Login(r.Context(), req.Password)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cfg.Auth.TokenTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.Env != "local",
	})

	if err := WriteJSON(w, http.StatusOK, LoginResponse{Token: token}); err != nil {
		h.logger.Error("Failed to encode login response", zap.Error(err))
	}
}
