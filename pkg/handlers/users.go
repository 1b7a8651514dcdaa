package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/auth"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
	"github.com/banya-league/banya-engine/pkg/services"
)

// RegisterUserRequest is the payload for registering a league member.
// The id comes from the chat platform, so callers supply it.
type RegisterUserRequest struct {
	ID       int64   `json:"id"`
	Username *string `json:"username"`
	FullName string  `json:"fullName"`
}

// UsersHandler handles league member HTTP requests.
type UsersHandler struct {
	users  services.UserService
	logger *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/users", authMiddleware.RequireAuth(h.Register))
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/users/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/users/{id}", authMiddleware.RequireAuth(h.Update))
}

// Register handles POST /api/users.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	user := &models.User{
		ID:       req.ID,
		Username: req.Username,
		FullName: req.FullName,
	}
	if err := h.users.Register(r.Context(), user); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}
	if users == nil {
		users = []*repositories.UserWithPoints{}
	}

	if err := WriteJSON(w, http.StatusOK, users); err != nil {
		h.logger.Error("Failed to encode users response", zap.Error(err))
	}
}

// Get handles GET /api/users/{id}.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}

// Update handles PATCH /api/users/{id}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	var params repositories.UserUpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.users.Update(r.Context(), id, params); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, user); err != nil {
		h.logger.Error("Failed to encode user response", zap.Error(err))
	}
}
