package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/auth"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
	"github.com/banya-league/banya-engine/pkg/services"
)

// CreateVisitRequest is the payload for recording a visit.
type CreateVisitRequest struct {
	BathID       *int64    `json:"bathId"`
	CreatedBy    *int64    `json:"createdBy"`
	MessageID    *int64    `json:"messageId"`
	ChatID       *int64    `json:"chatId"`
	Status       string    `json:"status"`
	VisitedAt    time.Time `json:"visitedAt"`
	FlagLong     bool      `json:"flagLong"`
	Participants []int64   `json:"participants"`
}

// VisitsHandler handles visit lifecycle HTTP requests.
type VisitsHandler struct {
	visits services.VisitService
	logger *zap.Logger
}

// NewVisitsHandler creates a new visits handler.
func NewVisitsHandler(visits services.VisitService, logger *zap.Logger) *VisitsHandler {
	return &VisitsHandler{visits: visits, logger: logger}
}

// RegisterRoutes registers the visits handler's routes on the given mux.
func (h *VisitsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/visits", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/visits", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/visits/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/visits/{id}/status", authMiddleware.RequireAuth(h.SetStatus))
	mux.HandleFunc("POST /api/visits/{id}/approve", authMiddleware.RequireAuth(h.transitionTo(models.VisitStatusConfirmed)))
	mux.HandleFunc("POST /api/visits/{id}/cancel", authMiddleware.RequireAuth(h.transitionTo(models.VisitStatusCancelled)))
	mux.HandleFunc("POST /api/visits/{id}/dispute", authMiddleware.RequireAuth(h.transitionTo(models.VisitStatusDisputed)))
	mux.HandleFunc("PATCH /api/visits/{id}/bath", authMiddleware.RequireAuth(h.AssignBath))
	mux.HandleFunc("PATCH /api/visits/{id}/flags/long", authMiddleware.RequireAuth(h.SetLongFlag))
	mux.HandleFunc("PUT /api/visits/{id}/participants", authMiddleware.RequireAuth(h.SetParticipants))
	mux.HandleFunc("DELETE /api/visits/{id}", authMiddleware.RequireAuth(h.Delete))
}

// Create handles POST /api/visits.
func (h *VisitsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	visit, err := h.visits.Create(r.Context(), services.CreateVisitParams{
		BathID:       req.BathID,
		CreatedBy:    req.CreatedBy,
		MessageID:    req.MessageID,
		ChatID:       req.ChatID,
		Status:       req.Status,
		VisitedAt:    req.VisitedAt,
		FlagLong:     req.FlagLong,
		Participants: req.Participants,
	})
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, visit); err != nil {
		h.logger.Error("Failed to encode visit response", zap.Error(err))
	}
}

// List handles GET /api/visits.
func (h *VisitsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.VisitFilter{
		Status:   models.VisitStatus(r.URL.Query().Get("status")),
		BathID:   QueryInt64Ptr(r, "bath_id"),
		UserID:   QueryInt64Ptr(r, "user_id"),
		DateFrom: QueryTimePtr(r, "date_from"),
		DateTo:   QueryTimePtr(r, "date_to"),
		Limit:    QueryInt(r, "limit", 0),
		Offset:   QueryInt(r, "offset", 0),
	}

	visits, err := h.visits.List(r.Context(), filter)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}
	if visits == nil {
		visits = []*models.Visit{}
	}

	if err := WriteJSON(w, http.StatusOK, visits); err != nil {
		h.logger.Error("Failed to encode visits response", zap.Error(err))
	}
}

// Get handles GET /api/visits/{id}.
func (h *VisitsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVisitID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.visits.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, detail); err != nil {
		h.logger.Error("Failed to encode visit response", zap.Error(err))
	}
}

// SetStatus handles PATCH /api/visits/{id}/status.
func (h *VisitsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVisitID(w, r, h.logger)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.visits.SetStatus(r.Context(), id, req.Status); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	h.respondDetail(w, r, id)
}

// transitionTo builds the approve/cancel/dispute shortcut handlers.
func (h *VisitsHandler) transitionTo(status models.VisitStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := ParseVisitID(w, r, h.logger)
		if !ok {
			return
		}

		if err := h.visits.SetStatus(r.Context(), id, string(status)); err != nil {
			ServiceError(w, err, h.logger)
			return
		}

		h.respondDetail(w, r, id)
	}
}

// AssignBath handles PATCH /api/visits/{id}/bath.
func (h *VisitsHandler) AssignBath(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVisitID(w, r, h.logger)
	if !ok {
		return
	}

	var req struct {
		BathID int64 `json:"bathId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BathID <= 0 {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.visits.AssignBath(r.Context(), id, req.BathID); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	h.respondDetail(w, r, id)
}

// SetLongFlag handles PATCH /api/visits/{id}/flags/long.
func (h *VisitsHandler) SetLongFlag(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVisitID(w, r, h.logger)
	if !ok {
		return
	}

	var req struct {
		Value bool `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.visits.SetLongFlag(r.Context(), id, req.Value); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	h.respondDetail(w, r, id)
}

// SetParticipants handles PUT /api/visits/{id}/participants.
func (h *VisitsHandler) SetParticipants(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVisitID(w, r, h.logger)
	if !ok {
		return
	}

	var req struct {
		Participants []int64 `json:"participants"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.visits.SetParticipants(r.Context(), id, req.Participants); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	h.respondDetail(w, r, id)
}

// Delete handles DELETE /api/visits/{id}.
func (h *VisitsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseVisitID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.visits.Delete(r.Context(), id); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// respondDetail writes the freshly assembled visit after a mutation so
// callers see the recomputed awards without a second round trip.
func (h *VisitsHandler) respondDetail(w http.ResponseWriter, r *http.Request, id int64) {
	detail, err := h.visits.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, detail); err != nil {
		h.logger.Error("Failed to encode visit response", zap.Error(err))
	}
}
