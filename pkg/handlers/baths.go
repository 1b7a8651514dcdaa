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

// MergeBathRequest is the payload for folding one bath into another.
type MergeBathRequest struct {
	TargetID      int64 `json:"targetId"`
	RepointVisits bool  `json:"repointVisits"`
}

// MergeBathResponse reports the merge outcome.
type MergeBathResponse struct {
	SourceID     int64 `json:"sourceId"`
	TargetID     int64 `json:"targetId"`
	VisitsMovedN int64 `json:"visitsMoved"`
}

// BathsHandler handles bath catalog HTTP requests.
type BathsHandler struct {
	baths  services.BathService
	logger *zap.Logger
}

// NewBathsHandler creates a new baths handler.
func NewBathsHandler(baths services.BathService, logger *zap.Logger) *BathsHandler {
	return &BathsHandler{baths: baths, logger: logger}
}

// RegisterRoutes registers the baths handler's routes on the given mux.
func (h *BathsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/baths", authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("GET /api/baths", authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET /api/baths/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PATCH /api/baths/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("POST /api/baths/{id}/merge", authMiddleware.RequireAuth(h.Merge))
	mux.HandleFunc("GET /api/baths/countries", authMiddleware.RequireAuth(h.ListCountries))
	mux.HandleFunc("GET /api/baths/regions", authMiddleware.RequireAuth(h.ListRegions))
}

// Create handles POST /api/baths.
func (h *BathsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var bath models.Bath
	if err := json.NewDecoder(r.Body).Decode(&bath); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}
	if bath.Name == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_name", "Bath name is required")
		return
	}

	if err := h.baths.Create(r.Context(), &bath); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusCreated, bath); err != nil {
		h.logger.Error("Failed to encode bath response", zap.Error(err))
	}
}

// List handles GET /api/baths.
func (h *BathsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.BathFilter{
		Query:           r.URL.Query().Get("q"),
		IncludeArchived: r.URL.Query().Get("include_archived") == "true",
		Limit:           QueryInt(r, "limit", 0),
		Offset:          QueryInt(r, "offset", 0),
	}

	baths, err := h.baths.List(r.Context(), filter)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}
	if baths == nil {
		baths = []*models.Bath{}
	}

	if err := WriteJSON(w, http.StatusOK, baths); err != nil {
		h.logger.Error("Failed to encode baths response", zap.Error(err))
	}
}

// Get handles GET /api/baths/{id}.
func (h *BathsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseBathID(w, r, h.logger)
	if !ok {
		return
	}

	bath, err := h.baths.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, bath); err != nil {
		h.logger.Error("Failed to encode bath response", zap.Error(err))
	}
}

// Update handles PATCH /api/baths/{id}.
func (h *BathsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseBathID(w, r, h.logger)
	if !ok {
		return
	}

	var params repositories.BathUpdateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	if err := h.baths.Update(r.Context(), id, params); err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	bath, err := h.baths.Get(r.Context(), id)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	if err := WriteJSON(w, http.StatusOK, bath); err != nil {
		h.logger.Error("Failed to encode bath response", zap.Error(err))
	}
}

// Merge handles POST /api/baths/{id}/merge.
func (h *BathsHandler) Merge(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseBathID(w, r, h.logger)
	if !ok {
		return
	}

	var req MergeBathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TargetID <= 0 {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	moved, err := h.baths.Merge(r.Context(), id, req.TargetID, req.RepointVisits)
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}

	response := MergeBathResponse{
		SourceID:     id,
		TargetID:     req.TargetID,
		VisitsMovedN: moved,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode merge response", zap.Error(err))
	}
}

// ListCountries handles GET /api/baths/countries.
func (h *BathsHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.baths.ListCountries(r.Context())
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}
	if countries == nil {
		countries = []*models.Country{}
	}

	if err := WriteJSON(w, http.StatusOK, countries); err != nil {
		h.logger.Error("Failed to encode countries response", zap.Error(err))
	}
}

// ListRegions handles GET /api/baths/regions.
func (h *BathsHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.baths.ListRegions(r.Context(), QueryInt64Ptr(r, "country_id"))
	if err != nil {
		ServiceError(w, err, h.logger)
		return
	}
	if regions == nil {
		regions = []*models.Region{}
	}

	if err := WriteJSON(w, http.StatusOK, regions); err != nil {
		h.logger.Error("Failed to encode regions response", zap.Error(err))
	}
}
