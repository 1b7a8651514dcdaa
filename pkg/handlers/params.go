package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ParseVisitID extracts and validates the visit ID from the request path.
// Returns the parsed id and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseVisitID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "id", "invalid_visit_id", "Invalid visit ID format", logger)
}

// ParseBathID extracts and validates the bath ID from the request path.
// Returns the parsed id and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseBathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "id", "invalid_bath_id", "Invalid bath ID format", logger)
}

// ParseUserID extracts and validates the user ID from the request path.
// Returns the parsed id and true on success, or 0 and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseID(w, r, "id", "invalid_user_id", "Invalid user ID format", logger)
}

// parseID is the internal helper that does the actual parsing work.
func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	idStr := r.PathValue(pathParam)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

// QueryInt parses an optional integer query parameter, returning def
// when absent or unparsable.
func QueryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// QueryTimePtr parses an optional timestamp query parameter, accepting
// RFC 3339 or a plain date (treated as UTC midnight). Returns nil when
// absent or unparsable.
func QueryTimePtr(r *http.Request, name string) *time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	if v, err := time.Parse(time.RFC3339, raw); err == nil {
		return &v
	}
	if v, err := time.ParseInLocation("2006-01-02", raw, time.UTC); err == nil {
		return &v
	}
	return nil
}

// QueryInt64Ptr parses an optional int64 query parameter, returning nil
// when absent or unparsable.
func QueryInt64Ptr(r *http.Request, name string) *int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
