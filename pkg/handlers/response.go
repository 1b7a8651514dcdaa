package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ServiceError maps a service-layer error onto the HTTP taxonomy and
// writes the response.
func ServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var status int
	var code string

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperrors.ErrInvalidStatus):
		status, code = http.StatusBadRequest, "invalid_status"
	case errors.Is(err, apperrors.ErrInvalidPeriod):
		status, code = http.StatusBadRequest, "invalid_period"
	case errors.Is(err, apperrors.ErrInvalidConfigKey):
		status, code = http.StatusBadRequest, "invalid_config_key"
	case errors.Is(err, apperrors.ErrBathMergeSelf):
		status, code = http.StatusConflict, "bath_merge_self"
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, apperrors.ErrNoAdminConfigured):
		status, code = http.StatusServiceUnavailable, "no_admin_configured"
	case errors.Is(err, apperrors.ErrRecalculationFailed):
		status, code = http.StatusInternalServerError, "recalculation_failed"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}

	if writeErr := ErrorResponse(w, status, code, err.Error()); writeErr != nil {
		logger.Error("Failed to write error response", zap.Error(writeErr))
	}
}
