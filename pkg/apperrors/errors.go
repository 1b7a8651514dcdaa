package apperrors

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidStatus       = errors.New("invalid visit status")
	ErrRecalculationFailed = errors.New("recalculation failed")
	ErrInvalidConfigKey    = errors.New("unknown rule config key")
	ErrInvalidPeriod       = errors.New("invalid leaderboard period")
	ErrBathMergeSelf       = errors.New("cannot merge a bath into itself")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNoAdminConfigured   = errors.New("no admin user configured")
)
