package auth

import (
	"context"
	"crypto/subtle"
	"errors"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// Service handles admin password login for the web UI. An empty
// configured password disables login entirely.
type Service struct {
	users    repositories.UserRepository
	tokens   *TokenService
	password string
	logger   *zap.Logger
}

// NewService creates an auth service. password is the shared admin web
// password; empty disables login.
func NewService(users repositories.UserRepository, tokens *TokenService, password string, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		password: password,
		logger:   logger,
	}
}

// Login exchanges the admin password for a session token tied to the
// first configured admin user.
func (s *Service) Login(ctx context.Context, password string) (string, error) {
	if s.password == "" {
		return "", apperrors.ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(s.password)) != 1 {
		s.logger.Warn("rejected login attempt")
		return "", apperrors.ErrInvalidCredentials
	}

	admin, err := s.users.FirstAdmin(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrNoAdminConfigured
		}
		return "", err
	}

	token, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return "", err
	}

	s.logger.Info("admin logged in", zap.Int64("user_id", admin.ID))
	return token, nil
}
