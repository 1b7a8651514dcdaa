package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// UserProfile is a user with their lifetime totals.
type UserProfile struct {
	models.User
	Points     float64 `json:"points"`
	VisitCount int     `json:"visitCount"`
}

// UserService manages league members. Members arrive through chat
// ingestion with externally assigned ids, so registration is an upsert
// rather than an insert.
type UserService interface {
	Register(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*UserProfile, error)
	List(ctx context.Context) ([]*repositories.UserWithPoints, error)
	Update(ctx context.Context, id int64, params repositories.UserUpdateParams) error
}

// userService implements UserService.
type userService struct {
	users  repositories.UserRepository
	awards repositories.PointAwardRepository
	logger *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(users repositories.UserRepository, awards repositories.PointAwardRepository, logger *zap.Logger) UserService {
	return &userService{users: users, awards: awards, logger: logger}
}

// Register creates the user or refreshes their chat identity.
func (s *userService) Register(ctx context.Context, user *models.User) error {
	user.IsActive = true
	if err := s.users.Upsert(ctx, user); err != nil {
		return err
	}

	s.logger.Debug("user registered", zap.Int64("user_id", user.ID))
	return nil
}

// Get returns a user's profile with lifetime point total and the number
// of active visits they participated in.
func (s *userService) Get(ctx context.Context, id int64) (*UserProfile, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	points, err := s.awards.SumByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	visits, err := s.awards.CountActiveVisitsByUser(ctx, id)
	if err != nil {
		return nil, err
	}

	return &UserProfile{User: *user, Points: points, VisitCount: visits}, nil
}

// List returns all users with their lifetime point totals.
func (s *userService) List(ctx context.Context) ([]*repositories.UserWithPoints, error) {
	return s.users.List(ctx)
}

// Update applies a partial update to a user.
func (s *userService) Update(ctx context.Context, id int64, params repositories.UserUpdateParams) error {
	return s.users.Update(ctx, id, params)
}

// Ensure userService implements UserService at compile time.
var _ UserService = (*userService)(nil)
