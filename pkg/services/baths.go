package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// BathService manages the bath catalog and its geography.
type BathService interface {
	Create(ctx context.Context, bath *models.Bath) error
	Get(ctx context.Context, id int64) (*models.Bath, error)
	List(ctx context.Context, filter repositories.BathFilter) ([]*models.Bath, error)
	Update(ctx context.Context, id int64, params repositories.BathUpdateParams) error
	// Merge folds the source bath into the target: the source is
	// archived with a canonical pointer, and when repointVisits is set,
	// its visits move to the target. Moved visits keep their awards —
	// scoring by the new bath applies from the next recalculation of
	// each visit, it is not triggered here.
	Merge(ctx context.Context, sourceID, targetID int64, repointVisits bool) (int64, error)
	ListCountries(ctx context.Context) ([]*models.Country, error)
	ListRegions(ctx context.Context, countryID *int64) ([]*models.Region, error)
}

// bathService implements BathService.
type bathService struct {
	db     database.TxRunner
	baths  repositories.BathRepository
	logger *zap.Logger
}

// NewBathService creates a new bath service.
func NewBathService(db database.TxRunner, baths repositories.BathRepository, logger *zap.Logger) BathService {
	return &bathService{db: db, baths: baths, logger: logger}
}

// Create adds a bath to the catalog.
func (s *bathService) Create(ctx context.Context, bath *models.Bath) error {
	if bath.Name == "" {
		return fmt.Errorf("bath name is required")
	}

	if err := s.baths.Create(ctx, bath); err != nil {
		return err
	}

	s.logger.Info("bath created",
		zap.Int64("bath_id", bath.ID),
		zap.String("name", bath.Name))

	return nil
}

// Get returns a bath by id.
func (s *bathService) Get(ctx context.Context, id int64) (*models.Bath, error) {
	return s.baths.GetByID(ctx, id)
}

// List returns baths matching the filter.
func (s *bathService) List(ctx context.Context, filter repositories.BathFilter) ([]*models.Bath, error) {
	return s.baths.List(ctx, filter)
}

// Update applies a partial update to a bath.
func (s *bathService) Update(ctx context.Context, id int64, params repositories.BathUpdateParams) error {
	return s.baths.Update(ctx, id, params)
}

// Merge folds the source bath into the target in one transaction and
// returns how many visits were repointed.
func (s *bathService) Merge(ctx context.Context, sourceID, targetID int64, repointVisits bool) (int64, error) {
	if sourceID == targetID {
		return 0, fmt.Errorf("bath %d: %w", sourceID, apperrors.ErrBathMergeSelf)
	}

	var moved int64
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.baths.GetByID(ctx, sourceID); err != nil {
			return err
		}
		if _, err := s.baths.GetByID(ctx, targetID); err != nil {
			return err
		}

		if repointVisits {
			n, err := s.baths.RepointVisits(ctx, sourceID, targetID)
			if err != nil {
				return err
			}
			moved = n
		}

		return s.baths.MarkMerged(ctx, sourceID, targetID)
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("baths merged",
		zap.Int64("source_id", sourceID),
		zap.Int64("target_id", targetID),
		zap.Int64("visits_moved", moved))

	return moved, nil
}

// ListCountries returns all countries.
func (s *bathService) ListCountries(ctx context.Context) ([]*models.Country, error) {
	return s.baths.ListCountries(ctx)
}

// ListRegions returns regions, optionally restricted to one country.
func (s *bathService) ListRegions(ctx context.Context, countryID *int64) ([]*models.Region, error) {
	return s.baths.ListRegions(ctx, countryID)
}

// Ensure bathService implements BathService at compile time.
var _ BathService = (*bathService)(nil)
