package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// CreateVisitParams carries everything needed to record a visit.
type CreateVisitParams struct {
	BathID       *int64
	CreatedBy    *int64
	MessageID    *int64
	ChatID       *int64
	Status       string
	VisitedAt    time.Time
	FlagLong     bool
	Participants []int64
}

// VisitDetail is a visit assembled with its participant set and the
// awards the scoring engine last produced for it.
type VisitDetail struct {
	Visit        *models.Visit        `json:"visit"`
	Participants []int64              `json:"participants"`
	Awards       []*models.PointAward `json:"awards"`
	TotalPoints  float64              `json:"totalPoints"`
}

// VisitService orchestrates visit mutations. Every state change —
// status, bath, flags, participant set — is followed by a synchronous
// recalculation of the visit's awards inside the same transaction.
type VisitService interface {
	Create(ctx context.Context, params CreateVisitParams) (*models.Visit, error)
	Get(ctx context.Context, id int64) (*VisitDetail, error)
	List(ctx context.Context, filter repositories.VisitFilter) ([]*models.Visit, error)
	SetStatus(ctx context.Context, id int64, status string) error
	AssignBath(ctx context.Context, id, bathID int64) error
	SetLongFlag(ctx context.Context, id int64, value bool) error
	SetParticipants(ctx context.Context, id int64, userIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

// visitService implements VisitService.
type visitService struct {
	db      database.TxRunner
	visits  repositories.VisitRepository
	baths   repositories.BathRepository
	awards  repositories.PointAwardRepository
	scoring ScoringService
	logger  *zap.Logger
}

// NewVisitService creates a new visit service.
func NewVisitService(
	db database.TxRunner,
	visits repositories.VisitRepository,
	baths repositories.BathRepository,
	awards repositories.PointAwardRepository,
	scoring ScoringService,
	logger *zap.Logger,
) VisitService {
	return &visitService{
		db:      db,
		visits:  visits,
		baths:   baths,
		awards:  awards,
		scoring: scoring,
		logger:  logger,
	}
}

// Create records a new visit with its participant set and scores it.
// When chat/message correlation ids are supplied and a visit for that
// message already exists, the existing visit is returned unchanged.
func (s *visitService) Create(ctx context.Context, params CreateVisitParams) (*models.Visit, error) {
	status := models.VisitStatusPending
	if params.Status != "" {
		if !models.IsValidVisitStatus(params.Status) {
			return nil, fmt.Errorf("status %q: %w", params.Status, apperrors.ErrInvalidStatus)
		}
		status = models.VisitStatus(params.Status)
	}

	if params.ChatID != nil && params.MessageID != nil {
		existing, err := s.visits.GetByChatMessage(ctx, *params.ChatID, *params.MessageID)
		if err == nil {
			s.logger.Debug("visit already recorded for message",
				zap.Int64("visit_id", existing.ID),
				zap.Int64("message_id", *params.MessageID))
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
	}

	if params.BathID != nil {
		if _, err := s.baths.GetByID(ctx, *params.BathID); err != nil {
			return nil, err
		}
	}

	visit := &models.Visit{
		BathID:    params.BathID,
		CreatedBy: params.CreatedBy,
		MessageID: params.MessageID,
		ChatID:    params.ChatID,
		Status:    status,
		VisitedAt: params.VisitedAt,
		FlagLong:  params.FlagLong,
	}

	err := s.db.InTx(ctx, func(ctx context.Context) error {
		if err := s.visits.Create(ctx, visit); err != nil {
			return err
		}
		if len(params.Participants) > 0 {
			if err := s.visits.ReplaceParticipants(ctx, visit.ID, params.Participants); err != nil {
				return err
			}
		}
		return s.scoring.RecalculateVisit(ctx, visit.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("visit created",
		zap.Int64("visit_id", visit.ID),
		zap.String("status", string(visit.Status)),
		zap.Int("participants", len(params.Participants)))

	return visit, nil
}

// Get returns the visit with its participants and current awards.
func (s *visitService) Get(ctx context.Context, id int64) (*VisitDetail, error) {
	visit, err := s.visits.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	participants, err := s.visits.ListParticipantIDs(ctx, id)
	if err != nil {
		return nil, err
	}

	awards, err := s.awards.ListByVisit(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &VisitDetail{
		Visit:        visit,
		Participants: participants,
		Awards:       awards,
	}
	for _, a := range awards {
		detail.TotalPoints += a.Points
	}

	return detail, nil
}

// List returns visits matching the filter.
func (s *visitService) List(ctx context.Context, filter repositories.VisitFilter) ([]*models.Visit, error) {
	return s.visits.List(ctx, filter)
}

// SetStatus transitions the visit to a new status and rescores it.
func (s *visitService) SetStatus(ctx context.Context, id int64, status string) error {
	if !models.IsValidVisitStatus(status) {
		return fmt.Errorf("status %q: %w", status, apperrors.ErrInvalidStatus)
	}

	return s.mutate(ctx, id, "status", func(ctx context.Context) error {
		return s.visits.UpdateStatus(ctx, id, models.VisitStatus(status))
	})
}

// AssignBath repoints the visit at another bath and rescores it.
func (s *visitService) AssignBath(ctx context.Context, id, bathID int64) error {
	if _, err := s.baths.GetByID(ctx, bathID); err != nil {
		return err
	}

	return s.mutate(ctx, id, "bath", func(ctx context.Context) error {
		return s.visits.UpdateBath(ctx, id, bathID)
	})
}

// SetLongFlag toggles the long-visit flag and rescores the visit.
func (s *visitService) SetLongFlag(ctx context.Context, id int64, value bool) error {
	return s.mutate(ctx, id, "flag_long", func(ctx context.Context) error {
		return s.visits.UpdateFlagLong(ctx, id, value)
	})
}

// SetParticipants replaces the visit's participant set and rescores it.
func (s *visitService) SetParticipants(ctx context.Context, id int64, userIDs []int64) error {
	return s.mutate(ctx, id, "participants", func(ctx context.Context) error {
		if _, err := s.visits.GetByID(ctx, id); err != nil {
			return err
		}
		return s.visits.ReplaceParticipants(ctx, id, userIDs)
	})
}

// mutate applies one visit change and the follow-up recalculation as a
// single transaction, so a failed rescore rolls the change back too.
func (s *visitService) mutate(ctx context.Context, id int64, what string, change func(ctx context.Context) error) error {
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		if err := change(ctx); err != nil {
			return err
		}
		return s.scoring.RecalculateVisit(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("visit updated",
		zap.Int64("visit_id", id),
		zap.String("change", what))

	return nil
}

// Delete removes a visit. Participant and award rows cascade with it;
// this is an admin action, not part of the scoring lifecycle.
func (s *visitService) Delete(ctx context.Context, id int64) error {
	if err := s.visits.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("visit deleted", zap.Int64("visit_id", id))
	return nil
}

// Ensure visitService implements VisitService at compile time.
var _ VisitService = (*visitService)(nil)
