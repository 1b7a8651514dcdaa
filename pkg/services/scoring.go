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

// ScoringService recomputes point awards for a visit. It is the sole
// writer of award rows: every recalculation deletes the visit's awards
// and reinserts the freshly computed set inside one transaction, so a
// repeated call with no intervening state change is a no-op in effect.
type ScoringService interface {
	RecalculateVisit(ctx context.Context, visitID int64) error
}

// scoringService implements ScoringService.
type scoringService struct {
	db     database.TxRunner
	visits repositories.VisitRepository
	awards repositories.PointAwardRepository
	baths  repositories.BathRepository
	rules  repositories.RuleConfigRepository
	season int
	cutoff time.Time
	logger *zap.Logger
}

// NewScoringService creates a new scoring service. seasonYear scopes
// the new-region/new-country bonuses; ultraUniqueCutoff is the earliest
// bathing date the first-ever-to-this-bath check considers.
func NewScoringService(
	db database.TxRunner,
	visits repositories.VisitRepository,
	awards repositories.PointAwardRepository,
	baths repositories.BathRepository,
	rules repositories.RuleConfigRepository,
	seasonYear int,
	ultraUniqueCutoff time.Time,
	logger *zap.Logger,
) ScoringService {
	return &scoringService{
		db:     db,
		visits: visits,
		awards: awards,
		baths:  baths,
		rules:  rules,
		season: seasonYear,
		cutoff: ultraUniqueCutoff,
		logger: logger,
	}
}

// scoringContext is the shared state one recalculation evaluates rules
// against: the visit, its resolved bath (nil when unset or since
// deleted), the weight set read fresh for this run, and the visit-level
// ultra-unique determination.
type scoringContext struct {
	visit       *models.Visit
	bath        *models.Bath
	weights     models.RuleWeights
	ultraUnique bool
}

// scoringRule is one independent predicate+value rule. Evaluate returns
// the award value and whether the rule fired for this participant.
type scoringRule struct {
	reason models.AwardReason
	eval   func(ctx context.Context, s *scoringService, sc *scoringContext, userID int64) (float64, bool, error)
}

// scoringRules is the ordered rule list applied to every participant.
var scoringRules = []scoringRule{
	{
		reason: models.ReasonBase,
		eval: func(_ context.Context, _ *scoringService, sc *scoringContext, _ int64) (float64, bool, error) {
			return sc.weights.BasePoints, true, nil
		},
	},
	{
		reason: models.ReasonLong,
		eval: func(_ context.Context, _ *scoringService, sc *scoringContext, _ int64) (float64, bool, error) {
			return sc.weights.LongBonus, sc.visit.FlagLong && sc.weights.LongBonus > 0, nil
		},
	},
	{
		reason: models.ReasonUltraUnique,
		eval: func(_ context.Context, _ *scoringService, sc *scoringContext, _ int64) (float64, bool, error) {
			// Visit-level: same value for every participant.
			return sc.weights.UltraUniqueBonus, sc.ultraUnique && sc.weights.UltraUniqueBonus > 0, nil
		},
	},
	{
		reason: models.ReasonNewRegion,
		eval: func(ctx context.Context, s *scoringService, sc *scoringContext, userID int64) (float64, bool, error) {
			if sc.bath == nil || sc.bath.RegionID == nil || sc.weights.RegionBonus <= 0 {
				return 0, false, nil
			}
			prior, err := s.visits.CountSeasonVisitsInRegion(ctx, userID, sc.visit.ID, *sc.bath.RegionID, s.season)
			if err != nil {
				return 0, false, err
			}
			return sc.weights.RegionBonus, prior == 0, nil
		},
	},
	{
		reason: models.ReasonNewCountry,
		eval: func(ctx context.Context, s *scoringService, sc *scoringContext, userID int64) (float64, bool, error) {
			if sc.bath == nil || sc.bath.CountryID == nil || sc.weights.CountryBonus <= 0 {
				return 0, false, nil
			}
			prior, err := s.visits.CountSeasonVisitsInCountry(ctx, userID, sc.visit.ID, *sc.bath.CountryID, s.season)
			if err != nil {
				return 0, false, err
			}
			return sc.weights.CountryBonus, prior == 0, nil
		},
	},
}

// RecalculateVisit replaces the visit's full award set based on its
// current state. A missing visit surfaces as ErrNotFound; any other
// failure rolls the transaction back and surfaces as
// ErrRecalculationFailed with the prior awards intact.
func (s *scoringService) RecalculateVisit(ctx context.Context, visitID int64) error {
	err := s.db.InTx(ctx, func(ctx context.Context) error {
		return s.recalculate(ctx, visitID)
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		s.logger.Error("recalculation failed",
			zap.Int64("visit_id", visitID),
			zap.Error(err))
		return fmt.Errorf("visit %d: %w: %v", visitID, apperrors.ErrRecalculationFailed, err)
	}
	return nil
}

func (s *scoringService) recalculate(ctx context.Context, visitID int64) error {
	visit, err := s.visits.GetByID(ctx, visitID)
	if err != nil {
		return err
	}

	// Cancelled and disputed visits carry no awards, full stop.
	if !visit.Status.IsActive() {
		s.logger.Debug("clearing awards for inactive visit",
			zap.Int64("visit_id", visitID),
			zap.String("status", string(visit.Status)))
		return s.awards.DeleteByVisit(ctx, visitID)
	}

	// Replace, don't patch: the old set goes before rules are evaluated.
	if err := s.awards.DeleteByVisit(ctx, visitID); err != nil {
		return err
	}

	participants, err := s.visits.ListParticipantIDs(ctx, visitID)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		return nil
	}

	// Weights are read fresh every run so admin changes apply to the
	// next recalculation, never retroactively.
	weights, err := s.rules.Weights(ctx)
	if err != nil {
		return err
	}

	sc := &scoringContext{visit: visit, weights: weights}

	if visit.BathID != nil {
		bath, err := s.baths.GetByID(ctx, *visit.BathID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			// The bath was deleted out from under the visit. Score
			// bathless rather than failing the whole recalculation.
			s.logger.Warn("visit references missing bath",
				zap.Int64("visit_id", visitID),
				zap.Int64("bath_id", *visit.BathID))
		} else {
			sc.bath = bath
		}
	}

	if sc.bath != nil && weights.UltraUniqueBonus > 0 {
		sc.ultraUnique, err = s.isUltraUnique(ctx, visit, sc.bath.ID)
		if err != nil {
			return err
		}
	}

	var awards []*models.PointAward
	for _, userID := range participants {
		for _, rule := range scoringRules {
			value, fired, err := rule.eval(ctx, s, sc, userID)
			if err != nil {
				return err
			}
			if !fired {
				continue
			}
			awards = append(awards, &models.PointAward{
				UserID:  userID,
				VisitID: visitID,
				Points:  value,
				Reason:  rule.reason,
			})
		}
	}

	if err := s.awards.InsertBatch(ctx, awards); err != nil {
		return err
	}

	s.logger.Info("recalculated visit",
		zap.Int64("visit_id", visitID),
		zap.Int("participants", len(participants)),
		zap.Int("awards", len(awards)),
		zap.Bool("ultra_unique", sc.ultraUnique))

	return nil
}

// isUltraUnique decides whether the visit is the first-ever active
// visit to its bath since the cutoff, with same-day ties broken by
// creation order: a visit that is first by bathing date but loses the
// same-day creation race is not ultra-unique.
func (s *scoringService) isUltraUnique(ctx context.Context, visit *models.Visit, bathID int64) (bool, error) {
	earlier, err := s.visits.CountActiveToBathBefore(ctx, bathID, visit.ID, s.cutoff, visit.VisitedAt)
	if err != nil {
		return false, err
	}
	if earlier > 0 {
		return false, nil
	}

	dayStart := visit.VisitedAt.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)
	sameDay, err := s.visits.CountSameDayCreatedEarlier(ctx, bathID, visit.ID, dayStart, dayEnd, visit.CreatedAt)
	if err != nil {
		return false, err
	}

	return sameDay == 0, nil
}

// Ensure scoringService implements ScoringService at compile time.
var _ ScoringService = (*scoringService)(nil)
