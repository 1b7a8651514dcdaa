//go:build integration

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
	"github.com/banya-league/banya-engine/pkg/testhelpers"
)

// rejectingAwardRepo is the real repository with its batch insert
// replaced by a hard failure, simulating a write error in the middle of
// a recalculation.
type rejectingAwardRepo struct {
	repositories.PointAwardRepository
}

func (rejectingAwardRepo) InsertBatch(context.Context, []*models.PointAward) error {
	return errors.New("insert rejected")
}

func TestScoringService_FailedRecalculationRollsBack(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := context.Background()
	db := testDB.DB

	_, err := db.Exec(ctx,
		`TRUNCATE point_awards, visit_participants, visits, baths, regions, countries, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	users := repositories.NewUserRepository(db)
	visits := repositories.NewVisitRepository(db)
	awards := repositories.NewPointAwardRepository(db)
	baths := repositories.NewBathRepository(db)
	rules := repositories.NewRuleConfigRepository(db)

	require.NoError(t, users.Upsert(ctx, &models.User{ID: 7, FullName: "Ivan", IsActive: true}))
	v := &models.Visit{Status: models.VisitStatusConfirmed, VisitedAt: time.Now().UTC()}
	require.NoError(t, visits.Create(ctx, v))
	require.NoError(t, visits.ReplaceParticipants(ctx, v.ID, []int64{7}))

	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	healthy := NewScoringService(db, visits, awards, baths, rules, 2026, cutoff, zap.NewNop())
	require.NoError(t, healthy.RecalculateVisit(ctx, v.ID))

	before, err := awards.ListByVisit(ctx, v.ID)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	broken := NewScoringService(db, visits, rejectingAwardRepo{awards}, baths, rules, 2026, cutoff, zap.NewNop())
	err = broken.RecalculateVisit(ctx, v.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrRecalculationFailed)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)

	// The award delete that preceded the failed insert rolled back
	// with it, so the visit keeps its previous awards.
	after, err := awards.ListByVisit(ctx, v.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, before, after)
}
