//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banya-league/banya-engine/pkg/models"
)

func TestPointAwardRepository_ReplaceCycle(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	tc.createUser(2, "Olga")
	v := tc.createVisit(nil, models.VisitStatusConfirmed, time.Now().UTC(), 1, 2)

	require.NoError(t, tc.awards.InsertBatch(ctx, []*models.PointAward{
		{UserID: 1, VisitID: v.ID, Points: 1, Reason: models.ReasonBase},
		{UserID: 1, VisitID: v.ID, Points: 2, Reason: models.ReasonLong},
		{UserID: 2, VisitID: v.ID, Points: 1, Reason: models.ReasonBase},
	}))

	awards, err := tc.awards.ListByVisit(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, awards, 3)
	assert.Equal(t, int64(1), awards[0].UserID)
	assert.Equal(t, models.ReasonBase, awards[0].Reason)
	assert.False(t, awards[0].CreatedAt.IsZero())

	require.NoError(t, tc.awards.DeleteByVisit(ctx, v.ID))
	awards, err = tc.awards.ListByVisit(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, awards)

	// Deleting an empty set is fine.
	require.NoError(t, tc.awards.DeleteByVisit(ctx, v.ID))
	// So is inserting one.
	require.NoError(t, tc.awards.InsertBatch(ctx, nil))
}

func TestPointAwardRepository_SumByUser(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	v1 := tc.createVisit(nil, models.VisitStatusConfirmed, time.Now().UTC(), 1)
	v2 := tc.createVisit(nil, models.VisitStatusConfirmed, time.Now().UTC(), 1)

	require.NoError(t, tc.awards.InsertBatch(ctx, []*models.PointAward{
		{UserID: 1, VisitID: v1.ID, Points: 1.5, Reason: models.ReasonBase},
		{UserID: 1, VisitID: v2.ID, Points: 2, Reason: models.ReasonBase},
	}))

	sum, err := tc.awards.SumByUser(ctx, 1)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, sum, 1e-9)

	sum, err = tc.awards.SumByUser(ctx, 42)
	require.NoError(t, err)
	assert.Zero(t, sum)
}

func TestPointAwardRepository_CountActiveVisitsByUser(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	tc.createVisit(nil, models.VisitStatusConfirmed, time.Now().UTC(), 1)
	tc.createVisit(nil, models.VisitStatusPending, time.Now().UTC(), 1)
	tc.createVisit(nil, models.VisitStatusCancelled, time.Now().UTC(), 1)

	count, err := tc.awards.CountActiveVisitsByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPointAwardRepository_LeaderboardRows(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	tc.createUser(2, "Olga")
	inactive := tc.createUser(3, "Ghost")
	_, err := tc.db.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, inactive.ID)
	require.NoError(t, err)

	bathA := tc.createBath("Sanduny", nil, nil)
	bathB := tc.createBath("Rzhevskie", nil, nil)

	old := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

	v1 := tc.createVisit(&bathA.ID, models.VisitStatusConfirmed, old, 1, 2)
	v2 := tc.createVisit(&bathB.ID, models.VisitStatusConfirmed, recent, 1)
	cancelled := tc.createVisit(&bathA.ID, models.VisitStatusCancelled, recent, 2, 3)

	require.NoError(t, tc.awards.InsertBatch(ctx, []*models.PointAward{
		{UserID: 1, VisitID: v1.ID, Points: 1, Reason: models.ReasonBase},
		{UserID: 2, VisitID: v1.ID, Points: 1, Reason: models.ReasonBase},
		{UserID: 1, VisitID: v2.ID, Points: 3, Reason: models.ReasonBase},
		// Stale rows on an inactive visit must not surface.
		{UserID: 2, VisitID: cancelled.ID, Points: 5, Reason: models.ReasonBase},
		{UserID: 3, VisitID: cancelled.ID, Points: 5, Reason: models.ReasonBase},
	}))

	rows, err := tc.awards.LeaderboardRows(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, int64(1), rows[0].UserID)
	assert.InDelta(t, 4.0, rows[0].Points, 1e-9)
	assert.Equal(t, 2, rows[0].VisitCount)
	assert.Equal(t, 2, rows[0].BathCount)

	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, int64(2), rows[1].UserID)
	assert.InDelta(t, 1.0, rows[1].Points, 1e-9)

	// Period bound drops the older visit.
	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rows, err = tc.awards.LeaderboardRows(ctx, &since)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].UserID)
	assert.InDelta(t, 3.0, rows[0].Points, 1e-9)
	assert.Equal(t, 1, rows[0].VisitCount)
}
