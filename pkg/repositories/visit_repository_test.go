//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/models"
)

func TestVisitRepository_CreateAndGet(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	bath := tc.createBath("Sanduny", nil, nil)
	visitedAt := time.Date(2026, 2, 14, 18, 0, 0, 0, time.UTC)

	v := &models.Visit{
		BathID:    &bath.ID,
		MessageID: ptr(int64(100)),
		ChatID:    ptr(int64(-200)),
		Status:    models.VisitStatusConfirmed,
		VisitedAt: visitedAt,
		FlagLong:  true,
	}
	require.NoError(t, tc.visits.Create(ctx, v))
	assert.NotZero(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := tc.visits.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, bath.ID, *got.BathID)
	assert.Equal(t, models.VisitStatusConfirmed, got.Status)
	assert.True(t, got.FlagLong)
	assert.True(t, got.VisitedAt.Equal(visitedAt))
}

func TestVisitRepository_GetMissing(t *testing.T) {
	tc := setupRepoTest(t)

	_, err := tc.visits.GetByID(context.Background(), 99999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVisitRepository_GetByChatMessage(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	v := &models.Visit{
		MessageID: ptr(int64(42)),
		ChatID:    ptr(int64(-1001)),
		Status:    models.VisitStatusPending,
		VisitedAt: time.Now().UTC(),
	}
	require.NoError(t, tc.visits.Create(ctx, v))

	got, err := tc.visits.GetByChatMessage(ctx, -1001, 42)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = tc.visits.GetByChatMessage(ctx, -1001, 43)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVisitRepository_ListFilters(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(10, "Ivan")
	tc.createUser(20, "Olga")
	bath := tc.createBath("Varshavskie", nil, nil)
	other := tc.createBath("Rzhevskie", nil, nil)

	day := func(d int) time.Time { return time.Date(2026, 3, d, 19, 0, 0, 0, time.UTC) }
	v1 := tc.createVisit(&bath.ID, models.VisitStatusConfirmed, day(1), 10)
	v2 := tc.createVisit(&bath.ID, models.VisitStatusCancelled, day(2), 10, 20)
	v3 := tc.createVisit(&other.ID, models.VisitStatusConfirmed, day(3), 20)

	all, err := tc.visits.List(ctx, VisitFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest bathing date first.
	assert.Equal(t, v3.ID, all[0].ID)
	assert.Equal(t, v1.ID, all[2].ID)

	confirmed, err := tc.visits.List(ctx, VisitFilter{Status: models.VisitStatusConfirmed})
	require.NoError(t, err)
	assert.Len(t, confirmed, 2)

	byBath, err := tc.visits.List(ctx, VisitFilter{BathID: &bath.ID})
	require.NoError(t, err)
	assert.Len(t, byBath, 2)

	byUser, err := tc.visits.List(ctx, VisitFilter{UserID: ptr(int64(20))})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	ranged, err := tc.visits.List(ctx, VisitFilter{DateFrom: ptr(day(2)), DateTo: ptr(day(2))})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, v2.ID, ranged[0].ID)

	limited, err := tc.visits.List(ctx, VisitFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, v2.ID, limited[0].ID)
}

func TestVisitRepository_Updates(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	bath := tc.createBath("Usachevskie", nil, nil)
	v := tc.createVisit(nil, models.VisitStatusPending, time.Now().UTC())

	require.NoError(t, tc.visits.UpdateStatus(ctx, v.ID, models.VisitStatusConfirmed))
	require.NoError(t, tc.visits.UpdateBath(ctx, v.ID, bath.ID))
	require.NoError(t, tc.visits.UpdateFlagLong(ctx, v.ID, true))

	got, err := tc.visits.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitStatusConfirmed, got.Status)
	assert.Equal(t, bath.ID, *got.BathID)
	assert.True(t, got.FlagLong)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	assert.ErrorIs(t, tc.visits.UpdateStatus(ctx, 99999, models.VisitStatusConfirmed), apperrors.ErrNotFound)
	assert.ErrorIs(t, tc.visits.UpdateFlagLong(ctx, 99999, false), apperrors.ErrNotFound)
}

func TestVisitRepository_Participants(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	tc.createUser(2, "Olga")
	tc.createUser(3, "Petr")
	v := tc.createVisit(nil, models.VisitStatusPending, time.Now().UTC())

	// Duplicate ids in the input collapse.
	require.NoError(t, tc.visits.ReplaceParticipants(ctx, v.ID, []int64{2, 1, 2}))
	ids, err := tc.visits.ListParticipantIDs(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	require.NoError(t, tc.visits.ReplaceParticipants(ctx, v.ID, []int64{3}))
	ids, err = tc.visits.ListParticipantIDs(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids)

	require.NoError(t, tc.visits.ReplaceParticipants(ctx, v.ID, nil))
	ids, err = tc.visits.ListParticipantIDs(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestVisitRepository_DeleteCascades(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	v := tc.createVisit(nil, models.VisitStatusConfirmed, time.Now().UTC(), 1)
	require.NoError(t, tc.awards.InsertBatch(ctx, []*models.PointAward{
		{UserID: 1, VisitID: v.ID, Points: 1, Reason: models.ReasonBase},
	}))

	require.NoError(t, tc.visits.Delete(ctx, v.ID))

	_, err := tc.visits.GetByID(ctx, v.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	awards, err := tc.awards.ListByVisit(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, awards)
	ids, err := tc.visits.ListParticipantIDs(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, tc.visits.Delete(ctx, v.ID), apperrors.ErrNotFound)
}

func TestVisitRepository_CountActiveToBathBefore(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	bath := tc.createBath("Neptun", nil, nil)
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	day := func(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC) }

	// Before the cutoff: never counted.
	tc.createVisit(&bath.ID, models.VisitStatusConfirmed, day(2022, 6, 1))
	// Cancelled: not active, not counted.
	tc.createVisit(&bath.ID, models.VisitStatusCancelled, day(2025, 6, 1))
	// Active and in window: counted.
	tc.createVisit(&bath.ID, models.VisitStatusConfirmed, day(2025, 7, 1))
	// The visit being scored.
	subject := tc.createVisit(&bath.ID, models.VisitStatusPending, day(2026, 1, 10))

	count, err := tc.visits.CountActiveToBathBefore(ctx, bath.ID, subject.ID, cutoff, subject.VisitedAt)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// With an empty history window the subject is first.
	count, err = tc.visits.CountActiveToBathBefore(ctx, bath.ID, subject.ID, cutoff, day(2025, 6, 30))
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestVisitRepository_CountSameDayCreatedEarlier(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	bath := tc.createBath("Neptun", nil, nil)
	visitedAt := time.Date(2026, 4, 5, 20, 0, 0, 0, time.UTC)
	dayStart := visitedAt.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	earlier := tc.createVisit(&bath.ID, models.VisitStatusConfirmed, visitedAt.Add(-2*time.Hour))
	subject := tc.createVisit(&bath.ID, models.VisitStatusPending, visitedAt)

	// Reported order decides the tie, not bathing time.
	setCreatedAt := func(id int64, at time.Time) {
		_, err := tc.db.Exec(ctx, `UPDATE visits SET created_at = $1 WHERE id = $2`, at, id)
		require.NoError(t, err)
	}
	setCreatedAt(earlier.ID, time.Date(2026, 4, 5, 21, 0, 0, 0, time.UTC))
	setCreatedAt(subject.ID, time.Date(2026, 4, 5, 20, 30, 0, 0, time.UTC))

	count, err := tc.visits.CountSameDayCreatedEarlier(ctx, bath.ID, subject.ID, dayStart, dayEnd,
		time.Date(2026, 4, 5, 20, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = tc.visits.CountSameDayCreatedEarlier(ctx, bath.ID, earlier.ID, dayStart, dayEnd,
		time.Date(2026, 4, 5, 21, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestVisitRepository_CountSeasonVisits(t *testing.T) {
	tc := setupRepoTest(t)
	ctx := context.Background()

	tc.createUser(1, "Ivan")
	countryID := tc.createCountry("Russia")
	regionID := tc.createRegion(countryID, "Moscow")
	bath := tc.createBath("Sanduny", &countryID, &regionID)

	// Prior season: out of scope.
	tc.createVisit(&bath.ID, models.VisitStatusConfirmed, time.Date(2025, 12, 30, 12, 0, 0, 0, time.UTC), 1)
	// Cancelled in season: not active.
	tc.createVisit(&bath.ID, models.VisitStatusCancelled, time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC), 1)
	subject := tc.createVisit(&bath.ID, models.VisitStatusPending, time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC), 1)

	count, err := tc.visits.CountSeasonVisitsInRegion(ctx, 1, subject.ID, regionID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = tc.visits.CountSeasonVisitsInCountry(ctx, 1, subject.ID, countryID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// A confirmed in-season visit blocks both bonuses.
	tc.createVisit(&bath.ID, models.VisitStatusConfirmed, time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC), 1)

	count, err = tc.visits.CountSeasonVisitsInRegion(ctx, 1, subject.ID, regionID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = tc.visits.CountSeasonVisitsInCountry(ctx, 1, subject.ID, countryID, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
