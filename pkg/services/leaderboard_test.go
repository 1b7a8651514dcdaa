package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// recordingAwardRepo captures the since bound Standings resolves.
type recordingAwardRepo struct {
	fakeAwardRepo
	lastSince *time.Time
	rows      []*repositories.LeaderboardRow
}

func (r *recordingAwardRepo) LeaderboardRows(_ context.Context, since *time.Time) ([]*repositories.LeaderboardRow, error) {
	r.lastSince = since
	return r.rows, nil
}

func TestLeaderboardService_InvalidPeriod(t *testing.T) {
	repo := &recordingAwardRepo{fakeAwardRepo: fakeAwardRepo{store: newFakeStore()}}
	svc := NewLeaderboardService(repo, nil, zap.NewNop())

	_, err := svc.Standings(context.Background(), "quarter")

	assert.ErrorIs(t, err, apperrors.ErrInvalidPeriod)
}

func TestLeaderboardService_PeriodBounds(t *testing.T) {
	repo := &recordingAwardRepo{fakeAwardRepo: fakeAwardRepo{store: newFakeStore()}}
	svc := NewLeaderboardService(repo, nil, zap.NewNop()).(*leaderboardService)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.Standings(context.Background(), PeriodAll)
	require.NoError(t, err)
	assert.Nil(t, repo.lastSince)

	_, err = svc.Standings(context.Background(), PeriodWeek)
	require.NoError(t, err)
	require.NotNil(t, repo.lastSince)
	assert.Equal(t, now.AddDate(0, 0, -7), *repo.lastSince)

	_, err = svc.Standings(context.Background(), PeriodMonth)
	require.NoError(t, err)
	require.NotNil(t, repo.lastSince)
	assert.Equal(t, now.AddDate(0, -1, 0), *repo.lastSince)

	_, err = svc.Standings(context.Background(), PeriodYear)
	require.NoError(t, err)
	require.NotNil(t, repo.lastSince)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *repo.lastSince)
}

func TestLeaderboardService_EmptyStandingsNotNil(t *testing.T) {
	repo := &recordingAwardRepo{fakeAwardRepo: fakeAwardRepo{store: newFakeStore()}}
	svc := NewLeaderboardService(repo, nil, zap.NewNop())

	rows, err := svc.Standings(context.Background(), PeriodAll)

	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
