package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// LeaderboardPeriod selects the time window a standing covers.
type LeaderboardPeriod string

const (
	PeriodWeek  LeaderboardPeriod = "week"
	PeriodMonth LeaderboardPeriod = "month"
	PeriodYear  LeaderboardPeriod = "year"
	PeriodAll   LeaderboardPeriod = "all"
)

// leaderboardCacheTTL bounds staleness between a recalculation and the
// standings readers see. The cache is best-effort; a Redis outage
// degrades to querying Postgres directly.
const leaderboardCacheTTL = 60 * time.Second

// LeaderboardService computes ranked standings over active visits.
type LeaderboardService interface {
	Standings(ctx context.Context, period LeaderboardPeriod) ([]*repositories.LeaderboardRow, error)
}

// leaderboardService implements LeaderboardService with an optional
// Redis cache in front of the aggregate query. A nil client disables
// caching entirely.
type leaderboardService struct {
	awards repositories.PointAwardRepository
	cache  *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewLeaderboardService creates a new leaderboard service. cache may be
// nil to disable caching.
func NewLeaderboardService(awards repositories.PointAwardRepository, cache *redis.Client, logger *zap.Logger) LeaderboardService {
	return &leaderboardService{
		awards: awards,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// periodStart returns the inclusive lower bound for the period, or nil
// for the all-time window.
func (s *leaderboardService) periodStart(period LeaderboardPeriod) (*time.Time, error) {
	now := s.now().UTC()
	var start time.Time

	switch period {
	case PeriodWeek:
		start = now.AddDate(0, 0, -7)
	case PeriodMonth:
		start = now.AddDate(0, -1, 0)
	case PeriodYear:
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	case PeriodAll, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("period %q: %w", period, apperrors.ErrInvalidPeriod)
	}

	return &start, nil
}

// Standings returns the ranked rows for the period, cache-aside.
func (s *leaderboardService) Standings(ctx context.Context, period LeaderboardPeriod) ([]*repositories.LeaderboardRow, error) {
	since, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("leaderboard:%s", period)
	if period == "" {
		cacheKey = "leaderboard:all"
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var rows []*repositories.LeaderboardRow
			if err := json.Unmarshal(cached, &rows); err == nil {
				return rows, nil
			}
			s.logger.Warn("discarding unreadable leaderboard cache entry", zap.String("key", cacheKey))
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}

	rows, err := s.awards.LeaderboardRows(ctx, since)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*repositories.LeaderboardRow{}
	}

	if s.cache != nil {
		payload, err := json.Marshal(rows)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, leaderboardCacheTTL).Err(); err != nil {
				s.logger.Warn("leaderboard cache write failed", zap.Error(err))
			}
		}
	}

	return rows, nil
}

// Ensure leaderboardService implements LeaderboardService at compile time.
var _ LeaderboardService = (*leaderboardService)(nil)
