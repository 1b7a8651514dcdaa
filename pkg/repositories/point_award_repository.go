package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/models"
)

// LeaderboardRow is one user's aggregate standing over active visits.
type LeaderboardRow struct {
	Rank       int     `json:"rank"`
	UserID     int64   `json:"userId"`
	FullName   string  `json:"fullName"`
	Username   *string `json:"username"`
	Points     float64 `json:"points"`
	VisitCount int     `json:"visitCount"`
	BathCount  int     `json:"bathCount"`
}

// PointAwardRepository defines data access for award rows. Writes go
// through DeleteByVisit followed by InsertBatch — the scoring engine's
// replace-don't-patch contract.
type PointAwardRepository interface {
	DeleteByVisit(ctx context.Context, visitID int64) error
	InsertBatch(ctx context.Context, awards []*models.PointAward) error
	ListByVisit(ctx context.Context, visitID int64) ([]*models.PointAward, error)
	SumByUser(ctx context.Context, userID int64) (float64, error)
	CountActiveVisitsByUser(ctx context.Context, userID int64) (int, error)
	// LeaderboardRows aggregates per-user totals over active visits,
	// optionally restricted to visits on/after since.
	LeaderboardRows(ctx context.Context, since *time.Time) ([]*LeaderboardRow, error)
}

// pointAwardRepository implements PointAwardRepository using PostgreSQL.
type pointAwardRepository struct {
	db *database.DB
}

// NewPointAwardRepository creates a new point award repository.
func NewPointAwardRepository(db *database.DB) PointAwardRepository {
	return &pointAwardRepository{db: db}
}

// DeleteByVisit removes every award row belonging to the visit.
func (r *pointAwardRepository) DeleteByVisit(ctx context.Context, visitID int64) error {
	q := r.db.Querier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM point_awards WHERE visit_id = $1`, visitID); err != nil {
		return fmt.Errorf("failed to delete awards for visit %d: %w", visitID, err)
	}

	return nil
}

// InsertBatch persists newly computed awards in one batch.
func (r *pointAwardRepository) InsertBatch(ctx context.Context, awards []*models.PointAward) error {
	if len(awards) == 0 {
		return nil
	}

	q := r.db.Querier(ctx)

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, a := range awards {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		batch.Queue(
			`INSERT INTO point_awards (user_id, visit_id, points, reason, created_at) VALUES ($1, $2, $3, $4, $5)`,
			a.UserID, a.VisitID, a.Points, a.Reason, a.CreatedAt,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert award: %w", err)
		}
	}

	return nil
}

// ListByVisit returns the visit's award rows.
func (r *pointAwardRepository) ListByVisit(ctx context.Context, visitID int64) ([]*models.PointAward, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT id, user_id, visit_id, points, reason, created_at
		FROM point_awards
		WHERE visit_id = $1
		ORDER BY user_id, id`

	rows, err := q.Query(ctx, query, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list awards: %w", err)
	}
	defer rows.Close()

	var awards []*models.PointAward
	for rows.Next() {
		var a models.PointAward
		if err := rows.Scan(&a.ID, &a.UserID, &a.VisitID, &a.Points, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		awards = append(awards, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating awards: %w", err)
	}

	return awards, nil
}

// SumByUser returns the user's lifetime point total.
func (r *pointAwardRepository) SumByUser(ctx context.Context, userID int64) (float64, error) {
	q := r.db.Querier(ctx)

	var sum float64
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(points), 0) FROM point_awards WHERE user_id = $1`, userID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum points: %w", err)
	}

	return sum, nil
}

// CountActiveVisitsByUser counts the user's participations in active visits.
func (r *pointAwardRepository) CountActiveVisitsByUser(ctx context.Context, userID int64) (int, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT COUNT(*) FROM visit_participants vp
		JOIN visits v ON v.id = vp.visit_id
		WHERE vp.user_id = $1 AND v.status = ANY($2)`

	var count int
	if err := q.QueryRow(ctx, query, userID, activeStatuses).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}

	return count, nil
}

// LeaderboardRows aggregates per-user totals over active visits.
func (r *pointAwardRepository) LeaderboardRows(ctx context.Context, since *time.Time) ([]*LeaderboardRow, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT u.id, u.full_name, u.username,
		       COALESCE(SUM(pa.points), 0) AS total_points,
		       COUNT(DISTINCT vp.visit_id) AS visit_count,
		       COUNT(DISTINCT b.id) AS bath_count
		FROM users u
		JOIN point_awards pa ON pa.user_id = u.id
		JOIN visit_participants vp ON vp.user_id = u.id
		JOIN visits v ON v.id = vp.visit_id AND v.id = pa.visit_id
		LEFT JOIN baths b ON b.id = v.bath_id
		WHERE u.is_active AND v.status = ANY($1)`

	args := []any{activeStatuses}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND v.visited_at >= $%d", len(args))
	}

	query += `
		GROUP BY u.id, u.full_name, u.username
		ORDER BY total_points DESC, u.id`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []*LeaderboardRow
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.UserID, &row.FullName, &row.Username, &row.Points, &row.VisitCount, &row.BathCount); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		row.Rank = len(out) + 1
		out = append(out, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return out, nil
}

// Ensure pointAwardRepository implements PointAwardRepository at compile time.
var _ PointAwardRepository = (*pointAwardRepository)(nil)
