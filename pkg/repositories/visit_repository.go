package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/models"
)

// VisitFilter narrows List results. Zero values mean "no filter".
type VisitFilter struct {
	Status   models.VisitStatus
	BathID   *int64
	UserID   *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}

// VisitRepository defines data access for visits and their participant
// sets, including the cross-visit eligibility queries the scoring
// engine reads. Each eligibility check is a specific named query, not a
// relationship walk.
type VisitRepository interface {
	Create(ctx context.Context, visit *models.Visit) error
	GetByID(ctx context.Context, id int64) (*models.Visit, error)
	GetByChatMessage(ctx context.Context, chatID, messageID int64) (*models.Visit, error)
	List(ctx context.Context, filter VisitFilter) ([]*models.Visit, error)
	UpdateStatus(ctx context.Context, id int64, status models.VisitStatus) error
	UpdateBath(ctx context.Context, id, bathID int64) error
	UpdateFlagLong(ctx context.Context, id int64, value bool) error
	Delete(ctx context.Context, id int64) error

	// Participant set. ReplaceParticipants is a full set-replace
	// (delete-all-then-insert); duplicate ids in the input collapse.
	ReplaceParticipants(ctx context.Context, visitID int64, userIDs []int64) error
	ListParticipantIDs(ctx context.Context, visitID int64) ([]int64, error)

	// CountActiveToBathBefore counts active visits to the bath with
	// visited_at in [cutoff, before), excluding excludeVisitID.
	CountActiveToBathBefore(ctx context.Context, bathID, excludeVisitID int64, cutoff, before time.Time) (int, error)
	// CountSameDayCreatedEarlier counts active visits to the bath with
	// visited_at in [dayStart, dayEnd) that were reported before
	// createdBefore, excluding excludeVisitID.
	CountSameDayCreatedEarlier(ctx context.Context, bathID, excludeVisitID int64, dayStart, dayEnd, createdBefore time.Time) (int, error)
	// CountSeasonVisitsInRegion counts the user's other active visits to
	// baths in the region during the season year.
	CountSeasonVisitsInRegion(ctx context.Context, userID, excludeVisitID, regionID int64, seasonYear int) (int, error)
	// CountSeasonVisitsInCountry is CountSeasonVisitsInRegion keyed on country.
	CountSeasonVisitsInCountry(ctx context.Context, userID, excludeVisitID, countryID int64, seasonYear int) (int, error)
}

// visitRepository implements VisitRepository using PostgreSQL.
type visitRepository struct {
	db *database.DB
}

// NewVisitRepository creates a new visit repository.
func NewVisitRepository(db *database.DB) VisitRepository {
	return &visitRepository{db: db}
}

// activeStatuses is the parameter form of models.ActiveVisitStatuses.
var activeStatuses = func() []string {
	out := make([]string, len(models.ActiveVisitStatuses))
	for i, s := range models.ActiveVisitStatuses {
		out[i] = string(s)
	}
	return out
}()

const visitColumns = `id, bath_id, created_by, message_id, chat_id, status, visited_at, flag_long, flag_ultraunique, created_at, updated_at`

func scanVisit(row pgx.Row) (*models.Visit, error) {
	var v models.Visit
	err := row.Scan(
		&v.ID,
		&v.BathID,
		&v.CreatedBy,
		&v.MessageID,
		&v.ChatID,
		&v.Status,
		&v.VisitedAt,
		&v.FlagLong,
		&v.FlagUltraUnique,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts a visit and fills in its generated id and timestamps.
func (r *visitRepository) Create(ctx context.Context, visit *models.Visit) error {
	q := r.db.Querier(ctx)

	now := time.Now().UTC()
	visit.CreatedAt = now
	visit.UpdatedAt = now
	if visit.VisitedAt.IsZero() {
		visit.VisitedAt = now
	}

	query := `
		INSERT INTO visits (bath_id, created_by, message_id, chat_id, status, visited_at, flag_long, flag_ultraunique, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := q.QueryRow(ctx, query,
		visit.BathID,
		visit.CreatedBy,
		visit.MessageID,
		visit.ChatID,
		visit.Status,
		visit.VisitedAt,
		visit.FlagLong,
		visit.FlagUltraUnique,
		visit.CreatedAt,
		visit.UpdatedAt,
	).Scan(&visit.ID)
	if err != nil {
		return fmt.Errorf("failed to create visit: %w", err)
	}

	return nil
}

// GetByID retrieves a visit by id.
func (r *visitRepository) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	visit, err := scanVisit(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("visit %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get visit: %w", err)
	}

	return visit, nil
}

// GetByChatMessage retrieves the visit created from a given chat
// message, for ingestion dedup.
func (r *visitRepository) GetByChatMessage(ctx context.Context, chatID, messageID int64) (*models.Visit, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + visitColumns + ` FROM visits WHERE chat_id = $1 AND message_id = $2`

	visit, err := scanVisit(q.QueryRow(ctx, query, chatID, messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("visit for chat %d message %d: %w", chatID, messageID, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get visit by chat message: %w", err)
	}

	return visit, nil
}

// List returns visits matching the filter, newest bathing date first.
func (r *visitRepository) List(ctx context.Context, filter VisitFilter) ([]*models.Visit, error) {
	q := r.db.Querier(ctx)

	query := `SELECT DISTINCT v.id, v.bath_id, v.created_by, v.message_id, v.chat_id, v.status, v.visited_at, v.flag_long, v.flag_ultraunique, v.created_at, v.updated_at FROM visits v`
	var args []any
	var where []string

	if filter.UserID != nil {
		query += ` JOIN visit_participants vp ON vp.visit_id = v.id`
		args = append(args, *filter.UserID)
		where = append(where, fmt.Sprintf("vp.user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("v.status = $%d", len(args)))
	}
	if filter.BathID != nil {
		args = append(args, *filter.BathID)
		where = append(where, fmt.Sprintf("v.bath_id = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where = append(where, fmt.Sprintf("v.visited_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where = append(where, fmt.Sprintf("v.visited_at <= $%d", len(args)))
	}

	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY v.visited_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}
	defer rows.Close()

	var visits []*models.Visit
	for rows.Next() {
		visit, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan visit: %w", err)
		}
		visits = append(visits, visit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating visits: %w", err)
	}

	return visits, nil
}

// UpdateStatus sets the visit's status.
func (r *visitRepository) UpdateStatus(ctx context.Context, id int64, status models.VisitStatus) error {
	return r.update(ctx, id, `status = $1`, string(status))
}

// UpdateBath reassigns the visit to another bath.
func (r *visitRepository) UpdateBath(ctx context.Context, id, bathID int64) error {
	return r.update(ctx, id, `bath_id = $1`, bathID)
}

// UpdateFlagLong toggles the long-visit flag.
func (r *visitRepository) UpdateFlagLong(ctx context.Context, id int64, value bool) error {
	return r.update(ctx, id, `flag_long = $1`, value)
}

func (r *visitRepository) update(ctx context.Context, id int64, set string, value any) error {
	q := r.db.Querier(ctx)

	query := fmt.Sprintf(`UPDATE visits SET %s, updated_at = $2 WHERE id = $3`, set)

	result, err := q.Exec(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update visit: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("visit %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// Delete removes a visit. Participant and award rows cascade.
func (r *visitRepository) Delete(ctx context.Context, id int64) error {
	q := r.db.Querier(ctx)

	result, err := q.Exec(ctx, `DELETE FROM visits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete visit: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("visit %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// ReplaceParticipants replaces the visit's participant set.
func (r *visitRepository) ReplaceParticipants(ctx context.Context, visitID int64, userIDs []int64) error {
	q := r.db.Querier(ctx)

	if _, err := q.Exec(ctx, `DELETE FROM visit_participants WHERE visit_id = $1`, visitID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}

	seen := make(map[int64]bool, len(userIDs))
	batch := &pgx.Batch{}
	for _, uid := range userIDs {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		batch.Queue(`INSERT INTO visit_participants (visit_id, user_id) VALUES ($1, $2)`, visitID, uid)
	}
	if batch.Len() == 0 {
		return nil
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	return nil
}

// ListParticipantIDs returns the user ids credited for the visit.
func (r *visitRepository) ListParticipantIDs(ctx context.Context, visitID int64) ([]int64, error) {
	q := r.db.Querier(ctx)

	rows, err := q.Query(ctx, `SELECT user_id FROM visit_participants WHERE visit_id = $1 ORDER BY user_id`, visitID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return ids, nil
}

// CountActiveToBathBefore counts active visits to the bath with
// visited_at in [cutoff, before), excluding excludeVisitID.
func (r *visitRepository) CountActiveToBathBefore(ctx context.Context, bathID, excludeVisitID int64, cutoff, before time.Time) (int, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT COUNT(*) FROM visits
		WHERE bath_id = $1
		  AND id <> $2
		  AND status = ANY($3)
		  AND visited_at >= $4
		  AND visited_at < $5`

	var count int
	err := q.QueryRow(ctx, query, bathID, excludeVisitID, activeStatuses, cutoff, before).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count earlier visits to bath: %w", err)
	}

	return count, nil
}

// CountSameDayCreatedEarlier counts active visits to the bath on the
// same calendar day that were reported before createdBefore.
func (r *visitRepository) CountSameDayCreatedEarlier(ctx context.Context, bathID, excludeVisitID int64, dayStart, dayEnd, createdBefore time.Time) (int, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT COUNT(*) FROM visits
		WHERE bath_id = $1
		  AND id <> $2
		  AND status = ANY($3)
		  AND visited_at >= $4
		  AND visited_at < $5
		  AND created_at < $6`

	var count int
	err := q.QueryRow(ctx, query, bathID, excludeVisitID, activeStatuses, dayStart, dayEnd, createdBefore).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count same-day visits to bath: %w", err)
	}

	return count, nil
}

// CountSeasonVisitsInRegion counts the user's other active visits to
// baths in the region during the season year.
func (r *visitRepository) CountSeasonVisitsInRegion(ctx context.Context, userID, excludeVisitID, regionID int64, seasonYear int) (int, error) {
	return r.countSeasonVisits(ctx, `b.region_id`, userID, excludeVisitID, regionID, seasonYear)
}

// CountSeasonVisitsInCountry counts the user's other active visits to
// baths in the country during the season year.
func (r *visitRepository) CountSeasonVisitsInCountry(ctx context.Context, userID, excludeVisitID, countryID int64, seasonYear int) (int, error) {
	return r.countSeasonVisits(ctx, `b.country_id`, userID, excludeVisitID, countryID, seasonYear)
}

func (r *visitRepository) countSeasonVisits(ctx context.Context, column string, userID, excludeVisitID, placeID int64, seasonYear int) (int, error) {
	q := r.db.Querier(ctx)

	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM visits v
		JOIN visit_participants vp ON vp.visit_id = v.id
		JOIN baths b ON b.id = v.bath_id
		WHERE vp.user_id = $1
		  AND v.id <> $2
		  AND %s = $3
		  AND v.status = ANY($4)
		  AND EXTRACT(YEAR FROM v.visited_at) = $5`, column)

	var count int
	err := q.QueryRow(ctx, query, userID, excludeVisitID, placeID, activeStatuses, seasonYear).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count season visits: %w", err)
	}

	return count, nil
}

// Ensure visitRepository implements VisitRepository at compile time.
var _ VisitRepository = (*visitRepository)(nil)
