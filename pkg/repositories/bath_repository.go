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

// BathFilter narrows bath listings.
type BathFilter struct {
	Query           string
	IncludeArchived bool
	Limit           int
	Offset          int
}

// BathUpdateParams carries a partial bath update; nil fields are untouched.
type BathUpdateParams struct {
	Name        *string  `json:"name"`
	Aliases     []string `json:"aliases"`
	CountryID   *int64   `json:"countryId"`
	RegionID    *int64   `json:"regionId"`
	City        *string  `json:"city"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	Description *string  `json:"description"`
	URL         *string  `json:"url"`
	IsArchived  *bool    `json:"isArchived"`
}

// BathRepository defines data access for baths and their geography.
type BathRepository interface {
	Create(ctx context.Context, bath *models.Bath) error
	GetByID(ctx context.Context, id int64) (*models.Bath, error)
	List(ctx context.Context, filter BathFilter) ([]*models.Bath, error)
	Update(ctx context.Context, id int64, params BathUpdateParams) error
	// RepointVisits moves every visit from one bath to another,
	// returning how many were moved.
	RepointVisits(ctx context.Context, fromBathID, toBathID int64) (int64, error)
	// MarkMerged archives the source bath and records the canonical target.
	MarkMerged(ctx context.Context, sourceID, targetID int64) error
	ListCountries(ctx context.Context) ([]*models.Country, error)
	ListRegions(ctx context.Context, countryID *int64) ([]*models.Region, error)
}

// bathRepository implements BathRepository using PostgreSQL.
type bathRepository struct {
	db *database.DB
}

// NewBathRepository creates a new bath repository.
func NewBathRepository(db *database.DB) BathRepository {
	return &bathRepository{db: db}
}

const bathColumns = `id, name, aliases, country_id, region_id, city, lat, lng, description, url, is_archived, canonical_id, created_at`

func scanBath(row pgx.Row) (*models.Bath, error) {
	var b models.Bath
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Aliases,
		&b.CountryID,
		&b.RegionID,
		&b.City,
		&b.Lat,
		&b.Lng,
		&b.Description,
		&b.URL,
		&b.IsArchived,
		&b.CanonicalID,
		&b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.Aliases == nil {
		b.Aliases = []string{}
	}
	return &b, nil
}

// Create inserts a bath and fills in its generated id.
func (r *bathRepository) Create(ctx context.Context, bath *models.Bath) error {
	q := r.db.Querier(ctx)

	bath.CreatedAt = time.Now().UTC()
	if bath.Aliases == nil {
		bath.Aliases = []string{}
	}

	query := `
		INSERT INTO baths (name, aliases, country_id, region_id, city, lat, lng, description, url, is_archived, canonical_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	err := q.QueryRow(ctx, query,
		bath.Name,
		bath.Aliases,
		bath.CountryID,
		bath.RegionID,
		bath.City,
		bath.Lat,
		bath.Lng,
		bath.Description,
		bath.URL,
		bath.IsArchived,
		bath.CanonicalID,
		bath.CreatedAt,
	).Scan(&bath.ID)
	if err != nil {
		return fmt.Errorf("failed to create bath: %w", err)
	}

	return nil
}

// GetByID retrieves a bath by id.
func (r *bathRepository) GetByID(ctx context.Context, id int64) (*models.Bath, error) {
	q := r.db.Querier(ctx)

	bath, err := scanBath(q.QueryRow(ctx, `SELECT `+bathColumns+` FROM baths WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bath %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bath: %w", err)
	}

	return bath, nil
}

// List returns baths matching the filter, ordered by name.
func (r *bathRepository) List(ctx context.Context, filter BathFilter) ([]*models.Bath, error) {
	q := r.db.Querier(ctx)

	query := `SELECT ` + bathColumns + ` FROM baths`
	var args []any
	var where []string

	if !filter.IncludeArchived {
		where = append(where, "NOT is_archived")
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}

	query += " ORDER BY name"

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
		return nil, fmt.Errorf("failed to list baths: %w", err)
	}
	defer rows.Close()

	var baths []*models.Bath
	for rows.Next() {
		bath, err := scanBath(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bath: %w", err)
		}
		baths = append(baths, bath)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating baths: %w", err)
	}

	return baths, nil
}

// Update applies a partial update to a bath.
func (r *bathRepository) Update(ctx context.Context, id int64, params BathUpdateParams) error {
	q := r.db.Querier(ctx)

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Aliases != nil {
		add("aliases", params.Aliases)
	}
	if params.CountryID != nil {
		add("country_id", *params.CountryID)
	}
	if params.RegionID != nil {
		add("region_id", *params.RegionID)
	}
	if params.City != nil {
		add("city", *params.City)
	}
	if params.Lat != nil {
		add("lat", *params.Lat)
	}
	if params.Lng != nil {
		add("lng", *params.Lng)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.URL != nil {
		add("url", *params.URL)
	}
	if params.IsArchived != nil {
		add("is_archived", *params.IsArchived)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE baths SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update bath: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bath %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// RepointVisits moves every visit from one bath to another.
func (r *bathRepository) RepointVisits(ctx context.Context, fromBathID, toBathID int64) (int64, error) {
	q := r.db.Querier(ctx)

	result, err := q.Exec(ctx, `UPDATE visits SET bath_id = $1 WHERE bath_id = $2`, toBathID, fromBathID)
	if err != nil {
		return 0, fmt.Errorf("failed to repoint visits: %w", err)
	}

	return result.RowsAffected(), nil
}

// MarkMerged archives the source bath and records the canonical target.
func (r *bathRepository) MarkMerged(ctx context.Context, sourceID, targetID int64) error {
	q := r.db.Querier(ctx)

	result, err := q.Exec(ctx,
		`UPDATE baths SET canonical_id = $1, is_archived = TRUE WHERE id = $2`,
		targetID, sourceID)
	if err != nil {
		return fmt.Errorf("failed to mark bath merged: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bath %d: %w", sourceID, apperrors.ErrNotFound)
	}

	return nil
}

// ListCountries returns all countries ordered by name.
func (r *bathRepository) ListCountries(ctx context.Context) ([]*models.Country, error) {
	q := r.db.Querier(ctx)

	rows, err := q.Query(ctx, `SELECT id, name, code FROM countries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list countries: %w", err)
	}
	defer rows.Close()

	var countries []*models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Name, &c.Code); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating countries: %w", err)
	}

	return countries, nil
}

// ListRegions returns regions, optionally restricted to one country.
func (r *bathRepository) ListRegions(ctx context.Context, countryID *int64) ([]*models.Region, error) {
	q := r.db.Querier(ctx)

	query := `SELECT id, country_id, name FROM regions`
	var args []any
	if countryID != nil {
		args = append(args, *countryID)
		query += " WHERE country_id = $1"
	}
	query += " ORDER BY name"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list regions: %w", err)
	}
	defer rows.Close()

	var regions []*models.Region
	for rows.Next() {
		var reg models.Region
		if err := rows.Scan(&reg.ID, &reg.CountryID, &reg.Name); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		regions = append(regions, &reg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regions: %w", err)
	}

	return regions, nil
}

// Ensure bathRepository implements BathRepository at compile time.
var _ BathRepository = (*bathRepository)(nil)
