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

// UserWithPoints is a user row annotated with their lifetime point total.
type UserWithPoints struct {
	models.User
	Points float64 `json:"points"`
}

// UserUpdateParams carries a partial user update; nil fields are untouched.
type UserUpdateParams struct {
	FullName *string `json:"fullName"`
	IsAdmin  *bool   `json:"isAdmin"`
	IsActive *bool   `json:"isActive"`
}

// UserRepository defines data access for users.
type UserRepository interface {
	// Upsert inserts the user or refreshes their username/full name,
	// matching the chat ingestion get-or-create semantics.
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*UserWithPoints, error)
	Update(ctx context.Context, id int64, params UserUpdateParams) error
	// FirstAdmin returns an arbitrary admin user, for password login.
	FirstAdmin(ctx context.Context) (*models.User, error)
}

// userRepository implements UserRepository using PostgreSQL.
type userRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, full_name, is_admin, is_active, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.IsAdmin, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert inserts the user or refreshes their username/full name.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) error {
	q := r.db.Querier(ctx)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (id, username, full_name, is_admin, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    full_name = CASE WHEN EXCLUDED.full_name = '' THEN users.full_name ELSE EXCLUDED.full_name END`

	_, err := q.Exec(ctx, query,
		user.ID,
		user.Username,
		user.FullName,
		user.IsAdmin,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	q := r.db.Querier(ctx)

	user, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// List returns all users with their lifetime point totals.
func (r *userRepository) List(ctx context.Context) ([]*UserWithPoints, error) {
	q := r.db.Querier(ctx)

	query := `
		SELECT u.id, u.username, u.full_name, u.is_admin, u.is_active, u.created_at,
		       COALESCE(SUM(pa.points), 0) AS points
		FROM users u
		LEFT JOIN point_awards pa ON pa.user_id = u.id
		GROUP BY u.id
		ORDER BY u.full_name, u.id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*UserWithPoints
	for rows.Next() {
		var u UserWithPoints
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.IsAdmin, &u.IsActive, &u.CreatedAt, &u.Points); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Update applies a partial update to a user.
func (r *userRepository) Update(ctx context.Context, id int64, params UserUpdateParams) error {
	q := r.db.Querier(ctx)

	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.FullName != nil {
		add("full_name", *params.FullName)
	}
	if params.IsAdmin != nil {
		add("is_admin", *params.IsAdmin)
	}
	if params.IsActive != nil {
		add("is_active", *params.IsActive)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE users SET "
	for i, set := range sets {
		if i > 0 {
			query += ", "
		}
		query += set
	}
	query += fmt.Sprintf(" WHERE id = $%d", len(args))

	result, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// FirstAdmin returns an arbitrary admin user.
func (r *userRepository) FirstAdmin(ctx context.Context) (*models.User, error) {
	q := r.db.Querier(ctx)

	user, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE is_admin ORDER BY id LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("admin user: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get admin user: %w", err)
	}

	return user, nil
}

// Ensure userRepository implements UserRepository at compile time.
var _ UserRepository = (*userRepository)(nil)
