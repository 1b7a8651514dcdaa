package repositories

import (
	"context"
	"fmt"

	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/models"
)

// RuleConfigRepository defines data access for rule weights.
type RuleConfigRepository interface {
	GetAll(ctx context.Context) ([]*models.RuleConfig, error)
	// Weights resolves the full weight set, falling back to the
	// hardcoded default for any missing key.
	Weights(ctx context.Context) (models.RuleWeights, error)
	Upsert(ctx context.Context, key string, value float64, description string) error
}

// ruleConfigRepository implements RuleConfigRepository using PostgreSQL.
type ruleConfigRepository struct {
	db *database.DB
}

// NewRuleConfigRepository creates a new rule config repository.
func NewRuleConfigRepository(db *database.DB) RuleConfigRepository {
	return &ruleConfigRepository{db: db}
}

// GetAll returns every stored rule weight.
func (r *ruleConfigRepository) GetAll(ctx context.Context) ([]*models.RuleConfig, error) {
	q := r.db.Querier(ctx)

	rows, err := q.Query(ctx, `SELECT key, value, description FROM rule_config ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule config: %w", err)
	}
	defer rows.Close()

	var configs []*models.RuleConfig
	for rows.Next() {
		var c models.RuleConfig
		if err := rows.Scan(&c.Key, &c.Value, &c.Description); err != nil {
			return nil, fmt.Errorf("failed to scan rule config: %w", err)
		}
		configs = append(configs, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rule config: %w", err)
	}

	return configs, nil
}

// Weights resolves the stored weights over the defaults.
func (r *ruleConfigRepository) Weights(ctx context.Context) (models.RuleWeights, error) {
	configs, err := r.GetAll(ctx)
	if err != nil {
		return models.RuleWeights{}, err
	}

	weights := models.DefaultRuleWeights()
	for _, c := range configs {
		switch c.Key {
		case models.ConfigKeyBasePoints:
			weights.BasePoints = c.Value
		case models.ConfigKeyLongBonus:
			weights.LongBonus = c.Value
		case models.ConfigKeyRegionBonus:
			weights.RegionBonus = c.Value
		case models.ConfigKeyCountryBonus:
			weights.CountryBonus = c.Value
		case models.ConfigKeyUltraUniqueBonus:
			weights.UltraUniqueBonus = c.Value
		}
	}

	return weights, nil
}

// Upsert stores a rule weight, keeping an existing description when the
// new one is empty.
func (r *ruleConfigRepository) Upsert(ctx context.Context, key string, value float64, description string) error {
	q := r.db.Querier(ctx)

	query := `
		INSERT INTO rule_config (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    description = CASE WHEN EXCLUDED.description = '' THEN rule_config.description ELSE EXCLUDED.description END`

	if _, err := q.Exec(ctx, query, key, value, description); err != nil {
		return fmt.Errorf("failed to upsert rule config %s: %w", key, err)
	}

	return nil
}

// Ensure ruleConfigRepository implements RuleConfigRepository at compile time.
var _ RuleConfigRepository = (*ruleConfigRepository)(nil)
