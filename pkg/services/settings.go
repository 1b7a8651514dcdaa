package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/banya-league/banya-engine/pkg/apperrors"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
)

// SettingsService exposes the rule weight store to administrators.
// Changes apply to the next recalculation of any visit, never
// retroactively to visits nobody touches.
type SettingsService interface {
	// GetAll returns every rule weight, filling in the default for keys
	// with no stored row so the admin UI always shows the full set.
	GetAll(ctx context.Context) ([]*models.RuleConfig, error)
	Update(ctx context.Context, key string, value float64, description string) error
}

// settingsService implements SettingsService.
type settingsService struct {
	rules  repositories.RuleConfigRepository
	logger *zap.Logger
}

// NewSettingsService creates a new settings service.
func NewSettingsService(rules repositories.RuleConfigRepository, logger *zap.Logger) SettingsService {
	return &settingsService{rules: rules, logger: logger}
}

// GetAll returns the full weight set, defaults included.
func (s *settingsService) GetAll(ctx context.Context) ([]*models.RuleConfig, error) {
	stored, err := s.rules.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byKey := make(map[string]*models.RuleConfig, len(stored))
	for _, c := range stored {
		byKey[c.Key] = c
	}

	out := make([]*models.RuleConfig, 0, len(models.RuleConfigKeys))
	for _, key := range models.RuleConfigKeys {
		if c, ok := byKey[key]; ok {
			out = append(out, c)
			continue
		}
		out = append(out, &models.RuleConfig{Key: key, Value: models.DefaultRuleValue})
	}

	return out, nil
}

// Update stores a new weight for a recognized key.
func (s *settingsService) Update(ctx context.Context, key string, value float64, description string) error {
	if !models.IsValidRuleConfigKey(key) {
		return fmt.Errorf("key %q: %w", key, apperrors.ErrInvalidConfigKey)
	}
	if value < 0 {
		return fmt.Errorf("key %q: weight must not be negative", key)
	}

	if err := s.rules.Upsert(ctx, key, value, description); err != nil {
		return err
	}

	s.logger.Info("rule weight updated",
		zap.String("key", key),
		zap.Float64("value", value))

	return nil
}

// Ensure settingsService implements SettingsService at compile time.
var _ SettingsService = (*settingsService)(nil)
