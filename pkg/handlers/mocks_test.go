package handlers

import (
	"context"

	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/repositories"
	"github.com/banya-league/banya-engine/pkg/services"
)

// mockVisitService implements services.VisitService with overridable funcs.
type mockVisitService struct {
	createFunc          func(ctx context.Context, params services.CreateVisitParams) (*models.Visit, error)
	getFunc             func(ctx context.Context, id int64) (*services.VisitDetail, error)
	listFunc            func(ctx context.Context, filter repositories.VisitFilter) ([]*models.Visit, error)
	setStatusFunc       func(ctx context.Context, id int64, status string) error
	assignBathFunc      func(ctx context.Context, id, bathID int64) error
	setLongFlagFunc     func(ctx context.Context, id int64, value bool) error
	setParticipantsFunc func(ctx context.Context, id int64, userIDs []int64) error
	deleteFunc          func(ctx context.Context, id int64) error
}

func (m *mockVisitService) Create(ctx context.Context, params services.CreateVisitParams) (*models.Visit, error) {
	return m.createFunc(ctx, params)
}

func (m *mockVisitService) Get(ctx context.Context, id int64) (*services.VisitDetail, error) {
	return m.getFunc(ctx, id)
}

func (m *mockVisitService) List(ctx context.Context, filter repositories.VisitFilter) ([]*models.Visit, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockVisitService) SetStatus(ctx context.Context, id int64, status string) error {
	return m.setStatusFunc(ctx, id, status)
}

func (m *mockVisitService) AssignBath(ctx context.Context, id, bathID int64) error {
	return m.assignBathFunc(ctx, id, bathID)
}

func (m *mockVisitService) SetLongFlag(ctx context.Context, id int64, value bool) error {
	return m.setLongFlagFunc(ctx, id, value)
}

func (m *mockVisitService) SetParticipants(ctx context.Context, id int64, userIDs []int64) error {
	return m.setParticipantsFunc(ctx, id, userIDs)
}

func (m *mockVisitService) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

var _ services.VisitService = (*mockVisitService)(nil)

// mockSettingsService implements services.SettingsService.
type mockSettingsService struct {
	getAllFunc func(ctx context.Context) ([]*models.RuleConfig, error)
	updateFunc func(ctx context.Context, key string, value float64, description string) error
}

func (m *mockSettingsService) GetAll(ctx context.Context) ([]*models.RuleConfig, error) {
	return m.getAllFunc(ctx)
}

func (m *mockSettingsService) Update(ctx context.Context, key string, value float64, description string) error {
	return m.updateFunc(ctx, key, value, description)
}

var _ services.SettingsService = (*mockSettingsService)(nil)

// mockLeaderboardService implements services.LeaderboardService.
type mockLeaderboardService struct {
	standingsFunc func(ctx context.Context, period services.LeaderboardPeriod) ([]*repositories.LeaderboardRow, error)
}

func (m *mockLeaderboardService) Standings(ctx context.Context, period services.LeaderboardPeriod) ([]*repositories.LeaderboardRow, error) {
	return m.standingsFunc(ctx, period)
}

var _ services.LeaderboardService = (*mockLeaderboardService)(nil)

// mockBathService implements services.BathService.
type mockBathService struct {
	createFunc        func(ctx context.Context, bath *models.Bath) error
	getFunc           func(ctx context.Context, id int64) (*models.Bath, error)
	listFunc          func(ctx context.Context, filter repositories.BathFilter) ([]*models.Bath, error)
	updateFunc        func(ctx context.Context, id int64, params repositories.BathUpdateParams) error
	mergeFunc         func(ctx context.Context, sourceID, targetID int64, repointVisits bool) (int64, error)
	listCountriesFunc func(ctx context.Context) ([]*models.Country, error)
	listRegionsFunc   func(ctx context.Context, countryID *int64) ([]*models.Region, error)
}

func (m *mockBathService) Create(ctx context.Context, bath *models.Bath) error {
	return m.createFunc(ctx, bath)
}

func (m *mockBathService) Get(ctx context.Context, id int64) (*models.Bath, error) {
	return m.getFunc(ctx, id)
}

func (m *mockBathService) List(ctx context.Context, filter repositories.BathFilter) ([]*models.Bath, error) {
	return m.listFunc(ctx, filter)
}

func (m *mockBathService) Update(ctx context.Context, id int64, params repositories.BathUpdateParams) error {
	return m.updateFunc(ctx, id, params)
}

func (m *mockBathService) Merge(ctx context.Context, sourceID, targetID int64, repointVisits bool) (int64, error) {
	return m.mergeFunc(ctx, sourceID, targetID, repointVisits)
}

func (m *mockBathService) ListCountries(ctx context.Context) ([]*models.Country, error) {
	return m.listCountriesFunc(ctx)
}

func (m *mockBathService) ListRegions(ctx context.Context, countryID *int64) ([]*models.Region, error) {
	return m.listRegionsFunc(ctx, countryID)
}

var _ services.BathService = (*mockBathService)(nil)

// mockUserService implements services.UserService.
type mockUserService struct {
	registerFunc func(ctx context.Context, user *models.User) error
	getFunc      func(ctx context.Context, id int64) (*services.UserProfile, error)
	listFunc     func(ctx context.Context) ([]*repositories.UserWithPoints, error)
	updateFunc   func(ctx context.Context, id int64, params repositories.UserUpdateParams) error
}

func (m *mockUserService) Register(ctx context.Context, user *models.User) error {
	return m.registerFunc(ctx, user)
}

func (m *mockUserService) Get(ctx context.Context, id int64) (*services.UserProfile, error) {
	return m.getFunc(ctx, id)
}

func (m *mockUserService) List(ctx context.Context) ([]*repositories.UserWithPoints, error) {
	return m.listFunc(ctx)
}

func (m *mockUserService) Update(ctx context.Context, id int64, params repositories.UserUpdateParams) error {
	return m.updateFunc(ctx, id, params)
}

var _ services.UserService = (*mockUserService)(nil)
