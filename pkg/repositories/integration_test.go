//go:build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banya-league/banya-engine/pkg/database"
	"github.com/banya-league/banya-engine/pkg/models"
	"github.com/banya-league/banya-engine/pkg/testhelpers"
)

// repoTestContext holds test dependencies shared by repository tests.
type repoTestContext struct {
	t      *testing.T
	db     *database.DB
	visits VisitRepository
	awards PointAwardRepository
	baths  BathRepository
	users  UserRepository
	rules  RuleConfigRepository
}

// setupRepoTest initializes the test context with the shared testcontainer
// and wipes domain tables so every test starts from a clean slate.
func setupRepoTest(t *testing.T) *repoTestContext {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	tc := &repoTestContext{
		t:      t,
		db:     testDB.DB,
		visits: NewVisitRepository(testDB.DB),
		awards: NewPointAwardRepository(testDB.DB),
		baths:  NewBathRepository(testDB.DB),
		users:  NewUserRepository(testDB.DB),
		rules:  NewRuleConfigRepository(testDB.DB),
	}
	tc.cleanup()
	t.Cleanup(tc.cleanup)
	return tc
}

// cleanup wipes everything except the seeded rule_config defaults.
func (tc *repoTestContext) cleanup() {
	tc.t.Helper()
	_, err := tc.db.Exec(context.Background(),
		`TRUNCATE point_awards, visit_participants, visits, baths, regions, countries, users RESTART IDENTITY CASCADE`)
	require.NoError(tc.t, err, "failed to clean test tables")
}

func (tc *repoTestContext) createUser(id int64, name string) *models.User {
	tc.t.Helper()
	u := &models.User{ID: id, FullName: name, IsActive: true}
	require.NoError(tc.t, tc.users.Upsert(context.Background(), u))
	return u
}

func (tc *repoTestContext) createCountry(name string) int64 {
	tc.t.Helper()
	var id int64
	err := tc.db.QueryRow(context.Background(),
		`INSERT INTO countries (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(tc.t, err)
	return id
}

func (tc *repoTestContext) createRegion(countryID int64, name string) int64 {
	tc.t.Helper()
	var id int64
	err := tc.db.QueryRow(context.Background(),
		`INSERT INTO regions (country_id, name) VALUES ($1, $2) RETURNING id`, countryID, name).Scan(&id)
	require.NoError(tc.t, err)
	return id
}

func (tc *repoTestContext) createBath(name string, countryID, regionID *int64) *models.Bath {
	tc.t.Helper()
	b := &models.Bath{Name: name, CountryID: countryID, RegionID: regionID}
	require.NoError(tc.t, tc.baths.Create(context.Background(), b))
	return b
}

// createVisit inserts a visit and credits the given participants.
func (tc *repoTestContext) createVisit(bathID *int64, status models.VisitStatus, visitedAt time.Time, participants ...int64) *models.Visit {
	tc.t.Helper()
	ctx := context.Background()
	v := &models.Visit{BathID: bathID, Status: status, VisitedAt: visitedAt}
	require.NoError(tc.t, tc.visits.Create(ctx, v))
	if len(participants) > 0 {
		require.NoError(tc.t, tc.visits.ReplaceParticipants(ctx, v.ID, participants))
	}
	return v
}

func ptr[T any](v T) *T { return &v }
