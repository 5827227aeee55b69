//go:build integration

package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
	"github.com/warmersun/warmersun-api/internal/repository"
)

// openPostgres starts a throwaway PostgreSQL container and returns a
// migrated handle.  Run with: go test -tags integration ./internal/repository/
func openPostgres(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("spots"),
		postgres.WithUsername("spots"),
		postgres.WithPassword("spots"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	url, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := &database.DB{DB: sqlDB, Dialect: database.Postgres}
	require.NoError(t, database.Migrate(ctx, db))
	require.NoError(t, database.Migrate(ctx, db), "migrate twice")
	return db
}

func TestPostgresRepositories(t *testing.T) {
	r := newRepos(openPostgres(t))
	ctx := context.Background()

	t.Run("verify", func(t *testing.T) {
		f := seed(t, r)

		res, err := r.actions.Verify(ctx, f.action.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(150), res.Points)

		_, err = r.actions.Verify(ctx, f.action.ID)
		assert.ErrorIs(t, err, repository.ErrAlreadyVerified)

		u, err := r.users.GetByID(ctx, f.bob.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(150), u.Points)
		assert.Equal(t, int64(30), u.VolunteeredMinutes)

		listed, err := r.actions.ListVerifiedBySpot(ctx, f.spot.ID)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, f.action.ID, listed[0].ID)

		require.NoError(t, r.parks.Delete(ctx, f.park.ID))
		_, err = r.actions.GetByID(ctx, f.action.ID)
		assert.ErrorIs(t, err, repository.ErrActionNotFound)
	})

	t.Run("unique violations", func(t *testing.T) {
		c := model.ActionCategory{Name: "Weeding", Point: 2}
		require.NoError(t, r.categories.Create(ctx, &c))
		dup := model.ActionCategory{Name: "Weeding", Point: 4}
		assert.ErrorIs(t, r.categories.Create(ctx, &dup), repository.ErrAlreadyExists)

		_, err := r.users.Create(ctx, "carol", "h")
		require.NoError(t, err)
		_, err = r.users.Create(ctx, "carol", "h")
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("suggested spot", func(t *testing.T) {
		park := model.Park{Name: "East", Longitude: 1, Latitude: 2}
		require.NoError(t, r.parks.Create(ctx, &park))
		u, err := r.users.Create(ctx, "dave", "h")
		require.NoError(t, err)

		s := model.NewSpot(park.ID, "Bench", 1.1, 2.1, &u.ID)
		require.NoError(t, r.spots.Create(ctx, &s))
		got, err := r.spots.ListVerifiedByPark(ctx, park.ID)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, r.spots.Verify(ctx, s.ID))
		got, err = r.spots.ListVerifiedByPark(ctx, park.ID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		require.NotNil(t, got[0].SuggesterID)
		assert.Equal(t, u.ID, *got[0].SuggesterID)
	})
}
