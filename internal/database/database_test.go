package database_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warmersun/warmersun-api/internal/config"
	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/database/dbtest"
)

func TestRebind(t *testing.T) {
	q := "SELECT * FROM spots WHERE park_id = ? AND is_verified = ?"
	assert.Equal(t, q, database.MySQL.Rebind(q))
	assert.Equal(t, q, database.SQLite.Rebind(q))
	assert.Equal(t, "SELECT * FROM spots WHERE park_id = $1 AND is_verified = $2", database.Postgres.Rebind(q))
}

func TestStatements(t *testing.T) {
	for _, d := range []database.Dialect{database.MySQL, database.SQLite, database.Postgres} {
		stmts := database.Statements(d)
		require.NotEmpty(t, stmts, d)
		for _, s := range stmts {
			assert.NotContains(t, s, "{{", "unreplaced placeholder for %s", d)
		}
	}
	my := strings.Join(database.Statements(database.MySQL), "\n")
	assert.Contains(t, my, "AUTO_INCREMENT")
	assert.NotContains(t, my, "CREATE INDEX")
	pg := strings.Join(database.Statements(database.Postgres), "\n")
	assert.Contains(t, pg, "BIGSERIAL")
	assert.Nil(t, database.Statements("oracle"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, database.Migrate(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'").Scan(&n))
	assert.Equal(t, 9, n)
}

func TestInsertIDAndUniqueViolation(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	id, err := db.InsertID(ctx, db, "INSERT INTO action_categories (name, point) VALUES (?, ?)", "Cleanup", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	_, err = db.InsertID(ctx, db, "INSERT INTO action_categories (name, point) VALUES (?, ?)", "Cleanup", 4)
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
	assert.False(t, database.IsUniqueViolation(nil))
}

func TestForeignKeysEnforced(t *testing.T) {
	db := dbtest.Open(t)
	_, err := db.Exec("INSERT INTO spots (name, longitude, latitude, park_id, is_verified) VALUES ('x', 0, 0, 42, 1)")
	assert.Error(t, err)
}

func TestInTxRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO parks (name, longitude, latitude) VALUES ('p', 0, 0)"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM parks").Scan(&n))
	assert.Zero(t, n)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(config.Config{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestOpenSQLite(t *testing.T) {
	db, err := database.Open(config.Config{DBDriver: config.DriverSQLite, DBPath: t.TempDir() + "/open.db"})
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, database.SQLite, db.Dialect)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)
}
