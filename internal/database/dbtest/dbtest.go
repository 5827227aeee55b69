// Package dbtest opens throwaway databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/warmersun/warmersun-api/internal/database"
)

// Open returns a migrated SQLite database stored in t.TempDir().  The
// handle is closed when the test ends.
func Open(t testing.TB) *database.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", database.SQLiteDSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := &database.DB{DB: sqlDB, Dialect: database.SQLite}
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}
