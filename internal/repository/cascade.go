package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warmersun/warmersun-api/internal/database"
)

// Cascade routines delete dependents child-first inside the caller's
// transaction.  Ids are collected up front because MySQL refuses a DELETE
// whose subquery reads the table being deleted from.

// deleteActions removes the given actions together with their images and
// association rows.
func deleteActions(ctx context.Context, db *database.DB, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inList(ids)
	stmts := []string{
		"DELETE FROM images WHERE action_id IN " + in,
		"DELETE FROM action_users WHERE action_id IN " + in,
		"DELETE FROM action_category_links WHERE action_id IN " + in,
		"DELETE FROM actions WHERE id IN " + in,
	}
	return execAll(ctx, db, tx, stmts, args...)
}

// deleteSpots removes the given spots, their actions and their images.
func deleteSpots(ctx context.Context, db *database.DB, tx *sql.Tx, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inList(ids)
	actionIDs, err := selectIDs(ctx, db, tx, "SELECT id FROM actions WHERE spot_id IN "+in, args...)
	if err != nil {
		return err
	}
	if err := deleteActions(ctx, db, tx, actionIDs); err != nil {
		return err
	}
	stmts := []string{
		"DELETE FROM images WHERE spot_id IN " + in,
		"DELETE FROM spots WHERE id IN " + in,
	}
	return execAll(ctx, db, tx, stmts, args...)
}

func execAll(ctx context.Context, db *database.DB, tx *sql.Tx, stmts []string, args ...any) error {
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, db.Rebind(s), args...); err != nil {
			return fmt.Errorf("cascade: %w", err)
		}
	}
	return nil
}

// selectIDs runs a single-column id query and drains it before returning,
// so the caller may issue further statements on the same transaction.
func selectIDs(ctx context.Context, db *database.DB, q database.Querier, query string, args ...any) ([]uint64, error) {
	rows, err := q.QueryContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// inList renders "(?, ?, ...)" for ids and the matching argument slice.
func inList(ids []uint64) (string, []any) {
	var b strings.Builder
	args := make([]any, len(ids))
	b.WriteByte('(')
	for i, id := range ids {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
		args[i] = id
	}
	b.WriteByte(')')
	return b.String(), args
}

// deleteRow removes one row by id and reports notFound when nothing matched.
func deleteRow(ctx context.Context, db *database.DB, tx *sql.Tx, table string, id uint64, notFound error) error {
	res, err := tx.ExecContext(ctx, db.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// exists reports whether table has a row with the given id.  table is
// always a constant from this package.
func exists(ctx context.Context, db *database.DB, q database.Querier, table string, id uint64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, db.Rebind("SELECT 1 FROM "+table+" WHERE id = ?"), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// mustExist is exists with the missing case turned into notFound.
func mustExist(ctx context.Context, db *database.DB, q database.Querier, table string, id uint64, notFound error) error {
	ok, err := exists(ctx, db, q, table, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound
	}
	return nil
}

// normalize maps driver specific unique violations to ErrAlreadyExists.
func normalize(err error) error {
	if database.IsUniqueViolation(err) {
		return ErrAlreadyExists
	}
	return err
}
