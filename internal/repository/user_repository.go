package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// UserRepo mirrors the 'users' table.
type UserRepo struct{ db *database.DB }

func NewUserRepo(db *database.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, password, points, volunteered_minutes"

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Points, &u.VolunteeredMinutes)
}

// Create inserts a user with zero points and returns it.  The username is
// checked inside the insert transaction and backed by a unique index, so a
// concurrent duplicate still ends in ErrAlreadyExists.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (*model.User, error) {
	username = strings.TrimSpace(username)
	u := &model.User{Username: username, PasswordHash: passwordHash}
	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, r.db.Rebind("SELECT 1 FROM users WHERE username = ?"), username).Scan(&one)
		switch {
		case err == nil:
			return ErrAlreadyExists
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}
		id, err := r.db.InsertID(ctx, tx,
			"INSERT INTO users (username, password, points, volunteered_minutes) VALUES (?, ?, 0, 0)",
			username, passwordHash)
		if err != nil {
			return normalize(err)
		}
		u.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", strings.TrimSpace(username))
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*model.User, error) {
	var u model.User
	if err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(q), arg), &u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Delete removes a user, their images and their action associations.
// Spots the user suggested are kept and lose their suggester.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "users", id, ErrUserNotFound); err != nil {
			return err
		}
		stmts := []string{
			"DELETE FROM images WHERE user_id = ?",
			"DELETE FROM action_users WHERE user_id = ?",
			"UPDATE spots SET suggester_id = NULL WHERE suggester_id = ?",
		}
		if err := execAll(ctx, r.db, tx, stmts, id); err != nil {
			return err
		}
		return deleteRow(ctx, r.db, tx, "users", id, ErrUserNotFound)
	})
}
