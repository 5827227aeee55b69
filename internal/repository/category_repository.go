package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// CategoryRepo encapsulates queries on action categories.
type CategoryRepo struct {
	db *database.DB
}

func NewCategoryRepo(db *database.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a category.  Names are unique; a second category with the
// same name returns ErrAlreadyExists.
func (r *CategoryRepo) Create(ctx context.Context, c *model.ActionCategory) error {
	id, err := r.db.InsertID(ctx, r.db,
		"INSERT INTO action_categories (name, point) VALUES (?, ?)", c.Name, c.Point)
	if err != nil {
		return normalize(err)
	}
	c.ID = id
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (*model.ActionCategory, error) {
	var c model.ActionCategory
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT id, name, point FROM action_categories WHERE id = ?"), id).
		Scan(&c.ID, &c.Name, &c.Point)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]model.ActionCategory, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, point FROM action_categories ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ActionCategory, 0)
	for rows.Next() {
		var c model.ActionCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Point); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a category and untags every action that carried it.  The
// actions themselves are kept.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "action_categories", id, ErrCategoryNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.db.Rebind("DELETE FROM action_category_links WHERE category_id = ?"), id); err != nil {
			return err
		}
		return deleteRow(ctx, r.db, tx, "action_categories", id, ErrCategoryNotFound)
	})
}
