package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// ShoppingItemRepo encapsulates queries on shopping items.
type ShoppingItemRepo struct{ db *database.DB }

func NewShoppingItemRepo(db *database.DB) *ShoppingItemRepo { return &ShoppingItemRepo{db: db} }

func (r *ShoppingItemRepo) Create(ctx context.Context, it *model.ShoppingItem) error {
	id, err := r.db.InsertID(ctx, r.db,
		"INSERT INTO shopping_items (name, price, description) VALUES (?, ?, ?)",
		it.Name, it.Price, it.Description)
	if err != nil {
		return err
	}
	it.ID = id
	return nil
}

func (r *ShoppingItemRepo) GetByID(ctx context.Context, id uint64) (*model.ShoppingItem, error) {
	var it model.ShoppingItem
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT id, name, price, description FROM shopping_items WHERE id = ?"), id).
		Scan(&it.ID, &it.Name, &it.Price, &it.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShoppingItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *ShoppingItemRepo) List(ctx context.Context) ([]model.ShoppingItem, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, price, description FROM shopping_items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ShoppingItem, 0)
	for rows.Next() {
		var it model.ShoppingItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Description); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Delete removes a shopping item and its images.
func (r *ShoppingItemRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "shopping_items", id, ErrShoppingItemNotFound); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.db.Rebind("DELETE FROM images WHERE shopping_item_id = ?"), id); err != nil {
			return err
		}
		return deleteRow(ctx, r.db, tx, "shopping_items", id, ErrShoppingItemNotFound)
	})
}
