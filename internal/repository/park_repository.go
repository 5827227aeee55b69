package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// ParkRepo encapsulates all database queries related to parks.
type ParkRepo struct {
	db *database.DB
}

// NewParkRepo constructs a ParkRepo with the provided DB handle.
func NewParkRepo(db *database.DB) *ParkRepo {
	return &ParkRepo{db: db}
}

// Create inserts a new park.  On success p.ID holds the generated id.
func (r *ParkRepo) Create(ctx context.Context, p *model.Park) error {
	id, err := r.db.InsertID(ctx, r.db,
		"INSERT INTO parks (name, longitude, latitude) VALUES (?, ?, ?)",
		p.Name, p.Longitude, p.Latitude)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetByID fetches a park by id.  It returns ErrParkNotFound if no row is
// found.
func (r *ParkRepo) GetByID(ctx context.Context, id uint64) (*model.Park, error) {
	const q = "SELECT id, name, longitude, latitude FROM parks WHERE id = ?"
	var p model.Park
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(q), id).Scan(&p.ID, &p.Name, &p.Longitude, &p.Latitude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParkNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns every park ordered by id.
func (r *ParkRepo) List(ctx context.Context) ([]model.Park, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, longitude, latitude FROM parks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Park, 0)
	for rows.Next() {
		var p model.Park
		if err := rows.Scan(&p.ID, &p.Name, &p.Longitude, &p.Latitude); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a park and, in the same transaction, every spot inside it
// along with their actions, association rows and images.
func (r *ParkRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "parks", id, ErrParkNotFound); err != nil {
			return err
		}
		spotIDs, err := selectIDs(ctx, r.db, tx, "SELECT id FROM spots WHERE park_id = ?", id)
		if err != nil {
			return err
		}
		if err := deleteSpots(ctx, r.db, tx, spotIDs); err != nil {
			return err
		}
		return deleteRow(ctx, r.db, tx, "parks", id, ErrParkNotFound)
	})
}
