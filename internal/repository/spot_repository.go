package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// SpotRepo encapsulates all database queries related to spots.
type SpotRepo struct {
	db *database.DB
}

// NewSpotRepo constructs a SpotRepo with the provided DB handle.
func NewSpotRepo(db *database.DB) *SpotRepo {
	return &SpotRepo{db: db}
}

const spotColumns = "id, name, longitude, latitude, park_id, suggester_id, is_verified"

func scanSpot(row interface{ Scan(...any) error }, s *model.Spot) error {
	return row.Scan(&s.ID, &s.Name, &s.Longitude, &s.Latitude, &s.ParkID, &s.SuggesterID, &s.IsVerified)
}

// Create inserts s after checking that its park and, when present, its
// suggester exist.  The verification flag is stored as given; build s with
// model.NewSpot so that it follows the suggester.
func (r *SpotRepo) Create(ctx context.Context, s *model.Spot) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "parks", s.ParkID, ErrParkNotFound); err != nil {
			return err
		}
		if s.SuggesterID != nil {
			if err := mustExist(ctx, r.db, tx, "users", *s.SuggesterID, ErrUserNotFound); err != nil {
				return err
			}
		}
		id, err := r.db.InsertID(ctx, tx,
			"INSERT INTO spots (name, longitude, latitude, park_id, suggester_id, is_verified) VALUES (?, ?, ?, ?, ?, ?)",
			s.Name, s.Longitude, s.Latitude, s.ParkID, s.SuggesterID, s.IsVerified)
		if err != nil {
			return err
		}
		s.ID = id
		return nil
	})
}

// GetByID fetches a spot by id whether or not it is verified.
func (r *SpotRepo) GetByID(ctx context.Context, id uint64) (*model.Spot, error) {
	var s model.Spot
	row := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT "+spotColumns+" FROM spots WHERE id = ?"), id)
	if err := scanSpot(row, &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSpotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListVerifiedByPark returns the verified spots of a park.  Unverified
// spots never appear here; they are only reachable by id.
func (r *SpotRepo) ListVerifiedByPark(ctx context.Context, parkID uint64) ([]model.Spot, error) {
	if err := mustExist(ctx, r.db, r.db, "parks", parkID, ErrParkNotFound); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind("SELECT "+spotColumns+" FROM spots WHERE park_id = ? AND is_verified = ? ORDER BY id"),
		parkID, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Spot, 0)
	for rows.Next() {
		var s model.Spot
		if err := scanSpot(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Verify marks a spot as verified.  Verifying an already verified spot
// succeeds without changing anything.
func (r *SpotRepo) Verify(ctx context.Context, id uint64) error {
	if err := mustExist(ctx, r.db, r.db, "spots", id, ErrSpotNotFound); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE spots SET is_verified = ? WHERE id = ?"), true, id)
	return err
}

// Delete removes a spot with its actions and images in one transaction.
func (r *SpotRepo) Delete(ctx context.Context, id uint64) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := mustExist(ctx, r.db, tx, "spots", id, ErrSpotNotFound); err != nil {
			return err
		}
		return deleteSpots(ctx, r.db, tx, []uint64{id})
	})
}
