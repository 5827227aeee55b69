package repository

import (
	"context"
	"fmt"

	"github.com/warmersun/warmersun-api/internal/database"
	"github.com/warmersun/warmersun-api/internal/model"
)

// owners maps each image owner kind to its table and not-found error.
var owners = map[model.OwnerKind]struct {
	table    string
	notFound error
}{
	model.OwnerSpot:         {"spots", ErrSpotNotFound},
	model.OwnerAction:       {"actions", ErrActionNotFound},
	model.OwnerShoppingItem: {"shopping_items", ErrShoppingItemNotFound},
	model.OwnerUser:         {"users", ErrUserNotFound},
}

// ImageRepo stores base64 encoded images attached to a single owner.
type ImageRepo struct{ db *database.DB }

func NewImageRepo(db *database.DB) *ImageRepo { return &ImageRepo{db: db} }

// Create attaches an encoded image to the owner identified by kind and
// ownerID.  The owner must exist.
func (r *ImageRepo) Create(ctx context.Context, kind model.OwnerKind, ownerID uint64, encoded string) (*model.Image, error) {
	o, ok := owners[kind]
	if !ok {
		return nil, fmt.Errorf("unknown image owner %q", kind)
	}
	if err := mustExist(ctx, r.db, r.db, o.table, ownerID, o.notFound); err != nil {
		return nil, err
	}
	img := model.NewImage(kind, ownerID, encoded)
	q := fmt.Sprintf("INSERT INTO images (payload, %s) VALUES (?, ?)", kind.Column())
	id, err := r.db.InsertID(ctx, r.db, q, encoded, ownerID)
	if err != nil {
		return nil, err
	}
	img.ID = id
	return &img, nil
}

// ListByOwner returns the images of an owner.  It returns the owner's
// not-found error when the owner is missing and ErrNoImages when it has no
// images.
func (r *ImageRepo) ListByOwner(ctx context.Context, kind model.OwnerKind, ownerID uint64) ([]model.Image, error) {
	o, ok := owners[kind]
	if !ok {
		return nil, fmt.Errorf("unknown image owner %q", kind)
	}
	if err := mustExist(ctx, r.db, r.db, o.table, ownerID, o.notFound); err != nil {
		return nil, err
	}
	q := fmt.Sprintf(
		"SELECT id, payload, shopping_item_id, action_id, spot_id, user_id FROM images WHERE %s = ? ORDER BY id",
		kind.Column())
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.Binary, &img.ShoppingItemID, &img.ActionID, &img.SpotID, &img.UserID); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoImages
	}
	return out, nil
}
