package model

// OwnerKind names the entity an image belongs to.  Each kind maps to one
// nullable foreign key column on the `images` table.
type OwnerKind string

const (
	OwnerSpot         OwnerKind = "spot"
	OwnerAction       OwnerKind = "action"
	OwnerShoppingItem OwnerKind = "shopping_item"
	OwnerUser         OwnerKind = "user"
)

// Column returns the images column that references the owner, or "" for an
// unknown kind.
func (k OwnerKind) Column() string {
	switch k {
	case OwnerSpot:
		return "spot_id"
	case OwnerAction:
		return "action_id"
	case OwnerShoppingItem:
		return "shopping_item_id"
	case OwnerUser:
		return "user_id"
	}
	return ""
}

// Image is an uploaded picture stored inline as base64 text.  Exactly one
// of the owner ids is set.  Binary is the only accessor for the payload.
type Image struct {
	ID             uint64  `json:"id"`
	Binary         string  `json:"binary"`
	ShoppingItemID *uint64 `json:"shopping_item_id,omitempty"`
	ActionID       *uint64 `json:"action_id,omitempty"`
	SpotID         *uint64 `json:"spot_id,omitempty"`
	UserID         *uint64 `json:"user_id,omitempty"`
}

// NewImage builds an unsaved image attached to the given owner.
func NewImage(kind OwnerKind, ownerID uint64, encoded string) Image {
	img := Image{Binary: encoded}
	id := ownerID
	switch kind {
	case OwnerSpot:
		img.SpotID = &id
	case OwnerAction:
		img.ActionID = &id
	case OwnerShoppingItem:
		img.ShoppingItemID = &id
	case OwnerUser:
		img.UserID = &id
	}
	return img
}
