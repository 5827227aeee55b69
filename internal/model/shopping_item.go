package model

// ShoppingItem is a catalogue entry that can carry images.
type ShoppingItem struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}
