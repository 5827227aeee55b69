package model

// Spot is a location inside a park where volunteer actions take place.
// Spots created without a suggester are trusted and start verified; spots
// suggested by a user stay hidden from park listings until an authority
// verifies them.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display name of the spot.
//  Longitude   – longitude in decimal degrees.
//  Latitude    – latitude in decimal degrees.
//  ParkID      – park that owns the spot.
//  SuggesterID – user who suggested the spot (nil when self-verified).
//  IsVerified  – whether the spot is visible in public listings.
type Spot struct {
	ID          uint64  `json:"id"`                     // spots.id
	Name        string  `json:"name"`                   // spots.name
	Longitude   float64 `json:"longitude"`              // spots.longitude
	Latitude    float64 `json:"latitude"`               // spots.latitude
	ParkID      uint64  `json:"park_id"`                // spots.park_id
	SuggesterID *uint64 `json:"suggester_id,omitempty"` // spots.suggester_id (nullable)
	IsVerified  bool    `json:"is_verified"`            // spots.is_verified
}

// NewSpot builds an unsaved spot.  The verification flag follows the
// suggester: no suggester means the spot is verified on creation.
func NewSpot(parkID uint64, name string, longitude, latitude float64, suggesterID *uint64) Spot {
	return Spot{
		Name:        name,
		Longitude:   longitude,
		Latitude:    latitude,
		ParkID:      parkID,
		SuggesterID: suggesterID,
		IsVerified:  suggesterID == nil,
	}
}
