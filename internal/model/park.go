package model

// Park is a named area that groups spots.  It corresponds to a row in the
// `parks` table.  Deleting a park removes every spot inside it together
// with their actions and images.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – display name of the park.
//  Longitude – park centre longitude in decimal degrees.
//  Latitude  – park centre latitude in decimal degrees.
type Park struct {
	ID        uint64  `json:"id"`        // parks.id
	Name      string  `json:"name"`      // parks.name
	Longitude float64 `json:"longitude"` // parks.longitude
	Latitude  float64 `json:"latitude"`  // parks.latitude
}
