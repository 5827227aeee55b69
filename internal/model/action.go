package model

import "time"

// Action is a volunteer activity logged at a spot.  One or more users take
// part in it and one or more categories describe it.  An action earns its
// participants points only once, when it is verified.
//
// Fields:
//  ID             – primary key identifier.
//  Title          – short summary.
//  Description    – free text description.
//  SpotID         – spot where the action happened.
//  Time           – when the action happened (UTC).
//  MinuteDuration – length of the action in minutes.
//  IsVerified     – set once by the verification workflow.
type Action struct {
	ID             uint64    `json:"id"`              // actions.id
	Title          string    `json:"title"`           // actions.title
	Description    string    `json:"description"`     // actions.description
	SpotID         uint64    `json:"spot_id"`         // actions.spot_id
	Time           time.Time `json:"time"`            // actions.time
	MinuteDuration int64     `json:"minute_duration"` // actions.minute_duration
	IsVerified     bool      `json:"is_verified"`     // actions.is_verified
}

// ActionCategory classifies actions.  Point is the per-minute rate applied
// when an action tagged with the category is verified.
type ActionCategory struct {
	ID    uint64 `json:"id"`    // action_categories.id
	Name  string `json:"name"`  // action_categories.name (unique)
	Point int64  `json:"point"` // action_categories.point
}
