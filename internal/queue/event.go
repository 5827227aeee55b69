// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into the points ledger.
package queue

// ActionVerifiedQueue is the durable queue carrying ActionVerifiedEvent.
const ActionVerifiedQueue = "action.verified"

// ActionVerifiedEvent is published after an action is verified and its
// participants are credited.  It carries enough to write the ledger
// without querying the primary database.
type ActionVerifiedEvent struct {
	ActionID       uint64   `json:"action_id"`
	Title          string   `json:"title"`
	SpotID         uint64   `json:"spot_id"`
	Rate           int64    `json:"rate"`
	MinuteDuration int64    `json:"minute_duration"`
	Points         int64    `json:"points"`
	UserIDs        []uint64 `json:"user_ids"`
	VerifiedAt     string   `json:"verified_at"` // RFC 3339, UTC
}
