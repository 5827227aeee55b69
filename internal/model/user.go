package model

// User is a volunteer account as stored in the `users` table.  Points and
// VolunteeredMinutes only grow, and only when an action the user took part
// in is verified.  PasswordHash never leaves the server.
type User struct {
	ID                 uint64 `json:"id"`                  // users.id
	Username           string `json:"username"`            // users.username
	PasswordHash       string `json:"-"`                   // users.password (hex PBKDF2 digest)
	Points             int64  `json:"points"`              // users.points
	VolunteeredMinutes int64  `json:"volunteered_minutes"` // users.volunteered_minutes
}
