package invitation

import "time"

// Invitation is a pending friend request from one user to another.
type Invitation struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"createdAt"`
}
