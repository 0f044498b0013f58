package wizz

import "time"

// Wizz is an append-only nudge sent to a friend.
type Wizz struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	CreatedAt time.Time `json:"createdAt"`
}

type Request struct {
	SelectedFriendsIDs []string `json:"selectedFriendsIds"`
}

type HistoryRequest struct {
	Limit int `json:"limit"`
}
