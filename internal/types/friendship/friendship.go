package friendship

import "time"

// Friendship is a symmetric relation keyed by relkey.Pair of its members.
type Friendship struct {
	ID        string    `json:"id"`
	UserIDs   [2]string `json:"userIds"`
	CreatedAt time.Time `json:"createdAt"`
}

// Other returns the member that is not userID.
func (f *Friendship) Other(userID string) (string, bool) {
	switch userID {
	case f.UserIDs[0]:
		return f.UserIDs[1], true
	case f.UserIDs[1]:
		return f.UserIDs[0], true
	}
	return "", false
}

func (f *Friendship) Has(userID string) bool {
	return f.UserIDs[0] == userID || f.UserIDs[1] == userID
}
