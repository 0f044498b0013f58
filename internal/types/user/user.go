package user

import "time"

// User is the profile stored for an authenticated account, keyed by the
// identity provider's subject id.
type User struct {
	ID           string    `json:"userId"`
	PhoneNumber  string    `json:"phoneNumber"`
	Username     string    `json:"userName"`
	DeviceTokens []string  `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	ModifiedAt   time.Time `json:"modifiedAt"`
}

type UpdateUsernameRequest struct {
	Username string `json:"username"`
}

type ContactsRequest struct {
	PhoneNumbers []string `json:"phoneNumbers"`
}

type RegisterDeviceRequest struct {
	Token string `json:"token"`
}

type TargetRequest struct {
	UserID string `json:"userId"`
}
