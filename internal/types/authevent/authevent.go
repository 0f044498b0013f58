// Package authevent holds the account lifecycle events posted by the
// identity providers.
package authevent

import "encoding/json"

const (
	UserCreated = "user.created"
	UserDeleted = "user.deleted"
)

// Event is the envelope shared by the Firebase auth hook and Clerk webhooks.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FirebaseUser is the account carried by a Firebase auth hook.
type FirebaseUser struct {
	UID         string `json:"uid"`
	PhoneNumber string `json:"phoneNumber"`
}

type ClerkPhoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

type ClerkUser struct {
	ID                   string             `json:"id"`
	PhoneNumbers         []ClerkPhoneNumber `json:"phone_numbers"`
	PrimaryPhoneNumberID string             `json:"primary_phone_number_id"`
}

// PrimaryPhone returns the primary phone number, or the first one.
func (u ClerkUser) PrimaryPhone() string {
	for _, p := range u.PhoneNumbers {
		if p.ID == u.PrimaryPhoneNumberID {
			return p.PhoneNumber
		}
	}
	if len(u.PhoneNumbers) > 0 {
		return u.PhoneNumbers[0].PhoneNumber
	}
	return ""
}
