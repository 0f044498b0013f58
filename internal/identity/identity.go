// Package identity verifies the tokens presented by callers: identity tokens
// from Firebase Auth or Clerk, and Firebase App Check attestation tokens.
package identity

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/appcheck"
	"firebase.google.com/go/v4/auth"
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

var ErrNoSubject = errors.New("identity: token has no subject")

type FirebaseVerifier struct {
	client *auth.Client
}

func NewFirebaseVerifier(client *auth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

// VerifyIDToken returns the uid the Firebase ID token was issued to.
func (v *FirebaseVerifier) VerifyIDToken(ctx context.Context, token string) (string, error) {
	t, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("verify firebase id token: %w", err)
	}
	if t.UID == "" {
		return "", ErrNoSubject
	}
	return t.UID, nil
}

type ClerkVerifier struct{}

// NewClerkVerifier configures the Clerk SDK with the secret key.
func NewClerkVerifier(secretKey string) *ClerkVerifier {
	clerk.SetKey(secretKey)
	return &ClerkVerifier{}
}

func (v *ClerkVerifier) VerifyIDToken(ctx context.Context, token string) (string, error) {
	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("verify clerk session token: %w", err)
	}
	if claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}

type AppCheckVerifier struct {
	client *appcheck.Client
}

func NewAppCheckVerifier(client *appcheck.Client) *AppCheckVerifier {
	return &AppCheckVerifier{client: client}
}

func (v *AppCheckVerifier) VerifyAppCheckToken(_ context.Context, token string) error {
	if _, err := v.client.VerifyToken(token); err != nil {
		return fmt.Errorf("verify app check token: %w", err)
	}
	return nil
}
