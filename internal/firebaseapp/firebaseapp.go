// Package firebaseapp initialises the Firebase Admin app shared by the
// auth, App Check, Firestore and messaging clients.
package firebaseapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

type Credentials struct {
	ProjectID string
	// EncodedJSON is a base64 encoded service account key. It wins over File.
	EncodedJSON string
	File        string
}

// ClientOption resolves the credentials. With neither an encoded key nor an
// existing file, it returns nil and the app falls back to application
// default credentials.
func (c Credentials) ClientOption(log *logrus.Entry) (option.ClientOption, error) {
	if c.EncodedJSON != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.EncodedJSON)
		if err != nil {
			return nil, fmt.Errorf("decode base64 firebase credentials: %w", err)
		}
		log.Info("Firebase: initializing from FIREBASE_SERVICE_ACCOUNT_JSON")
		return option.WithCredentialsJSON(decoded), nil
	}

	if c.File != "" {
		if _, err := os.Stat(c.File); err == nil {
			log.WithField("file", c.File).Info("Firebase: initializing from local key file")
			return option.WithCredentialsFile(c.File), nil
		}
	}

	log.Info("Firebase: no service account key, using application default credentials")
	return nil, nil
}

func New(ctx context.Context, creds Credentials, log *logrus.Entry) (*firebase.App, error) {
	opt, err := creds.ClientOption(log)
	if err != nil {
		return nil, err
	}

	var conf *firebase.Config
	if creds.ProjectID != "" {
		conf = &firebase.Config{ProjectID: creds.ProjectID}
	}

	var opts []option.ClientOption
	if opt != nil {
		opts = append(opts, opt)
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	return app, nil
}
