package services

import (
	"time"

	"wizzAPI/internal/cascade"
)

const (
	DefaultContactsChunkSize    = 10
	DefaultExpansionConcurrency = 16
	DefaultWizzHistoryLimit     = 50

	// MaxContactsPerCall bounds the phone numbers matched in one call.
	MaxContactsPerCall = 1000
)

// Options tunes the services. Zero values fall back to the defaults.
type Options struct {
	CascadeBatchSize     int
	ContactsChunkSize    int
	ExpansionConcurrency int
	Now                  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CascadeBatchSize <= 0 {
		o.CascadeBatchSize = cascade.DefaultBatchSize
	}
	if o.ContactsChunkSize <= 0 {
		o.ContactsChunkSize = DefaultContactsChunkSize
	}
	if o.ExpansionConcurrency <= 0 {
		o.ExpansionConcurrency = DefaultExpansionConcurrency
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}
