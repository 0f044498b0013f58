package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"

	IdentityFirebase = "firebase"
	IdentityClerk    = "clerk"
)

type Config struct {
	Port string `env:"PORT" envDefault:"3333"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"firestore"`
	DatabaseURL  string `env:"DATABASE_URL"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE" envDefault:"./serviceAccountKey.json"`
	FirebaseCredentialsJSON string `env:"FIREBASE_SERVICE_ACCOUNT_JSON"`

	IdentityProvider   string `env:"IDENTITY_PROVIDER" envDefault:"firebase"`
	ClerkSecretKey     string `env:"CLERK_SECRET_KEY"`
	ClerkWebhookSecret string `env:"CLERK_WEBHOOK_SECRET"`
	AuthHookSecret     string `env:"AUTH_HOOK_SECRET"`
	AppCheckEnforced   bool   `env:"APP_CHECK_ENFORCED" envDefault:"false"`

	CascadeBatchSize     int `env:"CASCADE_BATCH_SIZE" envDefault:"10"`
	ContactsChunkSize    int `env:"CONTACTS_CHUNK_SIZE" envDefault:"10"`
	ExpansionConcurrency int `env:"EXPANSION_CONCURRENCY" envDefault:"16"`

	PushEnabled bool `env:"PUSH_ENABLED" envDefault:"true"`
	PushWorkers int  `env:"PUSH_WORKERS" envDefault:"5"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"30"`
	// Proxies in front of the server that append to X-Forwarded-For.
	TrustedProxyHops int `env:"TRUSTED_PROXY_HOPS" envDefault:"0"`

	MetricsUser string `env:"METRICS_USER"`
	MetricsPass string `env:"METRICS_PASS"`
	PprofSecret string `env:"PPROF_SECRET"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then the process environment.
// The returned bool tells whether a .env file was found.
func Load(files ...string) (*Config, bool, error) {
	found := godotenv.Load(files...) == nil

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, found, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, found, err
	}
	return cfg, found, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreFirestore, StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	// Without a secret the auth hooks answer 503. Only local runs on the
	// memory store may leave them disabled.
	needsHookSecret := c.StoreBackend != StoreMemory

	switch c.IdentityProvider {
	case IdentityFirebase:
		if needsHookSecret && c.AuthHookSecret == "" {
			errs = append(errs, errors.New("AUTH_HOOK_SECRET is required for the firebase identity provider"))
		}
	case IdentityClerk:
		if c.ClerkSecretKey == "" {
			errs = append(errs, errors.New("CLERK_SECRET_KEY is required for the clerk identity provider"))
		}
		if needsHookSecret && c.ClerkWebhookSecret == "" {
			errs = append(errs, errors.New("CLERK_WEBHOOK_SECRET is required for the clerk identity provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown IDENTITY_PROVIDER %q", c.IdentityProvider))
	}

	if c.CascadeBatchSize <= 0 {
		errs = append(errs, errors.New("CASCADE_BATCH_SIZE must be positive"))
	}
	if c.ContactsChunkSize <= 0 {
		errs = append(errs, errors.New("CONTACTS_CHUNK_SIZE must be positive"))
	}
	if c.ExpansionConcurrency <= 0 {
		errs = append(errs, errors.New("EXPANSION_CONCURRENCY must be positive"))
	}
	if c.TrustedProxyHops < 0 {
		errs = append(errs, errors.New("TRUSTED_PROXY_HOPS must not be negative"))
	}
	if c.PushWorkers <= 0 {
		errs = append(errs, errors.New("PUSH_WORKERS must be positive"))
	}

	return errors.Join(errs...)
}

// NeedsFirebase reports whether a Firebase app has to be initialised.
func (c *Config) NeedsFirebase() bool {
	return c.StoreBackend == StoreFirestore || c.IdentityProvider == IdentityFirebase || c.PushEnabled
}
