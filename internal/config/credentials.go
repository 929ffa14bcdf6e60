package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingCredentials is returned when the account handle or app password
// is not set.
var ErrMissingCredentials = errors.New("BLUESKY_HANDLE and BLUESKY_PASSWORD must be set (environment or .env file)")

// Credentials holds the bot account login and the state reset switches.
type Credentials struct {
	Handle   string `env:"BLUESKY_HANDLE"`
	Password string `env:"BLUESKY_PASSWORD"`

	// ResetPersistence and ForceReset both clear processed notifications and
	// the last processed timestamp at startup.
	ResetPersistence bool `env:"RESET_PERSISTENCE" envDefault:"false"`
	ForceReset       bool `env:"FORCE_RESET" envDefault:"false"`
}

// LoadCredentials loads .env files (".env" when none are given) into the
// process environment without overriding variables already set, then parses
// Credentials. Missing .env files are ignored.
func LoadCredentials(envFiles ...string) (Credentials, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	creds.Handle = strings.TrimPrefix(strings.TrimSpace(creds.Handle), "@")
	return creds, nil
}

// Validate reports ErrMissingCredentials when handle or password is empty.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Handle) == "" || c.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// ResetRequested reports whether either reset switch is on.
func (c Credentials) ResetRequested() bool {
	return c.ResetPersistence || c.ForceReset
}
