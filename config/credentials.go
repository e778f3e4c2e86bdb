package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

const (
	// KeyringService is the service name used in the OS keyring.
	KeyringService = "reviewq"

	// TokenLifetime is how long a review API token stays valid after it
	// was issued.
	TokenLifetime = 30 * 24 * time.Hour

	// credentialsFile holds the token when no keyring is available.
	credentialsFile = "credentials.yaml"

	tokenKey  = "token"
	expiryKey = "token_expiry"
)

// ErrNoCredentials is returned when no token has been saved.
var ErrNoCredentials = errors.New("no token saved, run `reviewq token <token>` first")

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

// Credentials is a saved API token and its expiry.
type Credentials struct {
	Token     string    `yaml:"token"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

// CredentialStore saves the API token in the OS keyring, falling back to a
// 0600 file in the data directory when the keyring cannot be used.
type CredentialStore struct {
	dir string
}

// NewCredentialStore returns a store whose fallback file lives in dir.
func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{dir: dir}
}

func (s *CredentialStore) filePath() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Save stores token with an expiry of now plus [TokenLifetime].
// It reports whether the keyring was used.
func (s *CredentialStore) Save(token string, now time.Time) (Credentials, bool, error) {
	creds := Credentials{Token: token, ExpiresAt: now.Add(TokenLifetime)}

	err := keyringSet(KeyringService, tokenKey, token)
	if err == nil {
		err = keyringSet(KeyringService, expiryKey, creds.ExpiresAt.Format(time.RFC3339))
	}
	if err == nil {
		// the keyring copy is authoritative now
		_ = os.Remove(s.filePath())
		return creds, true, nil
	}

	if err := s.saveFile(creds); err != nil {
		return Credentials{}, false, err
	}
	return creds, false, nil
}

func (s *CredentialStore) saveFile(creds Credentials) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", s.dir, err)
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Load returns the saved credentials, preferring the keyring.
// Returns [ErrNoCredentials] when nothing was saved.
func (s *CredentialStore) Load() (Credentials, error) {
	token, err := keyringGet(KeyringService, tokenKey)
	if err == nil {
		creds := Credentials{Token: token}
		if raw, err := keyringGet(KeyringService, expiryKey); err == nil {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				creds.ExpiresAt = t
			}
		}
		return creds, nil
	}

	data, ferr := os.ReadFile(s.filePath())
	if errors.Is(ferr, os.ErrNotExist) {
		return Credentials{}, ErrNoCredentials
	}
	if ferr != nil {
		return Credentials{}, fmt.Errorf("reading credentials: %w", ferr)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parsing %s: %w", s.filePath(), err)
	}
	if creds.Token == "" {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

// Delete removes the token from the keyring and the fallback file.
func (s *CredentialStore) Delete() error {
	var errs []error
	for _, key := range []string{tokenKey, expiryKey} {
		if err := keyringDelete(KeyringService, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if err := os.Remove(s.filePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
