package config

import (
	"log/slog"

	"github.com/jpalmerr/reviewq"
	"github.com/jpalmerr/reviewq/internal/reviewapi"
)

// ResolveCredentials returns the token to use and its expiry.
//
// A token set in the config file wins over the saved one; token_expiry
// overrides whichever expiry was found.
func ResolveCredentials(cfg *Config, store *CredentialStore) (Credentials, error) {
	var creds Credentials
	if cfg.Token != "" {
		creds.Token = cfg.Token
	} else {
		saved, err := store.Load()
		if err != nil {
			return Credentials{}, err
		}
		creds = saved
	}

	if !cfg.TokenExpiry.IsZero() {
		creds.ExpiresAt = cfg.TokenExpiry.Time
	}
	if creds.Token == "" {
		return Credentials{}, ErrNoCredentials
	}
	return creds, nil
}

// NewClient builds the review API client described by cfg.
func NewClient(cfg *Config, token string, logger *slog.Logger) (*reviewapi.Client, error) {
	return reviewapi.New(token,
		reviewapi.WithBaseURL(cfg.APIURL),
		reviewapi.WithTimeout(cfg.RequestTimeout.Duration()),
		reviewapi.WithRateLimit(cfg.RateLimit),
		reviewapi.WithLogger(logger),
	)
}

// WatcherOptions converts configuration into watcher options.
//
// Projects, the service, the notifier and output options come from the
// command line and are left to the caller.
func WatcherOptions(cfg *Config, creds Credentials) []reviewq.Option {
	var opts []reviewq.Option

	if cfg.Feedbacks {
		opts = append(opts, reviewq.WithFeedbacks(true))
	}
	if cfg.Listen != "" {
		opts = append(opts, reviewq.WithListenAddr(cfg.Listen))
	}
	if !creds.ExpiresAt.IsZero() {
		opts = append(opts, reviewq.WithTokenExpiry(creds.ExpiresAt))
	}

	return opts
}
