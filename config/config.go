// Package config provides YAML configuration for the reviewq binary.
//
// Example configuration:
//
//	api_url: https://review-api.udacity.com/api/v1
//	token: ${REVIEWQ_TOKEN}
//	projects: [101, 205]
//	feedbacks: true
//	notify: true
//	request_timeout: 10s
//	rate_limit: 2
//	listen: 127.0.0.1:8080
//	data_dir: ~/.config/reviewq
//	log_file: ~/.config/reviewq/reviewq.log
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/reviewq/internal/reviewapi"
)

// minRequestTimeout keeps a typo like "10ms" from failing every call.
const minRequestTimeout = 1 * time.Second

// dateLayout is the format of date fields such as token_expiry.
const dateLayout = "2006-01-02"

// Config is the root configuration structure.
//
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// APIURL is the review service root. Defaults to [reviewapi.DefaultBaseURL].
	APIURL string `yaml:"api_url"`

	// Token is the API token. Supports ${VAR} substitution. When empty the
	// token saved with `reviewq token` is used.
	Token string `yaml:"token"`

	// TokenExpiry overrides the stored expiry date of Token.
	TokenExpiry Date `yaml:"token_expiry"`

	// Projects is the default request queue for `reviewq assign`.
	Projects []int `yaml:"projects"`

	// Feedbacks enables the periodic feedback check by default.
	Feedbacks bool `yaml:"feedbacks"`

	// Notify enables desktop notifications by default.
	Notify bool `yaml:"notify"`

	// RequestTimeout bounds each API call. Defaults to 10s.
	RequestTimeout Duration `yaml:"request_timeout"`

	// RateLimit is the sustained API request rate per second. Defaults to 2.
	RateLimit float64 `yaml:"rate_limit"`

	// Listen is an optional host:port for the HTTP status server.
	Listen string `yaml:"listen"`

	// DataDir holds the certification cache, feedback history and fallback
	// credentials. Defaults to [DefaultDir].
	DataDir string `yaml:"data_dir"`

	// LogFile receives logs while the terminal status is shown.
	// Defaults to reviewq.log in DataDir.
	LogFile string `yaml:"log_file"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Date is a calendar date in local time, written as YYYY-MM-DD.
type Date struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler for Date.
func (d *Date) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}

	parsed, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	d.Time = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler for Date.
func (d Date) MarshalYAML() (any, error) {
	if d.IsZero() {
		return "", nil
	}
	return d.Format(dateLayout), nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// DefaultDir returns the reviewq directory under the user config directory
// (~/.config/reviewq on Linux), or .reviewq when that is unknown.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "reviewq")
	}
	return filepath.Join(".", ".reviewq")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error wrapping [os.ErrNotExist] if the file is missing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault is [Load], except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(nil)
	}
	return cfg, err
}

// Parse parses YAML configuration data, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = reviewapi.DefaultBaseURL
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = Duration(reviewapi.DefaultTimeout)
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = reviewapi.DefaultRateLimit
	}
	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDir()
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "reviewq.log")
	}
	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	for _, f := range []struct {
		name string
		ptr  *string
	}{
		{"api_url", &c.APIURL},
		{"token", &c.Token},
		{"listen", &c.Listen},
		{"data_dir", &c.DataDir},
		{"log_file", &c.LogFile},
	} {
		expanded, err := expandEnvVars(*f.ptr)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.ptr = expanded
	}

	parsedURL, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("api_url: scheme must be http or https, got %q", parsedURL.Scheme)
	}

	if c.RequestTimeout.Duration() < minRequestTimeout {
		return fmt.Errorf("request_timeout must be at least %s, got %s", minRequestTimeout, c.RequestTimeout.Duration())
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative, got %v", c.RateLimit)
	}

	for i, id := range c.Projects {
		if id <= 0 {
			return fmt.Errorf("projects[%d]: project id must be positive, got %d", i, id)
		}
	}

	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	if c.DataDir, err = expandHome(c.DataDir); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.LogFile, err = expandHome(c.LogFile); err != nil {
		return fmt.Errorf("log_file: %w", err)
	}

	return nil
}
