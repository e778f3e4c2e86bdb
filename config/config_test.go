package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/reviewq/internal/reviewapi"
)

func TestParse_MinimalConfig(t *testing.T) {
	cfg, err := Parse([]byte(`projects: [101]`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.APIURL != reviewapi.DefaultBaseURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, reviewapi.DefaultBaseURL)
	}
	if cfg.RequestTimeout.Duration() != 10*time.Second {
		t.Errorf("RequestTimeout = %v, want 10s", cfg.RequestTimeout.Duration())
	}
	if cfg.RateLimit != reviewapi.DefaultRateLimit {
		t.Errorf("RateLimit = %v, want %v", cfg.RateLimit, reviewapi.DefaultRateLimit)
	}
	if cfg.DataDir != DefaultDir() {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, DefaultDir())
	}
	if cfg.LogFile != filepath.Join(cfg.DataDir, "reviewq.log") {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.Feedbacks || cfg.Notify || cfg.Listen != "" {
		t.Error("optional features should be off by default")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if len(cfg.Projects) != 0 {
		t.Errorf("Projects = %v, want none", cfg.Projects)
	}
}

func TestParse_FullConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `
api_url: http://localhost:9000/api
token: abc123
token_expiry: 2026-04-01
projects: [101, 101, 205]
feedbacks: true
notify: true
request_timeout: 30s
rate_limit: 0.5
listen: 127.0.0.1:8080
data_dir: ` + dir + `
log_file: ` + filepath.Join(dir, "out.log") + `
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.APIURL != "http://localhost:9000/api" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Token != "abc123" {
		t.Errorf("Token = %q", cfg.Token)
	}
	wantExpiry := time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)
	if !cfg.TokenExpiry.Equal(wantExpiry) {
		t.Errorf("TokenExpiry = %v, want %v", cfg.TokenExpiry.Time, wantExpiry)
	}
	if !reflect.DeepEqual(cfg.Projects, []int{101, 101, 205}) {
		t.Errorf("Projects = %v", cfg.Projects)
	}
	if !cfg.Feedbacks || !cfg.Notify {
		t.Error("Feedbacks and Notify should be true")
	}
	if cfg.RequestTimeout.Duration() != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout.Duration())
	}
	if cfg.RateLimit != 0.5 {
		t.Errorf("RateLimit = %v", cfg.RateLimit)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.LogFile != filepath.Join(dir, "out.log") {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("REVIEWQ_TEST_TOKEN", "from-env")

	cfg, err := Parse([]byte(`token: ${REVIEWQ_TEST_TOKEN}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", cfg.Token)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	cfg, err := Parse([]byte(`listen: ${REVIEWQ_UNSET_LISTEN:-localhost:9999}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Listen != "localhost:9999" {
		t.Errorf("Listen = %q, want localhost:9999", cfg.Listen)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	_, err := Parse([]byte(`token: ${REVIEWQ_DEFINITELY_UNSET}`))
	if err == nil {
		t.Fatal("Parse() expected error for missing env var")
	}
	if !strings.Contains(err.Error(), "REVIEWQ_DEFINITELY_UNSET") {
		t.Errorf("error = %v, want it to name the variable", err)
	}
}

func TestParse_HomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Parse([]byte(`data_dir: ~/reviewq-data`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if want := filepath.Join(home, "reviewq-data"); cfg.DataDir != want {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, want)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "api url without scheme",
			yaml:        `api_url: review-api.example.com`,
			wantErrLike: "scheme must be http or https",
		},
		{
			name:        "api url ftp scheme",
			yaml:        `api_url: ftp://example.com`,
			wantErrLike: "scheme must be http or https",
		},
		{
			name:        "timeout too short",
			yaml:        `request_timeout: 100ms`,
			wantErrLike: "request_timeout must be at least",
		},
		{
			name:        "negative rate",
			yaml:        `rate_limit: -1`,
			wantErrLike: "rate_limit cannot be negative",
		},
		{
			name:        "zero project id",
			yaml:        `projects: [101, 0]`,
			wantErrLike: "projects[1]",
		},
		{
			name:        "negative project id",
			yaml:        `projects: [-5]`,
			wantErrLike: "must be positive",
		},
		{
			name:        "listen without port",
			yaml:        `listen: localhost`,
			wantErrLike: "listen",
		},
		{
			name:        "bad token expiry",
			yaml:        `token_expiry: next week`,
			wantErrLike: "invalid date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("projects: [101"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// request_timeout must be >= 1s, so all valid inputs are above that
			cfg, err := Parse([]byte(`request_timeout: ` + tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.RequestTimeout.Duration() != tt.want {
				t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
		{"missing required", "${MISSING}", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("projects: [7]\nnotify: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Notify || len(cfg.Projects) != 1 || cfg.Projects[0] != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")

	if _, err := Load(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}

	cfg, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.APIURL != reviewapi.DefaultBaseURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
}
