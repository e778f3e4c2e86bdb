// Package main is the entry point for the reviewq CLI.
//
// Usage:
//
//	reviewq token <token>             # Save the API token
//	reviewq certs --update            # Refresh certified projects
//	reviewq assign 101 205 --notify   # Request reviews until interrupted
//	reviewq assigned                  # Show current assignments
//	reviewq feedbacks                 # Show unread feedback
//	reviewq validate -c config.yaml   # Validate configuration
//	reviewq version                   # Show version info
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq/config"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "reviewq",
	Short: "Keep your review queue full",
	Long: `reviewq polls the review service for new assignments on your certified
projects, keeps at most two reviews assigned, and tells you when new
reviews or feedback arrive.

Quick start:
  1. Save your API token: reviewq token <token>
  2. Fetch certifications: reviewq certs --update
  3. Start requesting:     reviewq assign 101 205 --notify

Configuration is read from ~/.config/reviewq/config.yaml when present:
  projects: [101, 205]
  feedbacks: true
  notify: true`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this reviewq binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "reviewq %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath(), "path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log API calls")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the file named by --config. A missing file is only an
// error when the flag was given explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if cmd.Flags().Changed("config") {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger creates a JSON logger for CLI use.
func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// openLogFile opens path for appending, creating parent directories.
func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// session bundles what every service command needs.
type session struct {
	cfg    *config.Config
	creds  config.Credentials
	logger *slog.Logger
}

func newSession(cmd *cobra.Command, cfg *config.Config, logOut io.Writer) (*session, error) {
	creds, err := config.ResolveCredentials(cfg, config.NewCredentialStore(cfg.DataDir))
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, creds: creds, logger: newLogger(cmd, logOut)}, nil
}
