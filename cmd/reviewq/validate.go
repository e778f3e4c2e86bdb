package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq/config"
)

// validateCmd validates a config file without contacting the service.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a reviewq configuration file without contacting the review service.

This command parses the YAML, expands environment variables, and validates
all fields.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  reviewq validate -c config.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	projects := "none (pass ids to assign)"
	if len(cfg.Projects) > 0 {
		ids := make([]string, len(cfg.Projects))
		for i, id := range cfg.Projects {
			ids[i] = fmt.Sprint(id)
		}
		projects = strings.Join(ids, ", ")
	}

	listen := "disabled"
	if cfg.Listen != "" {
		listen = cfg.Listen
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  API:       %s\n", cfg.APIURL)
	fmt.Fprintf(out, "  Projects:  %s\n", projects)
	fmt.Fprintf(out, "  Feedbacks: %t\n", cfg.Feedbacks)
	fmt.Fprintf(out, "  Notify:    %t\n", cfg.Notify)
	fmt.Fprintf(out, "  Timeout:   %s\n", cfg.RequestTimeout.Duration())
	fmt.Fprintf(out, "  Listen:    %s\n", listen)
	fmt.Fprintf(out, "  Data dir:  %s\n", cfg.DataDir)

	return nil
}
