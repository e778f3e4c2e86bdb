package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq/config"
)

// tokenCmd saves the API token.
var tokenCmd = &cobra.Command{
	Use:   "token <token>",
	Short: "Save the review API token",
	Long: `Save the review API token in the OS keyring.

Tokens are valid for 30 days; reviewq warns in the status view when the
saved token is about to expire. Where no keyring is available the token is
written to credentials.yaml in the data directory, readable only by you.

Example:
  reviewq token eyJ0eXAiOiJKV1Qi...
  reviewq token --clear`,
	Args: func(cmd *cobra.Command, args []string) error {
		if clearToken, _ := cmd.Flags().GetBool("clear"); clearToken {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Bool("clear", false, "remove the saved token")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store := config.NewCredentialStore(cfg.DataDir)
	out := cmd.OutOrStdout()

	if clearToken, _ := cmd.Flags().GetBool("clear"); clearToken {
		if err := store.Delete(); err != nil {
			return fmt.Errorf("failed to remove token: %w", err)
		}
		fmt.Fprintln(out, "Token removed")
		return nil
	}

	if args[0] == "" {
		return errors.New("token cannot be empty")
	}

	creds, inKeyring, err := store.Save(args[0], time.Now())
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	where := "OS keyring"
	if !inKeyring {
		where = cfg.DataDir
	}
	fmt.Fprintf(out, "Token saved to %s, expires %s\n", where, creds.ExpiresAt.Format("2006-01-02"))
	return nil
}
