package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq/config"
)

// certsCmd lists certified projects.
var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "List the projects you are certified to review",
	Long: `List the projects you are certified to review.

Certifications are cached in certs.yaml in the data directory. The cache is
filled on first use and refreshed with --update.

Example:
  reviewq certs
  reviewq certs --update`,
	Args: cobra.NoArgs,
	RunE: runCerts,
}

func init() {
	rootCmd.AddCommand(certsCmd)

	certsCmd.Flags().BoolP("update", "u", false, "refresh the cache from the review service")
}

func runCerts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	update, _ := cmd.Flags().GetBool("update")
	cache, err := s.certifications(cmd.Context(), update)
	if err != nil {
		return err
	}

	printCerts(cmd.OutOrStdout(), cache)
	return nil
}

// certifications returns the cached certifications, fetching them when the
// cache is missing or refresh is set.
func (s *session) certifications(ctx context.Context, refresh bool) (*config.CertCache, error) {
	if !refresh {
		cache, err := config.LoadCerts(s.cfg.DataDir)
		if err == nil {
			return cache, nil
		}
		if !errors.Is(err, config.ErrNoCertCache) {
			return nil, err
		}
	}

	client, err := config.NewClient(s.cfg, s.creds.Token, s.logger)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	certs, err := client.Certifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch certifications: %w", err)
	}

	cache := &config.CertCache{FetchedAt: time.Now().UTC(), Projects: certs}
	if err := config.SaveCerts(s.cfg.DataDir, cache); err != nil {
		return nil, err
	}
	s.logger.Info("certifications updated", "projects", len(certs))
	return cache, nil
}

func printCerts(w io.Writer, cache *config.CertCache) {
	if len(cache.Projects) == 0 {
		fmt.Fprintln(w, "Not certified for any project")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPROJECT")
	for _, id := range cache.IDs() {
		fmt.Fprintf(tw, "%d\t%s\n", id, cache.Name(id))
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nUpdated %s\n", humanize.Time(cache.FetchedAt))
}
