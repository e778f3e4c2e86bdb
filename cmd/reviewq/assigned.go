package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq"
	"github.com/jpalmerr/reviewq/config"
	"github.com/jpalmerr/reviewq/internal/notify"
)

// assignedCmd shows the current assignments.
var assignedCmd = &cobra.Command{
	Use:   "assigned",
	Short: "Show your currently assigned reviews",
	Long: `Show your currently assigned reviews.

With --notify a desktop notification is shown for each assignment, with a
link to the review page where the platform supports it.

Example:
  reviewq assigned
  reviewq assigned --notify`,
	Args: cobra.NoArgs,
	RunE: runAssigned,
}

func init() {
	rootCmd.AddCommand(assignedCmd)

	assignedCmd.Flags().BoolP("notify", "n", false, "show a desktop notification per assignment")
}

func runAssigned(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	client, err := config.NewClient(s.cfg, s.creds.Token, s.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	subs, err := client.Assigned(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch assignments: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Currently assigned: %d\n", len(subs))
	for _, sub := range subs {
		line := fmt.Sprintf("  %d  %s", sub.ID, sub.ProjectName)
		if !sub.AssignedAt.IsZero() {
			line += " (assigned " + humanize.Time(sub.AssignedAt) + ")"
		}
		fmt.Fprintln(out, line)
	}

	if wantNotify, _ := cmd.Flags().GetBool("notify"); wantNotify {
		desktop := notify.NewDesktop(s.logger)
		for _, sub := range subs {
			desktop.Notify(reviewq.Event{
				Kind:         reviewq.EventAssigned,
				ProjectID:    sub.ProjectID,
				ProjectName:  sub.ProjectName,
				SubmissionID: sub.ID,
			})
		}
		desktop.Close()
	}
	return nil
}
