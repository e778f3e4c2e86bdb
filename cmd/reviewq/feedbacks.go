package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq"
	"github.com/jpalmerr/reviewq/config"
	"github.com/jpalmerr/reviewq/internal/history"
	"github.com/jpalmerr/reviewq/internal/notify"
)

// feedbacksCmd shows unread feedback.
var feedbacksCmd = &cobra.Command{
	Use:   "feedbacks",
	Short: "Show unread student feedback from the last 30 days",
	Long: `Show unread student feedback from the last 30 days.

Every feedback seen is recorded in the local history, so --notify only
announces feedback that neither this command nor a running assign session
has reported before. --history lists the most recent recorded feedback,
read or not.

Example:
  reviewq feedbacks
  reviewq feedbacks --notify
  reviewq feedbacks --history 20`,
	Args: cobra.NoArgs,
	RunE: runFeedbacks,
}

func init() {
	rootCmd.AddCommand(feedbacksCmd)

	feedbacksCmd.Flags().BoolP("notify", "n", false, "notify about unread feedback not seen before")
	feedbacksCmd.Flags().Int("history", 0, "also list the last N recorded feedbacks")
}

func runFeedbacks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	client, err := config.NewClient(s.cfg, s.creds.Token, s.logger)
	if err != nil {
		return err
	}
	defer client.Close()

	hist, err := history.Open(s.cfg.DataDir)
	if err != nil {
		return err
	}
	defer hist.Close()

	seenIDs, err := hist.SeenIDs(ctx)
	if err != nil {
		return err
	}
	seen := make(map[int]bool, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = true
	}

	items, err := client.Feedbacks(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch feedback: %w", err)
	}

	var unread []reviewq.Feedback
	for _, fb := range items {
		if !fb.Read {
			unread = append(unread, fb)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Unread feedbacks: %d\n", len(unread))
	for _, fb := range unread {
		fmt.Fprintf(out, "  %s, rating: %d/5 (%s)\n", fb.ProjectName, fb.Rating, humanize.Time(fb.CreatedAt))
	}

	if wantNotify, _ := cmd.Flags().GetBool("notify"); wantNotify {
		desktop := notify.NewDesktop(s.logger)
		for _, fb := range unread {
			if seen[fb.ID] {
				continue
			}
			desktop.Notify(reviewq.Event{
				Kind:         reviewq.EventFeedback,
				ProjectName:  fb.ProjectName,
				SubmissionID: fb.SubmissionID,
				FeedbackID:   fb.ID,
				Rating:       fb.Rating,
			})
		}
		desktop.Close()
	}

	// record only after notifying so an interrupted run notifies again
	history.NewRecorder(hist, s.logger).Observe(items)

	if limit, _ := cmd.Flags().GetInt("history"); limit > 0 {
		entries, err := hist.Recent(ctx, limit)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nRecorded feedback (%s):\n", hist.Path())
		for _, e := range entries {
			state := "unread"
			if e.Read {
				state = "read"
			}
			fmt.Fprintf(out, "  %s, rating: %d/5, %s (first seen %s)\n",
				e.ProjectName, e.Rating, state, humanize.Time(e.FirstSeenAt))
		}
	}
	return nil
}
