package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/reviewq"
	"github.com/jpalmerr/reviewq/config"
	"github.com/jpalmerr/reviewq/internal/history"
	"github.com/jpalmerr/reviewq/internal/notify"
)

const (
	shutdownTimeout = 10 * time.Second
)

// assignCmd runs the request loop.
var assignCmd = &cobra.Command{
	Use:   "assign [project-id...]",
	Short: "Request review assignments until interrupted",
	Long: `Request review assignments for the given projects until interrupted.

Projects are requested round robin in the order given; repeat an id to ask
for it more often. Without arguments the projects from the config file are
used. Every id must be a project you are certified for.

While running, the terminal shows:
  - uptime and the current task
  - how many requests were sent
  - how many reviews are assigned right now (at most two)
  - unread feedback, with --feedbacks

Logs go to log_file from the config so they do not disturb the status view.

Example:
  reviewq assign 101 205
  reviewq assign 101 101 205 --feedbacks --notify`,
	RunE: runAssign,
}

func init() {
	rootCmd.AddCommand(assignCmd)

	assignCmd.Flags().BoolP("feedbacks", "f", false, "also check for new feedback")
	assignCmd.Flags().BoolP("notify", "n", false, "show desktop notifications")
	assignCmd.Flags().Bool("assigned-total", false, "show how many reviews were assigned this session")
}

// parseProjectIDs converts command-line ids, falling back to defaults.
func parseProjectIDs(args []string, defaults []int) ([]int, error) {
	if len(args) == 0 {
		if len(defaults) == 0 {
			return nil, reviewq.ErrNoProjects
		}
		return append([]int(nil), defaults...), nil
	}

	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid project id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runAssign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := openLogFile(cfg.LogFile)
	if err != nil {
		return err
	}
	defer logFile.Close()

	s, err := newSession(cmd, cfg, logFile)
	if err != nil {
		return err
	}
	logger := s.logger

	projects, err := parseProjectIDs(args, cfg.Projects)
	if err != nil {
		return err
	}

	certs, err := s.certifications(cmd.Context(), false)
	if err != nil {
		return err
	}

	client, err := config.NewClient(cfg, s.creds.Token, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	feedbacks, _ := cmd.Flags().GetBool("feedbacks")
	feedbacks = feedbacks || cfg.Feedbacks
	wantNotify, _ := cmd.Flags().GetBool("notify")
	wantNotify = wantNotify || cfg.Notify
	assignedTotal, _ := cmd.Flags().GetBool("assigned-total")

	opts := config.WatcherOptions(cfg, s.creds)
	opts = append(opts,
		reviewq.WithProjects(projects...),
		reviewq.WithCertified(certs.IDs()...),
		reviewq.WithShowAssignedTotal(assignedTotal),
		reviewq.WithLogger(logger),
		reviewq.WithStatusWriter(cmd.OutOrStdout()),
		reviewq.WithNotifier(notify.NewLog(logger)),
	)
	if feedbacks {
		opts = append(opts, reviewq.WithFeedbacks(true))
	}

	if feedbacks {
		hist, err := history.Open(cfg.DataDir)
		if err != nil {
			return err
		}
		defer hist.Close()

		seen, err := hist.SeenIDs(cmd.Context())
		if err != nil {
			return err
		}
		logger.Info("feedback history loaded", "path", hist.Path(), "seen", len(seen))
		opts = append(opts,
			reviewq.WithSeenFeedback(seen...),
			reviewq.WithFeedbackObserver(history.NewRecorder(hist, logger).Observe),
		)
	}
	opts = append(opts, reviewq.WithService(client))

	if wantNotify {
		desktop := notify.NewDesktop(logger)
		defer desktop.Close()
		opts = append(opts, reviewq.WithNotifier(desktop))
	}

	w, err := reviewq.New(opts...)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"projects", projects,
		"certified", len(certs.Projects),
		"feedbacks", feedbacks,
		"notify", wantNotify,
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil

	case <-ctx.Done():
		// signal received, wait for the watcher to wind down
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("watcher error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
