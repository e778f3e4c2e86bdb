// Package reviewq keeps a code reviewer's queue full.
//
// A [Watcher] polls the review service once per second. While the reviewer
// holds fewer than [Capacity] submissions it requests a new assignment on
// every tick, cycling through the configured projects. Every 60 ticks it
// resyncs the assigned count, and every 300 ticks (when enabled) it checks for
// new student feedback. New assignments and unread feedback are delivered as
// [Event] values to notifiers and callbacks.
//
// # Quick Start
//
//	client, _ := reviewapi.New(token)
//	w, err := reviewq.New(
//	    reviewq.WithService(client),
//	    reviewq.WithProjects(101, 205),
//	    reviewq.WithCertified(certifiedIDs...),
//	    reviewq.WithFeedbacks(true),
//	    reviewq.WithStatusWriter(os.Stdout),
//	)
//	if errors.Is(err, reviewq.ErrNotCertified) {
//	    // one or more projects cannot be requested
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	w.Start(ctx) // blocks until ctx is cancelled
//
// # Architecture
//
//   - internal/poller: the tick scheduler and its state
//   - internal/status: renders state into status lines
//   - internal/store: latest snapshot with pub/sub fan-out
//   - internal/display: terminal status surface
//   - internal/server: optional HTTP status surface
//   - internal/reviewapi: HTTP client for the review service
//   - internal/history: SQLite feedback history
//   - internal/notify: desktop and log notifications
//
// The internal packages are not part of the public API and may change
// without notice.
package reviewq
