package reviewq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"

	"github.com/jpalmerr/reviewq/internal/display"
	"github.com/jpalmerr/reviewq/internal/notify"
	"github.com/jpalmerr/reviewq/internal/poller"
	"github.com/jpalmerr/reviewq/internal/server"
	"github.com/jpalmerr/reviewq/internal/status"
	"github.com/jpalmerr/reviewq/internal/store"
)

// noExpiry keeps the token warning off when no expiry is known.
const noExpiry = math.MaxInt32

// Watcher keeps requesting review assignments until the reviewer is at
// capacity, tracks how many are assigned and watches for new feedback.
//
// The typical lifecycle is:
//
//	w, err := reviewq.New(
//	    reviewq.WithService(client),
//	    reviewq.WithProjects(101, 205),
//	    reviewq.WithStatusWriter(os.Stdout),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	w.Start(ctx) // blocks until context cancelled
type Watcher struct {
	cfg    watcherConfig
	logger *slog.Logger
	store  *store.MemoryStore
}

// New creates a [Watcher] with the given options.
//
// A service and at least one project are required. When [WithCertified] is
// given, every queued project must be in the certified set; otherwise New
// returns a [*CertificationError] naming all offending ids.
func New(opts ...Option) (*Watcher, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.service == nil {
		return nil, errors.New("a service is required")
	}
	if len(cfg.projects) == 0 {
		return nil, ErrNoProjects
	}
	if cfg.validateCerts {
		if err := ValidateProjects(cfg.projects, cfg.certified); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		cfg:    *cfg,
		logger: logger,
		store:  store.NewMemoryStore(),
	}, nil
}

// Projects returns a copy of the request queue.
func (w *Watcher) Projects() []int {
	return append([]int(nil), w.cfg.projects...)
}

// Start runs the watcher until ctx is cancelled.
//
// Start blocks. It returns nil on cancellation, or an error if the status
// server cannot bind its address.
func (w *Watcher) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	w.logger.Info("reviewq starting",
		"projects", w.cfg.projects,
		"feedbacks", w.cfg.feedbacks,
		"tick_period", w.cfg.tickPeriod.String(),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if w.cfg.listenAddr != "" {
		srv := server.NewServer(w.store, w.cfg.listenAddr, w.logger)
		if err := srv.Start(runCtx); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
	}

	var wg sync.WaitGroup
	if w.cfg.statusWriter != nil {
		var dopts []display.Option
		if w.cfg.interactive != nil {
			dopts = append(dopts, display.WithInteractive(*w.cfg.interactive))
		}
		d := display.New(w.cfg.statusWriter, dopts...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := d.Run(runCtx, w.store); err != nil {
				w.logger.Warn("status display stopped", "error", err)
			}
		}()
	}

	sched, err := poller.NewScheduler(w.schedulerConfig(), w.logger)
	if err != nil {
		return err
	}
	sched.Start(runCtx)

	<-ctx.Done()
	sched.Stop()
	cancel()
	wg.Wait()

	w.logger.Info("reviewq stopped")
	return nil
}

// Latest returns the most recent status lines as plain text.
func (w *Watcher) Latest() (string, bool) {
	snap, ok := w.store.Latest()
	if !ok {
		return "", false
	}
	return snap.String(), true
}

func (w *Watcher) schedulerConfig() poller.Config {
	expiryDay := noExpiry
	if !w.cfg.tokenExpiry.IsZero() {
		expiryDay = poller.OrdinalDay(w.cfg.tokenExpiry)
	}

	clock := w.cfg.clock
	return poller.Config{
		Projects:          w.cfg.projects,
		FeedbackEnabled:   w.cfg.feedbacks,
		ShowAssignedTotal: w.cfg.showAssignedTotal,
		TokenExpiryDay:    expiryDay,
		SeenFeedback:      w.cfg.seenFeedback,
		AssignedInterval:  w.cfg.assignedInterval,
		FeedbackInterval:  w.cfg.feedbackInterval,
		TickPeriod:        w.cfg.tickPeriod,
		Service:           w.cfg.service,
		Notifier:          w.notifier(),
		Clock:             clock,
		OnTick: func(st poller.State) {
			now := clock.Now()
			w.store.Update(status.Render(st, now, poller.OrdinalDay(now)))
		},
		OnFeedback: w.feedbackObserver(),
	}
}

// feedbackObserver fans an applied feedback response out to every observer.
func (w *Watcher) feedbackObserver() func([]Feedback) {
	observers := w.cfg.feedbackObservers
	if len(observers) == 0 {
		return nil
	}
	return func(items []Feedback) {
		for _, fn := range observers {
			fn(items)
		}
	}
}

// notifier combines configured notifiers and event callbacks.
func (w *Watcher) notifier() Notifier {
	multi := make(notify.Multi, 0, len(w.cfg.notifiers)+1)
	multi = append(multi, w.cfg.notifiers...)
	if len(w.cfg.eventCallbacks) > 0 {
		multi = append(multi, NotifierFunc(func(ev Event) {
			for _, cb := range w.cfg.eventCallbacks {
				invokeCallbackSafe(cb, ev, w.logger)
			}
		}))
	}
	return multi
}

// invokeCallbackSafe calls an event callback with panic recovery.
// Panics are logged with a correlation id and do not propagate.
func invokeCallbackSafe(cb func(Event), ev Event, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event callback panicked",
				"correlation_id", uuid.New().String(),
				"panic", r,
				"kind", ev.Kind,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(ev)
}
