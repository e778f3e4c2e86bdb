package reviewq

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/jpalmerr/reviewq/internal/poller"
)

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	service           Service
	projects          []int
	certified         []int
	validateCerts     bool
	feedbacks         bool
	showAssignedTotal bool
	tokenExpiry       time.Time
	seenFeedback      []int
	notifiers         []Notifier
	eventCallbacks    []func(Event)
	feedbackObservers []func([]Feedback)
	logger            *slog.Logger
	statusWriter      io.Writer
	interactive       *bool
	listenAddr        string
	tickPeriod        time.Duration
	assignedInterval  uint64
	feedbackInterval  uint64
	clock             Clock
}

// Option is a function that configures a [Watcher] during construction.
// Options return an error if validation fails.
type Option func(*watcherConfig) error

// WithService sets the review service. Required.
func WithService(svc Service) Option {
	return func(cfg *watcherConfig) error {
		if svc == nil {
			return errors.New("service cannot be nil")
		}
		cfg.service = svc
		return nil
	}
}

// WithProjects appends project ids to the round-robin request queue.
//
// The queue is requested in order and may repeat an id to weight it:
//
//	w, err := reviewq.New(
//	    reviewq.WithService(client),
//	    reviewq.WithProjects(101, 101, 205),
//	)
func WithProjects(ids ...int) Option {
	return func(cfg *watcherConfig) error {
		cfg.projects = append(cfg.projects, ids...)
		return nil
	}
}

// WithCertified sets the projects the reviewer is certified for. When set,
// [New] rejects any queued project outside it with a [*CertificationError].
func WithCertified(ids ...int) Option {
	return func(cfg *watcherConfig) error {
		cfg.certified = append([]int(nil), ids...)
		cfg.validateCerts = true
		return nil
	}
}

// WithFeedbacks enables the periodic feedback check.
func WithFeedbacks(enabled bool) Option {
	return func(cfg *watcherConfig) error {
		cfg.feedbacks = enabled
		return nil
	}
}

// WithShowAssignedTotal adds the session's assignment total to the status.
func WithShowAssignedTotal(show bool) Option {
	return func(cfg *watcherConfig) error {
		cfg.showAssignedTotal = show
		return nil
	}
}

// WithTokenExpiry sets when the API token expires. The status shows a warning
// from five days before.
func WithTokenExpiry(t time.Time) Option {
	return func(cfg *watcherConfig) error {
		cfg.tokenExpiry = t
		return nil
	}
}

// WithSeenFeedback pre-seeds the set of feedback ids that have already been
// notified, typically from history.
func WithSeenFeedback(ids ...int) Option {
	return func(cfg *watcherConfig) error {
		cfg.seenFeedback = append(cfg.seenFeedback, ids...)
		return nil
	}
}

// WithNotifier adds a [Notifier]. Nil notifiers are ignored.
func WithNotifier(n Notifier) Option {
	return func(cfg *watcherConfig) error {
		if n != nil {
			cfg.notifiers = append(cfg.notifiers, n)
		}
		return nil
	}
}

// WithEventCallback registers a function called for every [Event].
//
// Callbacks run on the scheduler goroutine and must not block. Panics are
// recovered and logged. Nil callbacks are ignored.
func WithEventCallback(cb func(Event)) Option {
	return func(cfg *watcherConfig) error {
		if cb != nil {
			cfg.eventCallbacks = append(cfg.eventCallbacks, cb)
		}
		return nil
	}
}

// WithFeedbackObserver registers a function that receives every feedback
// response after the watcher has applied it and sent its notifications. It
// runs on the polling loop and must not block for long. Nil is ignored.
func WithFeedbackObserver(fn func([]Feedback)) Option {
	return func(cfg *watcherConfig) error {
		if fn != nil {
			cfg.feedbackObservers = append(cfg.feedbackObservers, fn)
		}
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. Defaults to [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStatusWriter draws the status on w every tick. A terminal is redrawn in
// place; anything else receives appended plain-text snapshots.
func WithStatusWriter(w io.Writer) Option {
	return func(cfg *watcherConfig) error {
		cfg.statusWriter = w
		return nil
	}
}

// WithInteractive overrides terminal detection for the status writer.
func WithInteractive(interactive bool) Option {
	return func(cfg *watcherConfig) error {
		cfg.interactive = &interactive
		return nil
	}
}

// WithListenAddr serves the status over HTTP on addr (host:port).
func WithListenAddr(addr string) Option {
	return func(cfg *watcherConfig) error {
		if addr == "" {
			return errors.New("listen address cannot be empty")
		}
		cfg.listenAddr = addr
		return nil
	}
}

// WithTickPeriod sets the wall time of one tick. Defaults to one second.
func WithTickPeriod(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("tick period must be positive")
		}
		cfg.tickPeriod = d
		return nil
	}
}

// WithIntervals sets the assigned-count and feedback check periods in ticks.
// Defaults are 60 and 300.
func WithIntervals(assigned, feedback uint64) Option {
	return func(cfg *watcherConfig) error {
		if assigned == 0 || feedback == 0 {
			return errors.New("intervals must be positive")
		}
		cfg.assignedInterval = assigned
		cfg.feedbackInterval = feedback
		return nil
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(cfg *watcherConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}

func defaultConfig() *watcherConfig {
	return &watcherConfig{
		tickPeriod:       poller.DefaultTickPeriod,
		assignedInterval: poller.DefaultAssignedInterval,
		feedbackInterval: poller.DefaultFeedbackInterval,
		clock:            poller.SystemClock{},
	}
}
