package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/jpalmerr/reviewq/internal/poller"
)

// recordTimeout bounds one history write from the polling loop.
const recordTimeout = 5 * time.Second

// Recorder writes feedback responses to a [Store] once they have been acted on.
//
// A failed write is logged and dropped: the in-memory seen set still
// de-duplicates for the rest of the session.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

// NewRecorder creates a [Recorder].
func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Observe records items. Its signature matches a watcher feedback observer,
// so ids only reach history after their notifications have gone out.
func (r *Recorder) Observe(items []poller.Feedback) {
	if len(items) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.store.Record(ctx, items); err != nil {
		r.logger.Warn("failed to record feedback history", "error", err, "items", len(items))
	}
}
