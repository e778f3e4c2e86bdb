package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// concern is one of the independently gated calls driven by the scheduler.
type concern int

const (
	concernAssigned concern = iota
	concernFeedback
	concernRequest
	numConcerns
)

func (c concern) String() string {
	switch c {
	case concernAssigned:
		return "assigned_count"
	case concernFeedback:
		return "feedback"
	case concernRequest:
		return "request_assignment"
	default:
		return "unknown"
	}
}

// outcome is the settled result of one dispatched call.
type outcome struct {
	concern   concern
	projectID int
	count     int
	response  AssignResponse
	feedback  []Feedback
	err       error
}

// Config holds everything a [Scheduler] needs for one polling run.
type Config struct {
	// Projects is the round-robin request queue. Must not be empty.
	Projects []int

	FeedbackEnabled   bool
	ShowAssignedTotal bool

	// TokenExpiryDay is the [OrdinalDay] on which the API token expires.
	TokenExpiryDay int

	// SeenFeedback pre-seeds the de-duplication set, typically from history.
	SeenFeedback []int

	// Gate periods in ticks. Zero means the package default.
	AssignedInterval uint64
	FeedbackInterval uint64

	// TickPeriod is the wall time of one tick. Zero means one second.
	TickPeriod time.Duration

	Service  Service
	Notifier Notifier
	Clock    Clock

	// OnTick is called synchronously at the end of every tick with a copy of
	// the settled state. It must not block.
	OnTick func(State)

	// OnFeedback is called from the loop with every feedback response once it
	// has been applied to state and its events notified. Responses dropped
	// during shutdown never reach it.
	OnFeedback func([]Feedback)
}

// Scheduler multiplexes the assigned-count probe, the feedback probe and the
// assignment requester over one fixed-period clock.
//
// The scheduler's loop goroutine is the only writer of its [State]. Calls to
// the service run in their own goroutines and report back over a results
// channel; each concern has at most one call outstanding, and a tick that
// finds its concern still in flight skips it.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	cfg    Config
	logger *slog.Logger

	state    State
	results  chan outcome
	inflight [numConcerns]bool
	// project of the outstanding request, for display
	pendingProject int

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	stopped   bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates a [Scheduler] for cfg.
//
// Returns an error if the project queue is empty or no service is configured.
// A nil Notifier drops events and a nil Clock uses [SystemClock].
func NewScheduler(cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if len(cfg.Projects) == 0 {
		return nil, errors.New("project queue cannot be empty")
	}
	if cfg.Service == nil {
		return nil, errors.New("service is required")
	}
	if cfg.AssignedInterval == 0 {
		cfg.AssignedInterval = DefaultAssignedInterval
	}
	if cfg.FeedbackInterval == 0 {
		cfg.FeedbackInterval = DefaultFeedbackInterval
	}
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NotifierFunc(func(Event) {})
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Projects = append([]int(nil), cfg.Projects...)

	return &Scheduler{
		cfg:     cfg,
		logger:  logger,
		results: make(chan outcome, numConcerns),
		done:    make(chan struct{}),
	}, nil
}

// newState builds the initial state for a run started at now.
func newState(cfg Config, now time.Time) State {
	seen := make(map[int]struct{}, len(cfg.SeenFeedback))
	for _, id := range cfg.SeenFeedback {
		seen[id] = struct{}{}
	}
	return State{
		StartedAt:         now,
		ProjectQueue:      append([]int(nil), cfg.Projects...),
		SeenFeedbackIDs:   seen,
		TokenExpiryDay:    cfg.TokenExpiryDay,
		FeedbackEnabled:   cfg.FeedbackEnabled,
		ShowAssignedTotal: cfg.ShowAssignedTotal,
		AssignedInterval:  cfg.AssignedInterval,
		FeedbackInterval:  cfg.FeedbackInterval,
	}
}

// Start begins the polling loop in a background goroutine.
//
// The loop first syncs the assigned count (and feedback, when enabled), then
// runs tick 0 immediately and one tick per TickPeriod after that until
// [Scheduler.Stop] is called or ctx is cancelled.
//
// If ctx is nil, context.Background() is used. Start is idempotent, and a
// no-op after Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	loopCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.done) })
		s.run(loopCtx)
	}()
}

// Stop halts the scheduler and waits for the loop and every outstanding call
// to return. Outcomes of calls aborted by Stop are discarded.
//
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.closeOnce.Do(func() { close(s.done) })
}

// Done is closed when the loop has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

func (s *Scheduler) run(ctx context.Context) {
	s.state = newState(s.cfg, s.cfg.Clock.Now())
	s.logger.Info("scheduler starting",
		"projects", s.cfg.Projects,
		"feedbacks", s.cfg.FeedbackEnabled,
		"assigned_interval", s.cfg.AssignedInterval,
		"feedback_interval", s.cfg.FeedbackInterval,
	)

	s.sync(ctx)
	if ctx.Err() != nil {
		return
	}

	ticker := s.cfg.Clock.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped", "ticks", s.state.Tick, "requests", s.state.TotalRequestsSent)
			return
		case o := <-s.results:
			if ctx.Err() != nil {
				return
			}
			s.apply(o)
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			s.tick(ctx)
		}
	}
}

// sync runs the startup probes and waits for them to settle.
func (s *Scheduler) sync(ctx context.Context) {
	s.dispatchAssigned(ctx)
	if s.cfg.FeedbackEnabled {
		s.dispatchFeedback(ctx)
	}
	for s.pending() {
		select {
		case <-ctx.Done():
			return
		case o := <-s.results:
			if ctx.Err() != nil {
				return
			}
			s.apply(o)
		}
	}
}

func (s *Scheduler) pending() bool {
	for _, busy := range s.inflight {
		if busy {
			return true
		}
	}
	return false
}

// tick runs one clock pulse: evaluate the gates, dispatch what is due and
// publish the settled state.
func (s *Scheduler) tick(ctx context.Context) {
	st := &s.state
	st.advance()

	checkingFeedback := false
	if st.FeedbackEnabled && st.Due(st.FeedbackInterval) {
		checkingFeedback = s.dispatchFeedback(ctx)
	}

	// the assignment concern owns the task line; a feedback check only
	// shows when nothing is being requested
	switch {
	case st.Due(st.AssignedInterval):
		// count-probe ticks never request, even with spare capacity
		s.dispatchAssigned(ctx)
		st.Task = Task{Kind: TaskCheckingAssigned}
	case st.AssignedCount >= Capacity && checkingFeedback:
		st.Task = Task{Kind: TaskCheckingFeedback}
	case st.AssignedCount >= Capacity:
		st.Task = Task{Kind: TaskWaiting, Wait: st.Countdown(st.AssignedInterval)}
	case s.inflight[concernRequest]:
		s.logger.Debug("request still in flight, skipping tick", "tick", st.Tick)
		st.Task = Task{Kind: TaskRequestPending, ProjectID: s.pendingProject}
	default:
		s.dispatchRequest(ctx)
	}

	// no renders once shutdown has begun
	if s.cfg.OnTick != nil && ctx.Err() == nil {
		s.cfg.OnTick(st.Clone())
	}
}

func (s *Scheduler) dispatchAssigned(ctx context.Context) bool {
	return s.dispatch(ctx, concernAssigned, func(ctx context.Context) outcome {
		n, err := s.cfg.Service.AssignedCount(ctx)
		return outcome{count: n, err: err}
	})
}

func (s *Scheduler) dispatchFeedback(ctx context.Context) bool {
	return s.dispatch(ctx, concernFeedback, func(ctx context.Context) outcome {
		items, err := s.cfg.Service.Feedbacks(ctx)
		return outcome{feedback: items, err: err}
	})
}

func (s *Scheduler) dispatchRequest(ctx context.Context) bool {
	st := &s.state
	projectID := st.nextProject()
	st.Task = Task{Kind: TaskRequesting, ProjectID: projectID}
	s.pendingProject = projectID

	return s.dispatch(ctx, concernRequest, func(ctx context.Context) outcome {
		resp, err := s.cfg.Service.RequestAssignment(ctx, projectID)
		return outcome{projectID: projectID, response: resp, err: err}
	})
}

// dispatch starts call in a goroutine unless c already has a call in flight.
// The goroutine reports exactly one outcome on every exit path, including a
// panic, so the in-flight flag is always cleared by apply.
func (s *Scheduler) dispatch(ctx context.Context, c concern, call func(context.Context) outcome) bool {
	if s.inflight[c] {
		s.logger.Debug("call in flight, skipping", "concern", c.String(), "tick", s.state.Tick)
		return false
	}
	s.inflight[c] = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		var o outcome
		defer func() {
			if r := recover(); r != nil {
				correlationID := uuid.NewString()
				s.logger.Error("service call panic",
					"concern", c.String(),
					"correlation_id", correlationID,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				o = outcome{err: fmt.Errorf("%s panic (correlation_id: %s)", c, correlationID)}
			}
			o.concern = c
			// buffered for one outcome per concern; never blocks
			s.results <- o
		}()

		o = call(ctx)
	}()
	return true
}

// apply folds a settled outcome into the state.
func (s *Scheduler) apply(o outcome) {
	s.inflight[o.concern] = false

	switch o.concern {
	case concernAssigned:
		s.applyAssigned(o)
	case concernFeedback:
		s.applyFeedback(o)
	case concernRequest:
		s.applyRequest(o)
	}
}

func (s *Scheduler) applyAssigned(o outcome) {
	if o.err != nil {
		s.logger.Warn("assigned count check failed", "error", o.err.Error(), "stale_count", s.state.AssignedCount)
		return
	}
	count := o.count
	if count > Capacity {
		s.logger.Warn("assigned count above capacity", "count", count, "capacity", Capacity)
		count = Capacity
	}
	if count < 0 {
		count = 0
	}
	s.state.AssignedCount = count
	s.logger.Debug("assigned count synced", "count", count)
}

func (s *Scheduler) applyRequest(o outcome) {
	st := &s.state
	if o.err != nil {
		st.LastError = &RequestError{Message: o.err.Error()}
		s.logger.Warn("assignment request failed", "project_id", o.projectID, "error", o.err.Error())
		return
	}

	switch o.response.StatusCode {
	case 201:
		if st.AssignedCount < Capacity {
			st.AssignedCount++
		}
		st.AssignedTotal++
		s.logger.Info("assignment created",
			"project_id", o.projectID,
			"project", o.response.ProjectName,
			"submission_id", o.response.SubmissionID,
		)
		s.notify(Event{
			Kind:         EventAssigned,
			ProjectID:    o.projectID,
			ProjectName:  o.response.ProjectName,
			SubmissionID: o.response.SubmissionID,
		})
	case 404:
		// nothing to review for this project right now
	default:
		st.LastError = &RequestError{StatusCode: o.response.StatusCode}
		s.logger.Warn("assignment request rejected", "project_id", o.projectID, "status", o.response.StatusCode)
	}
}

func (s *Scheduler) applyFeedback(o outcome) {
	if o.err != nil {
		s.logger.Warn("feedback check failed", "error", o.err.Error())
		return
	}

	items := append([]Feedback(nil), o.feedback...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	st := &s.state
	unread := 0
	for _, fb := range items {
		if !fb.Read {
			unread++
		}
		if st.Seen(fb.ID) {
			continue
		}
		st.SeenFeedbackIDs[fb.ID] = struct{}{}
		if !fb.Read {
			s.notify(Event{
				Kind:         EventFeedback,
				ProjectName:  fb.ProjectName,
				SubmissionID: fb.SubmissionID,
				FeedbackID:   fb.ID,
				Rating:       fb.Rating,
			})
		}
	}
	st.UnreadFeedback = unread

	if s.cfg.OnFeedback != nil {
		s.observeFeedback(items)
	}
}

// observeFeedback hands an applied response to OnFeedback with panic recovery.
func (s *Scheduler) observeFeedback(items []Feedback) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("feedback observer panicked", "panic", r, "items", len(items))
		}
	}()
	s.cfg.OnFeedback(items)
}

// notify delivers ev with panic recovery; a broken notifier must not stop the loop.
func (s *Scheduler) notify(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notifier panicked", "panic", r, "kind", string(ev.Kind))
		}
	}()
	s.cfg.Notifier.Notify(ev)
}
