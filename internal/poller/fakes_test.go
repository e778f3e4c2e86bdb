package poller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// testLogger returns a logger that discards all output for clean test output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeService implements Service with swappable behaviour and call recording.
type fakeService struct {
	mu sync.Mutex

	count    func(ctx context.Context) (int, error)
	request  func(ctx context.Context, projectID int) (AssignResponse, error)
	feedback func(ctx context.Context) ([]Feedback, error)

	countCalls    int
	feedbackCalls int
	requested     []int
}

func newFakeService() *fakeService {
	return &fakeService{
		count: func(context.Context) (int, error) { return 0, nil },
		request: func(context.Context, int) (AssignResponse, error) {
			return AssignResponse{StatusCode: 404}, nil
		},
		feedback: func(context.Context) ([]Feedback, error) { return nil, nil },
	}
}

func (f *fakeService) AssignedCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.countCalls++
	fn := f.count
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeService) RequestAssignment(ctx context.Context, projectID int) (AssignResponse, error) {
	f.mu.Lock()
	f.requested = append(f.requested, projectID)
	fn := f.request
	f.mu.Unlock()
	return fn(ctx, projectID)
}

func (f *fakeService) Feedbacks(ctx context.Context) ([]Feedback, error) {
	f.mu.Lock()
	f.feedbackCalls++
	fn := f.feedback
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeService) Requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.requested...)
}

func (f *fakeService) CountCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countCalls
}

func (f *fakeService) FeedbackCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedbackCalls
}

// eventRecorder collects notified events.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Notify(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *eventRecorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// manualClock is a Clock whose single ticker is fed by the test.
type manualClock struct {
	now    time.Time
	ticks  chan time.Time
	stopMu sync.Mutex
	closed bool
}

func newManualClock(now time.Time) *manualClock {
	return &manualClock{now: now, ticks: make(chan time.Time)}
}

func (c *manualClock) Now() time.Time                 { return c.now }
func (c *manualClock) NewTicker(time.Duration) Ticker { return c }
func (c *manualClock) C() <-chan time.Time            { return c.ticks }

func (c *manualClock) Stop() {
	c.stopMu.Lock()
	c.closed = true
	c.stopMu.Unlock()
}

// Tick delivers one pulse, failing the test if the loop does not take it.
func (c *manualClock) Tick(t *testing.T) {
	t.Helper()
	select {
	case c.ticks <- c.now:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not accept tick")
	}
}

// waitStarted blocks until a held service call signals it has begun.
func waitStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("service call never started")
	}
}

// newTestScheduler builds a scheduler with initialised state but no loop, so
// tests can drive tick and apply directly.
func newTestScheduler(t *testing.T, cfg Config) *Scheduler {
	t.Helper()
	s, err := NewScheduler(cfg, testLogger())
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	s.state = newState(s.cfg, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	return s
}

// settle applies outcomes until no call is in flight.
func settle(t *testing.T, s *Scheduler) {
	t.Helper()
	for s.pending() {
		select {
		case o := <-s.results:
			s.apply(o)
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for outcome")
		}
	}
}

// step runs one tick and waits for everything it dispatched to settle.
func step(t *testing.T, s *Scheduler) {
	t.Helper()
	s.tick(context.Background())
	settle(t, s)
}
