package reviewq

import (
	"bytes"
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

// fakeService answers from canned values and records requested projects.
type fakeService struct {
	mu        sync.Mutex
	assigned  int
	responses []AssignResponse
	feedback  []Feedback
	requested []int
}

func (f *fakeService) AssignedCount(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assigned, nil
}

func (f *fakeService) RequestAssignment(_ context.Context, projectID int) (AssignResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, projectID)
	if len(f.responses) == 0 {
		return AssignResponse{StatusCode: 404}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *fakeService) Feedbacks(context.Context) ([]Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feedback, nil
}

func (f *fakeService) Requested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.requested...)
}

// manualClock is a Clock whose single ticker is fed by the test.
type manualClock struct {
	now time.Time
	ch  chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{
		now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		ch:  make(chan time.Time),
	}
}

func (c *manualClock) Now() time.Time                 { return c.now }
func (c *manualClock) NewTicker(time.Duration) Ticker { return c }
func (c *manualClock) C() <-chan time.Time            { return c.ch }
func (c *manualClock) Stop()                          {}

// Tick delivers one pulse, failing the test if nobody is listening.
func (c *manualClock) Tick(t *testing.T) {
	t.Helper()
	select {
	case c.ch <- c.now:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not accept tick")
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent use.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// settle gives the scheduler loop time to apply a finished call before the
// next tick is sent.
func settle() {
	time.Sleep(20 * time.Millisecond)
}

// startWatcher runs w.Start in the background and returns a stop function
// that cancels it and checks it returned nil.
func startWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	return func() {
		t.Helper()
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Start() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Start() did not return after cancel")
		}
	}
}
