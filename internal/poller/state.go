package poller

import (
	"fmt"
	"time"
)

// TaskKind describes what the scheduler did on the most recent tick.
type TaskKind int

const (
	TaskStarting TaskKind = iota
	TaskCheckingAssigned
	TaskCheckingFeedback
	TaskRequesting
	TaskRequestPending
	TaskWaiting
)

// Task is the current task shown on the status surface.
type Task struct {
	Kind      TaskKind
	ProjectID int

	// Wait is the number of ticks until the next assigned-count check when
	// Kind is TaskWaiting.
	Wait uint64
}

// RequestError records the last failed assignment request.
//
// StatusCode is zero when the request never produced a response; Message then
// holds the transport error.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e RequestError) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("server responded with %d", e.StatusCode)
}

// State is the mutable state carried across ticks.
//
// A State is owned by a single [Scheduler] and only ever mutated from its loop
// goroutine. Observers receive copies made with [State.Clone].
type State struct {
	// Tick is the index of the current tick, starting at 0.
	Tick      uint64
	StartedAt time.Time

	AssignedCount     int
	AssignedTotal     int
	TotalRequestsSent uint64

	ProjectQueue []int
	QueueCursor  int

	LastError *RequestError

	SeenFeedbackIDs map[int]struct{}
	UnreadFeedback  int

	TokenExpiryDay int

	FeedbackEnabled   bool
	ShowAssignedTotal bool
	AssignedInterval  uint64
	FeedbackInterval  uint64

	Task Task

	running bool
}

// advance moves to the next tick. The first call leaves Tick at 0.
func (st *State) advance() uint64 {
	if st.running {
		st.Tick++
	}
	st.running = true
	return st.Tick
}

// nextProject returns the project for the next request and moves the cursor.
func (st *State) nextProject() int {
	st.QueueCursor = int(st.TotalRequestsSent % uint64(len(st.ProjectQueue)))
	id := st.ProjectQueue[st.QueueCursor]
	st.LastError = nil
	st.TotalRequestsSent++
	st.QueueCursor = int(st.TotalRequestsSent % uint64(len(st.ProjectQueue)))
	return id
}

// Seen reports whether a feedback id has already been observed.
func (st *State) Seen(id int) bool {
	_, ok := st.SeenFeedbackIDs[id]
	return ok
}

// Due reports whether a gate with the given period fires on the current tick.
// Tick 0 never fires a gate; the startup sync covers it.
func (st *State) Due(interval uint64) bool {
	return gateDue(st.Tick, interval)
}

// Countdown returns the ticks left until the next firing of a gate.
func (st *State) Countdown(interval uint64) uint64 {
	if interval == 0 {
		return 0
	}
	return interval - st.Tick%interval
}

// Clone returns a deep copy of the state.
func (st *State) Clone() State {
	cp := *st
	cp.ProjectQueue = append([]int(nil), st.ProjectQueue...)
	cp.SeenFeedbackIDs = make(map[int]struct{}, len(st.SeenFeedbackIDs))
	for id := range st.SeenFeedbackIDs {
		cp.SeenFeedbackIDs[id] = struct{}{}
	}
	if st.LastError != nil {
		e := *st.LastError
		cp.LastError = &e
	}
	return cp
}

func gateDue(tick, interval uint64) bool {
	return interval > 0 && tick > 0 && tick%interval == 0
}
