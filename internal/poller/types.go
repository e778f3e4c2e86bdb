package poller

import (
	"context"
	"time"
)

// Capacity is the maximum number of assignments a reviewer may hold at once.
const Capacity = 2

// Default gate periods, in ticks.
const (
	DefaultAssignedInterval = 60
	DefaultFeedbackInterval = 300
	DefaultTickPeriod       = time.Second
)

// AssignResponse is the outcome of a request-assignment call.
//
// StatusCode is always set when the call reached the service. SubmissionID and
// ProjectName are only meaningful for a 201.
type AssignResponse struct {
	StatusCode   int
	SubmissionID int
	ProjectName  string
}

// Feedback is a single student feedback item.
type Feedback struct {
	ID           int
	Read         bool
	Rating       int
	ProjectName  string
	SubmissionID int
	CreatedAt    time.Time
}

// AssignedCounter reads the reviewer's current number of active assignments.
type AssignedCounter interface {
	AssignedCount(ctx context.Context) (int, error)
}

// AssignmentRequester asks the service for a new assignment on a project.
type AssignmentRequester interface {
	RequestAssignment(ctx context.Context, projectID int) (AssignResponse, error)
}

// FeedbackSource lists recent feedback, roughly the last 30 days.
type FeedbackSource interface {
	Feedbacks(ctx context.Context) ([]Feedback, error)
}

// Service is the remote review service as seen by the scheduler.
type Service interface {
	AssignedCounter
	AssignmentRequester
	FeedbackSource
}

// EventKind identifies a notification event.
type EventKind string

const (
	// EventAssigned is emitted when a request-assignment call returns 201.
	EventAssigned EventKind = "assigned"

	// EventFeedback is emitted for each unread feedback item seen for the first time.
	EventFeedback EventKind = "feedback"
)

// Event is a notification emitted by the scheduler.
type Event struct {
	Kind         EventKind
	ProjectID    int
	ProjectName  string
	SubmissionID int
	FeedbackID   int
	Rating       int
}

// Notifier receives events. Notify is called from the scheduler loop and must
// not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(Event)

// Notify calls f(ev).
func (f NotifierFunc) Notify(ev Event) { f(ev) }
