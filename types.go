package reviewq

import "github.com/jpalmerr/reviewq/internal/poller"

// Capacity is the maximum number of submissions a reviewer may hold at once.
const Capacity = poller.Capacity

// Service is the remote review service. It reads the assigned count, requests
// assignments and lists recent feedback.
//
// Implementations must honour context cancellation; [Watcher.Start] cancels
// outstanding calls on shutdown.
type Service = poller.Service

// AssignResponse is the outcome of a request-assignment call.
type AssignResponse = poller.AssignResponse

// Feedback is a single student feedback item.
type Feedback = poller.Feedback

// Event is a notification emitted while watching: a new assignment, or an
// unread feedback item seen for the first time.
type Event = poller.Event

// EventKind identifies an [Event].
type EventKind = poller.EventKind

const (
	EventAssigned = poller.EventAssigned
	EventFeedback = poller.EventFeedback
)

// Notifier receives events. Notify must not block.
type Notifier = poller.Notifier

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc = poller.NotifierFunc

// Clock supplies time and tickers to the watcher.
type Clock = poller.Clock

// Ticker is a source of clock pulses.
type Ticker = poller.Ticker
