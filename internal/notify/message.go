package notify

import (
	"fmt"

	"github.com/jpalmerr/reviewq/internal/poller"
)

// SubmissionURL is the reviewer page for a submission.
const SubmissionURL = "https://review.udacity.com/#!/submissions/%d"

// Message is the user-facing form of an event.
type Message struct {
	Title string
	Body  string
	URL   string
	Sound string
}

// MessageFor renders ev.
func MessageFor(ev poller.Event) Message {
	switch ev.Kind {
	case poller.EventAssigned:
		return Message{
			Title: "New Review Assigned!",
			Body:  fmt.Sprintf("%s, ID: %d", ev.ProjectName, ev.SubmissionID),
			URL:   fmt.Sprintf(SubmissionURL, ev.SubmissionID),
			Sound: "Ping",
		}
	case poller.EventFeedback:
		return Message{
			Title: "New Feedback Received!",
			Body:  fmt.Sprintf("%s, rating: %d/5", ev.ProjectName, ev.Rating),
			URL:   fmt.Sprintf(SubmissionURL, ev.SubmissionID),
			Sound: "Glass",
		}
	default:
		return Message{Title: "reviewq", Body: string(ev.Kind)}
	}
}
