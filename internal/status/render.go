package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jpalmerr/reviewq/internal/poller"
)

// tokenWarningDays is how close to expiry the token warning appears.
const tokenWarningDays = 5

// Level classifies a line for styling.
type Level string

const (
	LevelInfo    Level = "info"
	LevelDetail  Level = "detail"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelHint    Level = "hint"
)

// Line is one row of the status surface.
//
// Label and Value are kept apart so the display can style them differently.
// Note carries the countdown shown after a value, if any.
type Line struct {
	Level Level  `json:"level"`
	Label string `json:"label,omitempty"`
	Value string `json:"value"`
	Note  string `json:"note,omitempty"`
}

// String renders the line as plain text.
func (l Line) String() string {
	var b strings.Builder
	if l.Level == LevelDetail {
		b.WriteString("-> ")
	}
	if l.Label != "" {
		b.WriteString(l.Label)
		b.WriteString(": ")
	}
	b.WriteString(l.Value)
	if l.Note != "" {
		b.WriteString(" - ")
		b.WriteString(l.Note)
	}
	return b.String()
}

// Snapshot is a rendered view of the scheduler state at one tick.
type Snapshot struct {
	Tick             uint64    `json:"tick"`
	RenderedAt       time.Time `json:"rendered_at"`
	Uptime           string    `json:"uptime"`
	Task             string    `json:"task"`
	TotalRequests    uint64    `json:"total_requests"`
	Assigned         int       `json:"assigned"`
	AssignedTotal    int       `json:"assigned_total"`
	UnreadFeedback   int       `json:"unread_feedback"`
	FeedbackEnabled  bool      `json:"feedback_enabled"`
	LastError        string    `json:"last_error,omitempty"`
	TokenExpiresSoon bool      `json:"token_expires_soon"`
	Lines            []Line    `json:"lines"`
}

// String renders all lines as plain text, one per row.
func (s Snapshot) String() string {
	rows := make([]string, len(s.Lines))
	for i, l := range s.Lines {
		rows[i] = l.String()
	}
	return strings.Join(rows, "\n")
}

// Render builds the status snapshot for st.
//
// Render is a pure function of its arguments: it never mutates st, and two
// calls with the same inputs produce identical snapshots. today is the
// current [poller.OrdinalDay].
func Render(st poller.State, now time.Time, today int) Snapshot {
	snap := Snapshot{
		Tick:            st.Tick,
		RenderedAt:      now,
		Uptime:          humanDuration(now.Sub(st.StartedAt)),
		Task:            describeTask(st),
		TotalRequests:   st.TotalRequestsSent,
		Assigned:        st.AssignedCount,
		AssignedTotal:   st.AssignedTotal,
		UnreadFeedback:  st.UnreadFeedback,
		FeedbackEnabled: st.FeedbackEnabled,
	}

	var lines []Line

	daysLeft := st.TokenExpiryDay - today
	if daysLeft < tokenWarningDays {
		snap.TokenExpiresSoon = true
		lines = append(lines, Line{Level: LevelWarning, Value: tokenWarning(daysLeft)})
	}

	lines = append(lines,
		Line{Level: LevelInfo, Label: "Uptime", Value: snap.Uptime},
		Line{Level: LevelInfo, Label: "Current task", Value: snap.Task},
		Line{Level: LevelInfo, Label: "Total requests for assignments", Value: fmt.Sprint(st.TotalRequestsSent)},
	)
	if st.ShowAssignedTotal {
		lines = append(lines, Line{Level: LevelInfo, Label: "Assigned this session", Value: fmt.Sprint(st.AssignedTotal)})
	}

	assignedNote := "checking..."
	if !st.Due(st.AssignedInterval) {
		assignedNote = fmt.Sprintf("updating in %d seconds", st.Countdown(st.AssignedInterval))
	}
	lines = append(lines, Line{
		Level: LevelDetail,
		Label: "Currently assigned",
		Value: fmt.Sprint(st.AssignedCount),
		Note:  assignedNote,
	})

	if st.FeedbackEnabled {
		fbNote := "checking..."
		if !st.Due(st.FeedbackInterval) {
			wait := time.Duration(st.Countdown(st.FeedbackInterval)) * time.Second
			fbNote = "updating in " + humanDuration(wait)
		}
		lines = append(lines, Line{
			Level: LevelDetail,
			Label: "Unread feedbacks",
			Value: fmt.Sprint(st.UnreadFeedback),
			Note:  fbNote,
		})
	}

	if st.LastError != nil {
		snap.LastError = lastErrorText(*st.LastError)
		lines = append(lines, Line{Level: LevelError, Value: snap.LastError})
	}

	lines = append(lines, Line{Level: LevelHint, Value: "Press ctrl+c to exit"})
	snap.Lines = lines
	return snap
}

func describeTask(st poller.State) string {
	switch st.Task.Kind {
	case poller.TaskCheckingAssigned:
		return "checking assigned"
	case poller.TaskCheckingFeedback:
		return "checking feedback"
	case poller.TaskRequesting:
		return fmt.Sprintf("requesting assignment for project %d", st.Task.ProjectID)
	case poller.TaskRequestPending:
		return fmt.Sprintf("waiting on request for project %d", st.Task.ProjectID)
	case poller.TaskWaiting:
		return fmt.Sprintf("max assigned, waiting %ds", st.Task.Wait)
	default:
		return "starting"
	}
}

func tokenWarning(daysLeft int) string {
	switch {
	case daysLeft < 0:
		return fmt.Sprintf("Token expired %s ago", plural(-daysLeft, "day"))
	case daysLeft == 0:
		return "Token expires today"
	case daysLeft == 1:
		return "Token expires tomorrow"
	default:
		return fmt.Sprintf("Token expires in %s", plural(daysLeft, "day"))
	}
}

func lastErrorText(e poller.RequestError) string {
	if e.StatusCode == 0 {
		return "Request failed: " + e.Message
	}
	return fmt.Sprintf("Server responded with %d", e.StatusCode)
}

// humanDuration formats d like "3 minutes" or "2 hours".
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	var zero time.Time
	return strings.TrimSpace(humanize.RelTime(zero, zero.Add(d), "", ""))
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
