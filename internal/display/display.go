// Package display draws status snapshots on a terminal.
package display

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jpalmerr/reviewq/internal/status"
	"github.com/jpalmerr/reviewq/internal/store"
)

// clearScreen moves the cursor home and clears the screen.
const clearScreen = "\x1b[H\x1b[2J"

type styles struct {
	label   lipgloss.Style
	detail  lipgloss.Style
	note    lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
	hint    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		label:   r.NewStyle().Bold(true),
		detail:  r.NewStyle().Foreground(lipgloss.Color("6")),
		note:    r.NewStyle().Foreground(lipgloss.Color("244")),
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		err:     r.NewStyle().Foreground(lipgloss.Color("1")),
		hint:    r.NewStyle().Faint(true),
	}
}

// Display redraws the latest snapshot in place.
//
// On a terminal each draw clears the screen first. Otherwise snapshots are
// appended, separated by a blank line, without styling.
type Display struct {
	w           io.Writer
	styles      styles
	interactive bool
}

// Option configures a [Display].
type Option func(*Display)

// WithInteractive overrides terminal detection.
func WithInteractive(interactive bool) Option {
	return func(d *Display) {
		d.interactive = interactive
	}
}

// New creates a [Display] writing to w.
func New(w io.Writer, opts ...Option) *Display {
	d := &Display{
		w:           w,
		styles:      newStyles(lipgloss.NewRenderer(w)),
		interactive: IsTerminal(w),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether the display redraws in place.
func (d *Display) Interactive() bool {
	return d.interactive
}

// Render formats snap with styles.
func (d *Display) Render(snap status.Snapshot) string {
	var b strings.Builder
	for _, l := range snap.Lines {
		b.WriteString(d.renderLine(l))
		b.WriteByte('\n')
	}
	return b.String()
}

func (d *Display) renderLine(l status.Line) string {
	s := d.styles
	switch l.Level {
	case status.LevelWarning:
		return s.warning.Render(l.Value)
	case status.LevelError:
		return s.err.Render(l.Value)
	case status.LevelHint:
		return s.hint.Render(l.Value)
	case status.LevelDetail:
		out := s.detail.Render("-> "+l.Label+":") + " " + l.Value
		if l.Note != "" {
			out += s.note.Render(" - " + l.Note)
		}
		return out
	default:
		if l.Label == "" {
			return l.Value
		}
		return s.label.Render(l.Label+":") + " " + l.Value
	}
}

// Draw writes one snapshot.
func (d *Display) Draw(snap status.Snapshot) error {
	out := d.Render(snap)
	if d.interactive {
		out = clearScreen + out
	} else {
		out += "\n"
	}
	_, err := io.WriteString(d.w, out)
	return err
}

// Run draws every snapshot published to st until ctx is cancelled.
func (d *Display) Run(ctx context.Context, st store.Store) error {
	ch := st.Subscribe()
	defer st.Unsubscribe(ch)

	if snap, ok := st.Latest(); ok {
		if err := d.Draw(snap); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ch:
			if !ok {
				return nil
			}
			if err := d.Draw(snap); err != nil {
				return err
			}
		}
	}
}
