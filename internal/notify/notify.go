package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/jpalmerr/reviewq/internal/poller"
)

const (
	osDarwin = "darwin"

	appName = "reviewq"

	// clickTool opens the notification URL on click; plain desktop
	// notifications cannot.
	clickTool = "terminal-notifier"
)

// deliveryTimeout bounds a single notification.
const deliveryTimeout = 10 * time.Second

// ErrUnsupported is returned when the platform has no notification support.
var ErrUnsupported = errors.New("desktop notifications not supported on this platform")

// Runner executes an external command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func beeepNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Desktop shows events as desktop notifications through beeep. On macOS,
// when terminal-notifier is installed, events with a URL go through it
// instead so a click opens the submission.
//
// Notify never blocks: each delivery runs in its own goroutine. Call
// [Desktop.Close] to wait for outstanding deliveries.
type Desktop struct {
	goos     string
	notify   func(title, message string) error
	run      Runner
	lookPath func(string) (string, error)
	logger   *slog.Logger

	wg sync.WaitGroup
}

// NewDesktop creates a [Desktop] notifier for the current platform.
func NewDesktop(logger *slog.Logger) *Desktop {
	beeep.AppName = appName
	return &Desktop{
		goos:     runtime.GOOS,
		notify:   beeepNotify,
		run:      execRunner,
		lookPath: exec.LookPath,
		logger:   logger,
	}
}

// Notify implements [poller.Notifier].
func (d *Desktop) Notify(ev poller.Event) {
	msg := MessageFor(ev)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()

		if err := d.Send(ctx, msg); err != nil {
			d.logger.Warn("desktop notification failed", "kind", ev.Kind, "error", err)
		}
	}()
}

// Send delivers msg synchronously.
func (d *Desktop) Send(ctx context.Context, msg Message) error {
	if d.clickable(msg) {
		return d.run(ctx, clickTool, clickArgs(msg)...)
	}

	body := msg.Body
	if msg.URL != "" {
		body += "\n" + msg.URL
	}

	// beeep takes no context
	errc := make(chan error, 1)
	go func() { errc <- d.notify(msg.Title, body) }()
	select {
	case err := <-errc:
		if errors.Is(err, beeep.ErrUnsupported) {
			return fmt.Errorf("%w: %s", ErrUnsupported, d.goos)
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for outstanding deliveries.
func (d *Desktop) Close() {
	d.wg.Wait()
}

func (d *Desktop) clickable(msg Message) bool {
	if d.goos != osDarwin || msg.URL == "" {
		return false
	}
	_, err := d.lookPath(clickTool)
	return err == nil
}

func clickArgs(msg Message) []string {
	args := []string{"-title", msg.Title, "-message", msg.Body, "-open", msg.URL}
	if msg.Sound != "" {
		args = append(args, "-sound", msg.Sound)
	}
	return args
}

// Log writes events to a logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a [Log] notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

// Notify implements [poller.Notifier].
func (l *Log) Notify(ev poller.Event) {
	msg := MessageFor(ev)
	l.logger.Info(msg.Title,
		"kind", ev.Kind,
		"project_id", ev.ProjectID,
		"project_name", ev.ProjectName,
		"submission_id", ev.SubmissionID,
		"feedback_id", ev.FeedbackID,
		"url", msg.URL,
	)
}

// Multi delivers each event to every notifier in order.
type Multi []poller.Notifier

// Notify implements [poller.Notifier].
func (m Multi) Notify(ev poller.Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ev)
		}
	}
}
