package notify

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// TerminalBackend writes notifications to the terminal. It is the
// guaranteed last-resort backend: always available and never fails.
type TerminalBackend struct {
	out io.Writer
	now func() time.Time
}

// NewTerminalBackend writes to stdout.
func NewTerminalBackend() *TerminalBackend {
	return &TerminalBackend{out: os.Stdout, now: time.Now}
}

func (t *TerminalBackend) Name() string { return "terminal" }

func (t *TerminalBackend) Available() bool { return true }

// Attempt always succeeds; a write failure to the terminal is not worth
// surfacing as a missed notification.
func (t *TerminalBackend) Attempt(ctx context.Context, title, message string, d time.Duration) error {
	bold := color.New(color.FgYellow, color.Bold)
	stamp := t.now().Format("15:04:05")
	bold.Fprintf(t.out, "\n[%s] %s\n", stamp, title)
	color.New(color.FgWhite).Fprintf(t.out, "  %s\n", message)
	return nil
}
