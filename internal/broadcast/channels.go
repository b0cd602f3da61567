// Concrete notification channels: standard output and desktop notifications.

package broadcast

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Stdout prints notifications prefixed with the program name.
type Stdout struct {
	W io.Writer
}

// Broadcast implements Sink.
func (s Stdout) Broadcast(_ context.Context, msg string, sev Severity) error {
	_, err := fmt.Fprintf(s.W, "houclip: %s %s\n", sev.Label(), msg)
	return err
}

// NotifySend shows desktop notifications through the notify-send program.
//
// freedesktop notifications only have three urgency levels, so
// severities are folded onto them.
type NotifySend struct {
	// Summary is the notification title. Defaults to "Houclip".
	Summary string
}

var notifyParams = [...]struct {
	urgency string
	icon    string
}{
	Message:   {"low", "dialog-information"},
	Important: {"low", "dialog-information"},
	Warning:   {"normal", "dialog-warning"},
	Error:     {"critical", "dialog-error"},
	Fatal:     {"critical", "dialog-error"},
}

// Args returns the notify-send command line for a notification.
func (n NotifySend) Args(msg string, sev Severity) []string {
	summary := n.Summary
	if summary == "" {
		summary = "Houclip"
	}
	p := notifyParams[sev.clamp()]
	return []string{"-a", "houclip", "-u", p.urgency, "-i", p.icon, summary, msg}
}

// Broadcast implements Sink.
func (n NotifySend) Broadcast(ctx context.Context, msg string, sev Severity) error {
	cmd := exec.CommandContext(ctx, "notify-send", n.Args(msg, sev)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify-send failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Channels lists the channel names New accepts.
var Channels = []string{"stdout", "notify-send", "log"}

// New builds a Multi sink from channel names.
func New(channels []string, stdout io.Writer) (Multi, error) {
	var m Multi
	for _, c := range channels {
		switch c {
		case "stdout":
			m = append(m, Stdout{W: stdout})
		case "notify-send":
			m = append(m, NotifySend{})
		case "log":
			m = append(m, Log{})
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownChannel, c)
		}
	}
	return m, nil
}
