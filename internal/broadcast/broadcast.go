// Package broadcast displays user-facing notifications through zero or more
// channels.
//
// Notifications are purely observational: a failing channel is logged and
// never changes the outcome of the operation that emitted the message.
package broadcast

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Severity ranks a notification. The values match the host application's
// own severity scale.
type Severity int

const (
	// Message is an informational notification.
	Message Severity = iota
	// Important is an informational notification the user should not miss.
	Important
	// Warning reports a problem that stopped nothing important.
	Warning
	// Error reports a failed operation.
	Error
	// Fatal reports a failure the user must act upon.
	Fatal
)

var severityLabels = [...]string{"", "Important!", "Warning!", "Error!", "Fatal!"}

// Label returns the short prefix shown before a message of this severity.
func (s Severity) Label() string {
	return severityLabels[s.clamp()]
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s.clamp() {
	case Important:
		return "important"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	default:
		return "message"
	}
}

// Level maps the severity to a slog level.
func (s Severity) Level() slog.Level {
	switch s.clamp() {
	case Important:
		return slog.LevelInfo
	case Warning:
		return slog.LevelWarn
	case Error, Fatal:
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func (s Severity) clamp() Severity {
	if s < Message {
		return Message
	}
	if s > Fatal {
		return Fatal
	}
	return s
}

// Sink accepts notifications.
type Sink interface {
	Broadcast(ctx context.Context, msg string, sev Severity) error
}

// Multi fans a notification out to every channel.
//
// Channel failures are logged; Broadcast on a Multi always returns nil.
type Multi []Sink

// Broadcast implements Sink.
func (m Multi) Broadcast(ctx context.Context, msg string, sev Severity) error {
	for _, s := range m {
		if err := s.Broadcast(ctx, msg, sev); err != nil {
			slog.WarnContext(ctx, "Notification channel failed", "err", err)
		}
	}
	return nil
}

// Log forwards notifications to the default slog logger.
type Log struct{}

// Broadcast implements Sink.
func (Log) Broadcast(ctx context.Context, msg string, sev Severity) error {
	slog.Log(ctx, sev.Level(), msg, "severity", sev.String())
	return nil
}

// Notice is one recorded notification.
type Notice struct {
	Msg      string
	Severity Severity
}

// Recorder keeps every notification in memory. Useful in tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Broadcast implements Sink.
func (r *Recorder) Broadcast(_ context.Context, msg string, sev Severity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Msg: msg, Severity: sev})
	return nil
}

// Notices returns a copy of the recorded notifications in emission order.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

var errUnknownChannel = errors.New("unknown notification channel")
