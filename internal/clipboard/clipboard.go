// Package clipboard reads and writes the system clipboard.
package clipboard

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Clipboard is the text clipboard.
type Clipboard interface {
	Read(ctx context.Context) (string, error)
	// Write replaces the clipboard content with everything read from r.
	Write(ctx context.Context, r io.Reader) error
}

// X11 uses xsel to read the CLIPBOARD selection and xclip to write it.
type X11 struct {
	// Xsel and Xclip override the executables.
	Xsel  string
	Xclip string
}

// Read implements Clipboard.
func (x X11) Read(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, orDefault(x.Xsel, "xsel"), "-b").Output()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return string(out), nil
}

// Write implements Clipboard.
//
// xclip forks a child that keeps serving the selection until another program
// takes it. The child inherits stdout and stderr, so they are left unset:
// capturing them would block until the selection is lost.
func (x X11) Write(ctx context.Context, r io.Reader) error {
	cmd := exec.CommandContext(ctx, orDefault(x.Xclip, "xclip"), "-sel", "clip")
	cmd.Stdin = r
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Memory is an in-process clipboard.
type Memory struct {
	mu   sync.Mutex
	text string
}

// NewMemory returns a Memory clipboard holding text.
func NewMemory(text string) *Memory {
	return &Memory{text: text}
}

// Read implements Clipboard.
func (m *Memory) Read(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// Write implements Clipboard.
func (m *Memory) Write(ctx context.Context, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = string(b)
	return nil
}
