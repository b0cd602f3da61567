// Package menu asks the user for input through a dmenu compatible launcher.
//
// An empty answer means the user cancelled. Launchers exit non-zero when the
// user presses Escape; that is reported as an empty answer, not an error.
package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Menu prompts the user.
type Menu interface {
	// Enter asks for free text.
	Enter(ctx context.Context, prompt string) (string, error)
	// Select asks the user to pick one of items. The answer may be a line
	// that is not in items when the launcher allows free input.
	Select(ctx context.Context, prompt string, items []string) (string, error)
}

// New returns the launcher named program: "dmenu" or "rofi". theme is only
// used by rofi.
func New(program, theme string) (Menu, error) {
	switch strings.ToLower(program) {
	case "", "dmenu":
		return &Dmenu{}, nil
	case "rofi":
		return &Rofi{Theme: theme}, nil
	default:
		return nil, fmt.Errorf("unknown menu program %q", program)
	}
}

// Dmenu runs dmenu.
type Dmenu struct {
	// Program overrides the executable, "dmenu" by default.
	Program string
	// Lines is the number of vertical lines shown when selecting, 25 by default.
	Lines int
}

// Enter implements Menu.
func (d *Dmenu) Enter(ctx context.Context, prompt string) (string, error) {
	out, err := run(ctx, d.program(), d.enterArgs(prompt), nil)
	return strings.TrimSpace(out), err
}

// Select implements Menu.
func (d *Dmenu) Select(ctx context.Context, prompt string, items []string) (string, error) {
	out, err := run(ctx, d.program(), d.selectArgs(prompt), items)
	return strings.TrimRight(out, "\r\n"), err
}

func (d *Dmenu) program() string {
	if d.Program == "" {
		return "dmenu"
	}
	return d.Program
}

func (d *Dmenu) enterArgs(prompt string) []string {
	return []string{"-p", prompt}
}

func (d *Dmenu) selectArgs(prompt string) []string {
	lines := d.Lines
	if lines <= 0 {
		lines = 25
	}
	args := []string{"-i", "-l", fmt.Sprint(lines)}
	if prompt != "" {
		args = append(args, "-p", prompt)
	}
	return args
}

// Rofi runs rofi in dmenu mode.
type Rofi struct {
	// Program overrides the executable, "rofi" by default.
	Program string
	Theme   string
}

// Enter implements Menu.
func (r *Rofi) Enter(ctx context.Context, prompt string) (string, error) {
	out, err := run(ctx, r.program(), r.args(prompt, false), nil)
	return strings.TrimSpace(out), err
}

// Select implements Menu.
func (r *Rofi) Select(ctx context.Context, prompt string, items []string) (string, error) {
	out, err := run(ctx, r.program(), r.args(prompt, true), items)
	return strings.TrimRight(out, "\r\n"), err
}

func (r *Rofi) program() string {
	if r.Program == "" {
		return "rofi"
	}
	return r.Program
}

func (r *Rofi) args(prompt string, insensitive bool) []string {
	var args []string
	if r.Theme != "" {
		args = append(args, "-theme", r.Theme)
	}
	args = append(args, "-dmenu")
	if insensitive {
		args = append(args, "-i")
	}
	return append(args, "-p", prompt)
}

// run starts the launcher with items on stdin, one per line, and returns its
// output. stdin is empty when items is nil.
func run(ctx context.Context, program string, args, items []string) (string, error) {
	cmd := exec.CommandContext(ctx, program, args...)
	if items != nil {
		cmd.Stdin = strings.NewReader(strings.Join(items, "\n"))
	}
	out, err := cmd.Output()
	if err != nil {
		if ee := (*exec.ExitError)(nil); errors.As(err, &ee) {
			slog.DebugContext(ctx, "Menu cancelled", "program", program, "exit", ee.ExitCode())
			return "", nil
		}
		return "", fmt.Errorf("failed to run %s: %w", program, err)
	}
	return string(out), nil
}
