package clipboard

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestMemory(t *testing.T) {
	t.Parallel()
	var c Clipboard = NewMemory("before")
	got, err := c.Read(t.Context())
	if err != nil || got != "before" {
		t.Fatalf("Read() = %q, %v", got, err)
	}
	if err := c.Write(t.Context(), strings.NewReader("after\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got, _ := c.Read(t.Context()); got != "after\n" {
		t.Errorf("Read() = %q, want %q", got, "after\n")
	}
}

// script writes an executable shell script named name in dir.
func script(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestX11(t *testing.T) {
	t.Parallel()

	t.Run("Read", func(t *testing.T) {
		t.Parallel()
		x := X11{Xsel: script(t, t.TempDir(), "xsel", `printf 'vex code\n'`)}
		got, err := x.Read(t.Context())
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if got != "vex code\n" {
			t.Errorf("Read() = %q", got)
		}
	})

	t.Run("Write returns while the selection is served", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		out := filepath.Join(dir, "selection")
		// Like xclip, stay in the background holding the selection.
		x := X11{Xclip: script(t, dir, "xclip", `cat > '`+out+`'
(sleep 5) &
exit 0`)}
		start := time.Now()
		if err := x.Write(t.Context(), strings.NewReader("print(1)")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if d := time.Since(start); d > 3*time.Second {
			t.Errorf("Write took %s, it waited for the background owner", d)
		}
		got, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "print(1)" {
			t.Errorf("selection = %q", got)
		}
	})

	t.Run("Write failure", func(t *testing.T) {
		t.Parallel()
		x := X11{Xclip: script(t, t.TempDir(), "xclip", `cat >/dev/null; exit 1`)}
		if err := x.Write(t.Context(), strings.NewReader("x")); err == nil {
			t.Error("Write should fail")
		}
	})
}
