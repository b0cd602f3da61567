package host

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileBridge is used when the host runs the tool from a shelf button: the
// host has just copied its selection, and the category of that selection is
// passed on the command line. Copy then only waits for the host to finish
// writing its clipboard file.
type FileBridge struct {
	// Category is the node category of the host selection. Empty means
	// nothing is selected.
	Category string
	// Wait bounds how long Copy waits for the clipboard file to appear.
	Wait time.Duration
}

// Selection implements Bridge.
func (b *FileBridge) Selection(ctx context.Context) ([]Item, error) {
	if b.Category == "" {
		return nil, nil
	}
	return []Item{{Kind: Node, Category: b.Category}}, nil
}

// Copy implements Bridge. It returns once path exists, or once Wait expires;
// the caller detects a missing file.
func (b *FileBridge) Copy(ctx context.Context, items []Item, path string) error {
	if _, err := os.Stat(path); err == nil || b.Wait <= 0 {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create host temporary directory: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer func() { _ = w.Close() }()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	// The file may have appeared before the watch was set up.
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	slog.DebugContext(ctx, "Waiting for host clipboard file", "path", path, "wait", b.Wait)
	timer := time.NewTimer(b.Wait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			slog.WarnContext(ctx, "Host clipboard file did not appear", "path", path)
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == filepath.Clean(path) && (event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) {
				return nil
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching host temporary directory", "err", err)
		}
	}
}

// Static is a Bridge holding a fixed selection. Copy writes Payload to the
// requested path; a nil Payload writes nothing, like a host that failed to
// copy.
type Static struct {
	Items   []Item
	Payload []byte

	// Copied records the path of the last Copy call.
	Copied string
}

// Selection implements Bridge.
func (s *Static) Selection(ctx context.Context) ([]Item, error) {
	return s.Items, nil
}

// Copy implements Bridge.
func (s *Static) Copy(ctx context.Context, items []Item, path string) error {
	s.Copied = path
	if s.Payload == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, s.Payload, 0o644)
}
