// Defines the on-disk repository layout and its bootstrap.

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maruel/houclip/internal/category"
)

// Layout locates index and content files under a repository root:
//
//	{root}/{category}.csv
//	{root}/{category}/{id}
type Layout struct {
	Root string
}

// IndexPath returns the index file of a category.
func (l Layout) IndexPath(cat string) string {
	return filepath.Join(l.Root, cat+".csv")
}

// ContentDir returns the content directory of a category.
func (l Layout) ContentDir(cat string) string {
	return filepath.Join(l.Root, cat)
}

// ContentPath returns the content file of a snippet.
func (l Layout) ContentPath(cat, id string) string {
	return filepath.Join(l.Root, cat, id)
}

// Bootstrap creates the root, one content directory per category and an empty
// index file per category. Existing files are left untouched.
func Bootstrap(ctx context.Context, l Layout, reg *category.Registry) error {
	if l.Root == "" {
		return fmt.Errorf("repository root is empty")
	}
	if err := os.MkdirAll(l.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create repository root: %w", err)
	}
	for _, c := range reg.All() {
		dir := l.ContentDir(c)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.Mkdir(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
			slog.InfoContext(ctx, "Created directory", "path", dir)
		}
		p := l.IndexPath(c)
		f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create index %s: %w", p, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to create index %s: %w", p, err)
		}
		slog.InfoContext(ctx, "Created index", "path", p)
	}
	return nil
}
