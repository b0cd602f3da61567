package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	herrors "github.com/maruel/houclip/internal/errors"
	"github.com/maruel/houclip/internal/snippet"
)

// IndexStore reads and writes the per-category index files.
//
// There is no locking: at most one process is expected to mutate a
// repository at a time.
type IndexStore struct {
	layout  Layout
	dialect Dialect
}

// NewIndexStore returns an IndexStore encoding rows with d.
func NewIndexStore(l Layout, d Dialect) (*IndexStore, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid CSV dialect: %w", err)
	}
	return &IndexStore{layout: l, dialect: d}, nil
}

// Layout returns the repository layout.
func (s *IndexStore) Layout() Layout {
	return s.layout
}

// Append writes one row at the end of the category index, creating the file
// if needed.
func (s *IndexStore) Append(cat string, row []string) error {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := s.dialect.writeRow(w, row); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	p := s.layout.IndexPath(cat)
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open index for append: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write row: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// Scan decodes every row of the category index in file order.
//
// It returns ErrMissingIndex when the file does not exist and an empty result
// when it exists but holds no rows.
func (s *IndexStore) Scan(cat string) ([][]string, error) {
	p := s.layout.IndexPath(cat)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, herrors.ErrMissingIndex.Errorf("Missing CSV file: %s", p).WithDetail("category", cat)
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()
	var rows [][]string
	rr := newRowReader(&s.dialect, f)
	for {
		row, line, err := rr.read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, herrors.ErrMalformedIndex.Errorf("Malformed CSV file: %s", p).WithDetail("line", line).Wrap(err)
		}
		if len(row) < snippet.RowFields {
			return nil, herrors.ErrMalformedIndex.Errorf("Malformed CSV file %s:%d: want %d fields, got %d.", p, line, snippet.RowFields, len(row)).WithDetail("line", line)
		}
		rows = append(rows, row)
	}
}

// RewriteExcluding replaces the category index with every row whose
// identifier differs from id, preserving order. It returns the number of rows
// removed.
//
// The new content is written to a temporary file next to the index and renamed
// over it, so the index is either left intact or fully replaced.
func (s *IndexStore) RewriteExcluding(cat, id string) (int, error) {
	rows, err := s.Scan(cat)
	if err != nil {
		return 0, err
	}
	p := s.layout.IndexPath(cat)
	tmp, err := os.CreateTemp(filepath.Dir(p), "."+filepath.Base(p)+".*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary index: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	removed := 0
	w := bufio.NewWriter(tmp)
	for _, row := range rows {
		if row[snippet.RowFields-1] == id {
			removed++
			continue
		}
		if err := s.dialect.writeRow(w, row); err != nil {
			return 0, fmt.Errorf("failed to encode row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to write temporary index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync temporary index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temporary index: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("failed to set index permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return 0, fmt.Errorf("failed to replace index: %w", err)
	}
	return removed, nil
}

// IsEmpty reports whether the category index exists and has zero length.
func (s *IndexStore) IsEmpty(cat string) (bool, error) {
	p := s.layout.IndexPath(cat)
	fi, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, herrors.ErrMissingIndex.Errorf("Missing CSV file: %s", p).WithDetail("category", cat)
		}
		return false, fmt.Errorf("failed to stat index: %w", err)
	}
	return fi.Size() == 0, nil
}
