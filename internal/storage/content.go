package storage

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	herrors "github.com/maruel/houclip/internal/errors"
)

// ContentStore reads and writes snippet content files. Node selection payloads
// are stored gzip compressed; text is stored verbatim so it stays editable.
type ContentStore struct {
	layout Layout
}

// NewContentStore returns a ContentStore rooted at l.
func NewContentStore(l Layout) *ContentStore {
	return &ContentStore{layout: l}
}

// Write stores the payload read from r as the content of id, compressing it
// when compressed is true. The file only appears once fully written.
func (s *ContentStore) Write(cat, id string, r io.Reader, compressed bool) error {
	dir := s.layout.ContentDir(cat)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+id+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary content file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if compressed {
		zw := gzip.NewWriter(tmp)
		if _, err := io.Copy(zw, r); err != nil {
			return fmt.Errorf("failed to compress content: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("failed to compress content: %w", err)
		}
	} else if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close content file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set content permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.layout.ContentPath(cat, id)); err != nil {
		return fmt.Errorf("failed to store content: %w", err)
	}
	return nil
}

// OpenDecompressed returns a reader over the decompressed content of id. The
// caller must close it.
func (s *ContentStore) OpenDecompressed(cat, id string) (io.ReadCloser, error) {
	f, err := s.open(cat, id)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decompress %s: %w", f.Name(), err)
	}
	return &gzipFile{Reader: zr, f: f}, nil
}

// ReadDecompressed returns the decompressed content of id.
func (s *ContentStore) ReadDecompressed(cat, id string) ([]byte, error) {
	rc, err := s.OpenDecompressed(cat, id)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress content: %w", err)
	}
	return b, nil
}

// ReadRaw returns the content of id as stored.
func (s *ContentStore) ReadRaw(cat, id string) (string, error) {
	f, err := s.open(cat, id)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var b strings.Builder
	if _, err := io.Copy(&b, f); err != nil {
		return "", fmt.Errorf("failed to read content: %w", err)
	}
	return b.String(), nil
}

// Delete removes the content file of id.
func (s *ContentStore) Delete(cat, id string) error {
	p := s.layout.ContentPath(cat, id)
	if err := os.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return herrors.ErrContentMissing.Errorf("File not found: %s", p).WithDetail("id", id)
		}
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}

// Exists reports whether the content file of id is present.
func (s *ContentStore) Exists(cat, id string) bool {
	_, err := os.Stat(s.layout.ContentPath(cat, id))
	return err == nil
}

func (s *ContentStore) open(cat, id string) (*os.File, error) {
	p := s.layout.ContentPath(cat, id)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, herrors.ErrContentMissing.Errorf("File not found: %s", p).WithDetail("id", id)
		}
		return nil, fmt.Errorf("failed to open content: %w", err)
	}
	return f, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if err2 := g.f.Close(); err == nil {
		err = err2
	}
	return err
}
