package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/maruel/houclip/internal/category"
	herrors "github.com/maruel/houclip/internal/errors"
)

func newIndex(t *testing.T, d Dialect) *IndexStore {
	t.Helper()
	s, err := NewIndexStore(Layout{Root: t.TempDir()}, d)
	if err != nil {
		t.Fatalf("NewIndexStore failed: %v", err)
	}
	return s
}

func TestLayout(t *testing.T) {
	t.Parallel()
	l := Layout{Root: "/repo"}
	if got, want := l.IndexPath("Sop"), filepath.Join("/repo", "Sop.csv"); got != want {
		t.Errorf("IndexPath() = %q, want %q", got, want)
	}
	if got, want := l.ContentPath("Sop", "abc"), filepath.Join("/repo", "Sop", "abc"); got != want {
		t.Errorf("ContentPath() = %q, want %q", got, want)
	}
}

func TestBootstrap(t *testing.T) {
	t.Parallel()
	l := Layout{Root: filepath.Join(t.TempDir(), "repo")}
	reg := category.Default()
	if err := Bootstrap(t.Context(), l, reg); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	for _, c := range reg.All() {
		if fi, err := os.Stat(l.ContentDir(c)); err != nil || !fi.IsDir() {
			t.Errorf("content directory of %s missing: %v", c, err)
		}
		if fi, err := os.Stat(l.IndexPath(c)); err != nil || fi.Size() != 0 {
			t.Errorf("index of %s missing or not empty: %v", c, err)
		}
	}

	// Existing indexes are preserved.
	if err := os.WriteFile(l.IndexPath("Sop"), []byte("a;;Sop;SOP;x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Bootstrap(t.Context(), l, reg); err != nil {
		t.Fatalf("Bootstrap failed: %v", err)
	}
	if b, _ := os.ReadFile(l.IndexPath("Sop")); string(b) != "a;;Sop;SOP;x\n" {
		t.Errorf("Bootstrap overwrote index: %q", b)
	}

	if err := Bootstrap(t.Context(), Layout{}, reg); err == nil {
		t.Error("Bootstrap with empty root should fail")
	}
}

func TestDialect(t *testing.T) {
	t.Parallel()
	row := []string{"a", "b;c", `x"y`, "", "1"}
	tests := []struct {
		quoting Quoting
		want    string
	}{
		{QuoteMinimal, "a;\"b;c\";\"x\"\"y\";;1\n"},
		{QuoteAll, "\"a\";\"b;c\";\"x\"\"y\";\"\";\"1\"\n"},
		{QuoteNonNumeric, "\"a\";\"b;c\";\"x\"\"y\";\"\";1\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.quoting), func(t *testing.T) {
			t.Parallel()
			s := newIndex(t, Dialect{Delimiter: ';', Quote: '"', Quoting: tt.quoting})
			if err := s.Append("Sop", row); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
			b, err := os.ReadFile(s.Layout().IndexPath("Sop"))
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.want {
				t.Errorf("encoded = %q, want %q", b, tt.want)
			}
			rows, err := s.Scan("Sop")
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if len(rows) != 1 || !slices.Equal(rows[0], row) {
				t.Errorf("Scan() = %q, want [%q]", rows, row)
			}
		})
	}

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		s := newIndex(t, Dialect{Delimiter: ',', Quoting: QuoteNone})
		if err := s.Append("Sop", []string{"a", "b", "Sop", "SOP", "id"}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		if err := s.Append("Sop", []string{"a,b", "", "Sop", "SOP", "id2"}); !errors.Is(err, errNeedsQuoting) {
			t.Errorf("Append() error = %v, want errNeedsQuoting", err)
		}
		rows, err := s.Scan("Sop")
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(rows) != 1 {
			t.Errorf("rejected row was written: %q", rows)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()
		for _, d := range []Dialect{
			{},
			{Delimiter: ';', Quote: ';', Quoting: QuoteMinimal},
			{Delimiter: '\n', Quote: '"', Quoting: QuoteMinimal},
			{Delimiter: ';', Quote: '"', Quoting: "sometimes"},
		} {
			if _, err := NewIndexStore(Layout{Root: t.TempDir()}, d); err == nil {
				t.Errorf("NewIndexStore(%+v) should fail", d)
			}
		}
	})
}

func TestIndexStore(t *testing.T) {
	t.Parallel()

	t.Run("Scan missing", func(t *testing.T) {
		t.Parallel()
		s := newIndex(t, DefaultDialect)
		if _, err := s.Scan("Sop"); !errors.Is(err, herrors.ErrMissingIndex) {
			t.Errorf("Scan() error = %v, want ErrMissingIndex", err)
		}
		if _, err := s.IsEmpty("Sop"); !errors.Is(err, herrors.ErrMissingIndex) {
			t.Errorf("IsEmpty() error = %v, want ErrMissingIndex", err)
		}
		if _, err := s.RewriteExcluding("Sop", "x"); !errors.Is(err, herrors.ErrMissingIndex) {
			t.Errorf("RewriteExcluding() error = %v, want ErrMissingIndex", err)
		}
		if _, err := os.Stat(s.Layout().IndexPath("Sop")); !os.IsNotExist(err) {
			t.Errorf("RewriteExcluding created the index: %v", err)
		}
	})

	t.Run("Scan empty", func(t *testing.T) {
		t.Parallel()
		s := newIndex(t, DefaultDialect)
		if err := os.WriteFile(s.Layout().IndexPath("Python"), nil, 0o644); err != nil {
			t.Fatal(err)
		}
		rows, err := s.Scan("Python")
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("Scan() = %q, want empty", rows)
		}
		if empty, err := s.IsEmpty("Python"); err != nil || !empty {
			t.Errorf("IsEmpty() = %v, %v", empty, err)
		}
	})

	t.Run("Scan multi-line and blank lines", func(t *testing.T) {
		t.Parallel()
		s := newIndex(t, DefaultDialect)
		data := "\"two\nlines\";t;Python;;a\n\nplain;;Python;;b\r\n"
		if err := os.WriteFile(s.Layout().IndexPath("Python"), []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		rows, err := s.Scan("Python")
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		want := [][]string{{"two\nlines", "t", "Python", "", "a"}, {"plain", "", "Python", "", "b"}}
		if !slices.EqualFunc(rows, want, slices.Equal) {
			t.Errorf("Scan() = %q, want %q", rows, want)
		}
	})

	t.Run("Scan malformed", func(t *testing.T) {
		t.Parallel()
		s := newIndex(t, DefaultDialect)
		if err := os.WriteFile(s.Layout().IndexPath("Sop"), []byte("a;;Sop;SOP;x\nshort;row\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := s.Scan("Sop")
		if !errors.Is(err, herrors.ErrMalformedIndex) {
			t.Fatalf("Scan() error = %v, want ErrMalformedIndex", err)
		}
		var e *herrors.Error
		if !errors.As(err, &e) {
			t.Fatalf("Scan() error %T is not *herrors.Error", err)
		}
		if got := e.Details()["line"]; got != 2 {
			t.Errorf("Scan() error line = %v, want 2", got)
		}

		if err := os.WriteFile(s.Layout().IndexPath("Vop"), []byte("\"open;;Vop;VOP;x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Scan("Vop"); !errors.Is(err, herrors.ErrMalformedIndex) {
			t.Errorf("Scan() error = %v, want ErrMalformedIndex", err)
		}
	})

	t.Run("RewriteExcluding", func(t *testing.T) {
		t.Parallel()
		s := newIndex(t, DefaultDialect)
		rows := [][]string{
			{"first", "a,b", "Sop", "SOP", "1"},
			{"semi;colon", "", "Sop", "SOP", "2"},
			{`quote "x"`, "z", "Sop", "SOP", "3"},
			{"last", "", "Sop", "SOP", "4"},
		}
		for _, r := range rows {
			if err := s.Append("Sop", r); err != nil {
				t.Fatalf("Append failed: %v", err)
			}
		}
		n, err := s.RewriteExcluding("Sop", "2")
		if err != nil {
			t.Fatalf("RewriteExcluding failed: %v", err)
		}
		if n != 1 {
			t.Errorf("RewriteExcluding() = %d, want 1", n)
		}
		got, err := s.Scan("Sop")
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		want := [][]string{rows[0], rows[2], rows[3]}
		if !slices.EqualFunc(got, want, slices.Equal) {
			t.Errorf("Scan() = %q, want %q", got, want)
		}

		n, err = s.RewriteExcluding("Sop", "unknown")
		if err != nil {
			t.Fatalf("RewriteExcluding failed: %v", err)
		}
		if n != 0 {
			t.Errorf("RewriteExcluding() = %d, want 0", n)
		}
		if got, _ := s.Scan("Sop"); len(got) != 3 {
			t.Errorf("row count = %d, want 3", len(got))
		}

		entries, err := os.ReadDir(s.Layout().Root)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				t.Errorf("temporary file left behind: %s", e.Name())
			}
		}
	})
}

func TestContentStore(t *testing.T) {
	t.Parallel()

	t.Run("compressed", func(t *testing.T) {
		t.Parallel()
		s := NewContentStore(Layout{Root: t.TempDir()})
		payload := bytes.Repeat([]byte("node payload\x00\x01"), 100)
		if err := s.Write("Sop", "id1", bytes.NewReader(payload), true); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		raw, err := os.ReadFile(filepath.Join(s.layout.Root, "Sop", "id1"))
		if err != nil {
			t.Fatal(err)
		}
		if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
			t.Errorf("content is not a gzip stream: % x", raw[:min(len(raw), 4)])
		}
		got, err := s.ReadDecompressed("Sop", "id1")
		if err != nil {
			t.Fatalf("ReadDecompressed failed: %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("ReadDecompressed() differs from payload")
		}
	})

	t.Run("raw", func(t *testing.T) {
		t.Parallel()
		s := NewContentStore(Layout{Root: t.TempDir()})
		text := "print('hello')\n# żółw\n"
		if err := s.Write("Python", "id2", strings.NewReader(text), false); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		got, err := s.ReadRaw("Python", "id2")
		if err != nil {
			t.Fatalf("ReadRaw failed: %v", err)
		}
		if got != text {
			t.Errorf("ReadRaw() = %q, want %q", got, text)
		}
		if !s.Exists("Python", "id2") {
			t.Error("Exists() = false")
		}
		if _, err := s.ReadDecompressed("Python", "id2"); err == nil {
			t.Error("ReadDecompressed of plain text should fail")
		}
		if err := s.Delete("Python", "id2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if s.Exists("Python", "id2") {
			t.Error("Exists() = true after Delete")
		}
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		s := NewContentStore(Layout{Root: t.TempDir()})
		if _, err := s.ReadDecompressed("Sop", "nope"); !errors.Is(err, herrors.ErrContentMissing) {
			t.Errorf("ReadDecompressed() error = %v", err)
		}
		if _, err := s.ReadRaw("VEX", "nope"); !errors.Is(err, herrors.ErrContentMissing) {
			t.Errorf("ReadRaw() error = %v", err)
		}
		if err := s.Delete("VEX", "nope"); !errors.Is(err, herrors.ErrContentMissing) {
			t.Errorf("Delete() error = %v", err)
		}
	})

	t.Run("failed write leaves nothing", func(t *testing.T) {
		t.Parallel()
		s := NewContentStore(Layout{Root: t.TempDir()})
		if err := s.Write("Sop", "id3", errReader{}, true); err == nil {
			t.Fatal("Write should fail")
		}
		entries, err := os.ReadDir(s.layout.ContentDir("Sop"))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("Write left files behind: %v", entries)
		}
	})
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("read failed")
}
