package snippet

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/maruel/houclip/internal/category"
	herrors "github.com/maruel/houclip/internal/errors"
)

func TestNew(t *testing.T) {
	t.Parallel()
	reg := category.Default()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		s, err := New(reg, NodeSelection, "blur setup", "util, blur", "Sop", "SOP", "id1")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if !slices.Equal(s.Tags, []string{"blur", "util"}) {
			t.Errorf("Tags = %v, want [blur util]", s.Tags)
		}
		want := []string{"blur setup", "blur,util", "Sop", "SOP", "id1"}
		if got := s.Row(); !slices.Equal(got, want) {
			t.Errorf("Row() = %q, want %q", got, want)
		}

		txt, err := New(reg, Text, "hello", "", "Python", "", "id2")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if len(txt.Tags) != 0 {
			t.Errorf("Tags = %v, want none", txt.Tags)
		}
		if got := txt.Row()[1]; got != "" {
			t.Errorf("tags field = %q, want empty", got)
		}
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name   string
			kind   Kind
			desc   string
			cat    string
			prefix string
			id     string
			want   error
		}{
			{"empty description", NodeSelection, "", "Sop", "SOP", "id", herrors.ErrDescriptionRequired},
			{"text category for node", NodeSelection, "d", "Python", "", "id", herrors.ErrInvalidCategory},
			{"node category for text", Text, "d", "Sop", "", "id", herrors.ErrInvalidCategory},
			{"unknown category", Text, "d", "Rust", "", "id", herrors.ErrInvalidCategory},
			{"wrong prefix", NodeSelection, "d", "Sop", "OBJ", "id", herrors.ErrInvalidPrefix},
			{"prefix on text", Text, "d", "VEX", "SOP", "id", herrors.ErrInvalidPrefix},
			{"empty id", Text, "d", "VEX", "", "", herrors.ErrMalformedIndex},
			{"path id", Text, "d", "VEX", "", "../etc", herrors.ErrMalformedIndex},
			{"dot id", Text, "d", "VEX", "", "..", herrors.ErrMalformedIndex},
			{"no kind", 0, "d", "VEX", "", "id", herrors.ErrUnknownSnippetCategory},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := New(reg, tt.kind, tt.desc, "", tt.cat, tt.prefix, tt.id)
				if !errors.Is(err, tt.want) {
					t.Errorf("New() error = %v, want %v", err, tt.want)
				}
			})
		}
	})

	t.Run("unprefixed structural category", func(t *testing.T) {
		t.Parallel()
		if _, err := New(reg, NodeSelection, "d", "", "Manager", "", "id"); err != nil {
			t.Errorf("New failed: %v", err)
		}
	})
}

func TestFromRow(t *testing.T) {
	t.Parallel()
	reg := category.Default()

	s, err := FromRow(reg, []string{"blur setup", "blur,util", "Sop", "SOP", "abc"})
	if err != nil {
		t.Fatalf("FromRow failed: %v", err)
	}
	if s.Kind != NodeSelection {
		t.Errorf("Kind = %v, want node-selection", s.Kind)
	}
	s, err = FromRow(reg, []string{"print", "debug", "Python", "", "abd"})
	if err != nil {
		t.Fatalf("FromRow failed: %v", err)
	}
	if s.Kind != Text {
		t.Errorf("Kind = %v, want text", s.Kind)
	}

	if _, err := FromRow(reg, []string{"x", "", "Rust", "", "abe"}); !errors.Is(err, herrors.ErrUnknownSnippetCategory) {
		t.Errorf("FromRow(Rust) error = %v", err)
	}
	if _, err := FromRow(reg, []string{"x", "", "Sop"}); !errors.Is(err, herrors.ErrMalformedIndex) {
		t.Errorf("FromRow(short) error = %v", err)
	}
	if _, err := FromRow(reg, []string{"", "", "Sop", "SOP", "abf"}); !errors.Is(err, herrors.ErrDescriptionRequired) {
		t.Errorf("FromRow(empty desc) error = %v", err)
	}
}

func TestParseTags(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" util , blur ", []string{"blur", "util"}},
		{"b,,a,", []string{"a", "b"}},
		{"z,y,x", []string{"x", "y", "z"}},
	}
	for _, tt := range tests {
		if got := ParseTags(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("ParseTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLine(t *testing.T) {
	t.Parallel()
	s := &Snippet{Description: "blur setup", Tags: []string{"blur", "util"}}
	if got, want := s.Line(12, 32), "blur setup    |blur,util"; got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
	if got, want := s.Line(4, 3), "blur  |blu"; got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
	if got, want := s.Line(0, 0), "blur setup|blur,util"; got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
	u := &Snippet{Description: "żółw€", Tags: []string{"ąę"}}
	if got, want := u.Line(3, 1), "żół  |ą"; got != want {
		t.Errorf("Line() = %q, want %q", got, want)
	}
	if got := DescriptionFromLine(s.Line(12, 32)); got != "blur setup" {
		t.Errorf("DescriptionFromLine() = %q", got)
	}
	if got := DescriptionFromLine("no bar  \n"); got != "no bar" {
		t.Errorf("DescriptionFromLine() = %q", got)
	}
}

func TestNewID(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	prev := ""
	for range 1000 {
		id := NewID()
		if err := validateID(id); err != nil {
			t.Fatalf("NewID() = %q is not a valid file name: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = true
		if len(id) == len(prev) && strings.Compare(id, prev) <= 0 {
			t.Errorf("NewID() = %q not after %q", id, prev)
		}
		prev = id
	}
}
