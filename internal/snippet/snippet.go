// Package snippet defines the snippet entity and its index row encoding.
package snippet

import (
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/maruel/houclip/internal/category"
	herrors "github.com/maruel/houclip/internal/errors"
	"github.com/maruel/ksid"
)

// Kind tags the snippet variant. Persistence code switches on it.
type Kind int

const (
	// NodeSelection snippets hold a compressed host selection payload.
	NodeSelection Kind = iota + 1
	// Text snippets hold verbatim clipboard text.
	Text
)

func (k Kind) String() string {
	switch k {
	case NodeSelection:
		return "node-selection"
	case Text:
		return "text"
	default:
		return "invalid"
	}
}

// RowFields is the number of fields in an index row.
const RowFields = 5

// Snippet is one entry of the repository.
type Snippet struct {
	Kind        Kind
	Description string
	// Tags are sorted.
	Tags     []string
	Category string
	// Prefix is the registry prefix of a structural category, empty for text.
	Prefix string
	// ID is globally unique and doubles as the content file name.
	ID string
}

// NewID returns a new time-ordered unique identifier.
func NewID() string {
	return ksid.NewID().String()
}

// New validates and builds a snippet of the given kind.
//
// tags is a comma-separated list. For NodeSelection the prefix must be the
// registry prefix of category; for Text it must be empty.
func New(reg *category.Registry, kind Kind, description, tags, cat, prefix, id string) (*Snippet, error) {
	if description == "" {
		return nil, herrors.ErrDescriptionRequired
	}
	if err := validateID(id); err != nil {
		return nil, err
	}
	switch kind {
	case NodeSelection:
		if !reg.IsStructural(cat) {
			return nil, herrors.ErrInvalidCategory.Errorf("Unsupported category: %s.", cat).WithDetail("category", cat)
		}
		want, _, err := reg.PrefixFor(cat)
		if err != nil {
			return nil, err
		}
		if prefix != want {
			return nil, herrors.ErrInvalidPrefix.Errorf("Supplied prefix is invalid: %q.", prefix).WithDetail("category", cat)
		}
	case Text:
		if !reg.IsTextual(cat) {
			return nil, herrors.ErrInvalidCategory.Errorf("Unsupported category: %s.", cat).WithDetail("category", cat)
		}
		if prefix != "" {
			return nil, herrors.ErrInvalidPrefix.Errorf("Supplied prefix is invalid: %q.", prefix).WithDetail("category", cat)
		}
	default:
		return nil, herrors.ErrUnknownSnippetCategory.Errorf("Empty or unknown snippet category: %q.", cat)
	}
	return &Snippet{
		Kind:        kind,
		Description: description,
		Tags:        ParseTags(tags),
		Category:    cat,
		Prefix:      prefix,
		ID:          id,
	}, nil
}

// FromRow decodes an index row, picking the variant from the row's category.
func FromRow(reg *category.Registry, row []string) (*Snippet, error) {
	if len(row) < RowFields {
		return nil, herrors.ErrMalformedIndex.Errorf("Malformed CSV row: want %d fields, got %d.", RowFields, len(row))
	}
	desc, tags, cat, prefix, id := row[0], row[1], row[2], row[3], row[4]
	switch reg.KindOf(cat) {
	case category.Structural:
		return New(reg, NodeSelection, desc, tags, cat, prefix, id)
	case category.Textual:
		return New(reg, Text, desc, tags, cat, prefix, id)
	default:
		return nil, herrors.ErrUnknownSnippetCategory.Errorf("Empty or unknown snippet category: %q.", cat).WithDetail("id", id)
	}
}

// Row encodes the snippet as an index row.
func (s *Snippet) Row() []string {
	return []string{s.Description, s.TagString(), s.Category, s.Prefix, s.ID}
}

// TagString returns the tags joined with commas.
func (s *Snippet) TagString() string {
	return strings.Join(s.Tags, ",")
}

// Line renders the snippet for a selection menu: the description truncated to
// maxDesc runes and padded to maxDesc+2 columns, a '|', then the tags
// truncated to maxTags runes. A non-positive limit disables truncation.
func (s *Snippet) Line(maxDesc, maxTags int) string {
	desc := truncate(s.Description, maxDesc)
	width := maxDesc + 2
	if maxDesc <= 0 {
		width = 0
	}
	var b strings.Builder
	b.WriteString(desc)
	for n := utf8.RuneCountInString(desc); n < width; n++ {
		b.WriteByte(' ')
	}
	b.WriteByte('|')
	b.WriteString(truncate(s.TagString(), maxTags))
	return b.String()
}

// ParseTags splits a comma-separated list, trims whitespace, drops empty
// entries and sorts the result.
func ParseTags(s string) []string {
	var tags []string
	for t := range strings.SplitSeq(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return tags
}

// DescriptionFromLine extracts the description part of a rendered line.
func DescriptionFromLine(line string) string {
	desc, _, _ := strings.Cut(line, "|")
	return strings.TrimRight(desc, " \t\r\n")
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

// validateID rejects identifiers that are not a single path element, since
// they name files inside the category directory.
func validateID(id string) error {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return herrors.ErrMalformedIndex.Errorf("Invalid snippet identifier: %q.", id)
	}
	return nil
}
