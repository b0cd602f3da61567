// Package category holds the closed sets of snippet categories.
//
// Structural categories are the host application's node type categories.
// Each maps to the upper-case prefix the host uses when it writes its own
// clipboard file ({PREFIX}_copy.cpio), which may or may not be the category
// name (Sop:SOP but Driver:ROP). Some categories have no prefix because the
// host cannot copy them through its clipboard (Director, Manager) or no longer
// uses them (VopNet).
//
// Textual categories are languages of free text snippets.
//
// The sets are hardcoded rather than queried from the host so that a new
// category appearing in a later host version cannot break the repository.
package category

import (
	"slices"

	herrors "github.com/maruel/houclip/internal/errors"
)

// Kind tells which closed set a category belongs to.
type Kind int

const (
	// Unknown is neither structural nor textual.
	Unknown Kind = iota
	// Structural categories hold serialized host node selections.
	Structural
	// Textual categories hold clipboard text.
	Textual
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Textual:
		return "textual"
	default:
		return "unknown"
	}
}

var defaultPrefixes = map[string]string{
	"Chop":     "CHOP",
	"ChopNet":  "CHOPNET",
	"Cop2":     "COP2",
	"CopNet":   "IMG",
	"Director": "",
	"Dop":      "DOP",
	"Driver":   "ROP",
	"Lop":      "LOP",
	"Manager":  "",
	"Object":   "OBJ",
	"Shop":     "SHOP",
	"Sop":      "SOP",
	"Top":      "TOP",
	"TopNet":   "TOPNET",
	"Vop":      "VOP",
	"VopNet":   "",
}

var defaultLanguages = []string{"HScript", "Python", "VEX"}

// Registry maps categories to their kind and prefix. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	prefixes   map[string]string
	structural []string
	textual    []string
}

// New builds a registry. An empty prefix marks a structural category that
// cannot be captured through the host clipboard.
//
// A name present in both sets is treated as structural.
func New(prefixes map[string]string, languages []string) *Registry {
	r := &Registry{prefixes: make(map[string]string, len(prefixes))}
	for c, p := range prefixes {
		r.prefixes[c] = p
		r.structural = append(r.structural, c)
	}
	slices.Sort(r.structural)
	for _, l := range languages {
		if _, ok := r.prefixes[l]; ok || slices.Contains(r.textual, l) {
			continue
		}
		r.textual = append(r.textual, l)
	}
	return r
}

// Default returns the registry of the host's node type categories and the
// supported languages.
func Default() *Registry {
	return New(defaultPrefixes, defaultLanguages)
}

// PrefixFor returns the prefix of a structural category. ok is false for
// categories deliberately left without a prefix.
func (r *Registry) PrefixFor(category string) (prefix string, ok bool, err error) {
	p, found := r.prefixes[category]
	if !found {
		return "", false, herrors.ErrInvalidCategory.Errorf("Unsupported category: %s.", category).WithDetail("category", category)
	}
	return p, p != "", nil
}

// IsStructural reports whether category is a node type category.
func (r *Registry) IsStructural(category string) bool {
	_, ok := r.prefixes[category]
	return ok
}

// IsTextual reports whether category is a language.
func (r *Registry) IsTextual(category string) bool {
	return slices.Contains(r.textual, category)
}

// KindOf returns which set category belongs to.
func (r *Registry) KindOf(category string) Kind {
	switch {
	case r.IsStructural(category):
		return Structural
	case r.IsTextual(category):
		return Textual
	default:
		return Unknown
	}
}

// Structural returns the structural categories, sorted.
func (r *Registry) Structural() []string {
	return slices.Clone(r.structural)
}

// Textual returns the textual categories in declaration order.
func (r *Registry) Textual() []string {
	return slices.Clone(r.textual)
}

// All returns structural then textual categories.
func (r *Registry) All() []string {
	return slices.Concat(r.structural, r.textual)
}

// Contains reports whether category belongs to either set.
func (r *Registry) Contains(category string) bool {
	return r.KindOf(category) != Unknown
}
