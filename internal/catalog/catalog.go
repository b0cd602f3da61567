// Package catalog holds the snippets decoded from one index scan.
//
// A Catalog is owned by a single workflow invocation: build it, load it, pick
// from it, drop it.
package catalog

import (
	"slices"

	"github.com/maruel/houclip/internal/category"
	"github.com/maruel/houclip/internal/snippet"
)

// Catalog is an ordered list of snippets of one category. It is not safe for
// concurrent use.
type Catalog struct {
	reg      *category.Registry
	maxDesc  int
	maxTags  int
	category string
	snippets []*snippet.Snippet
}

// New returns an empty catalog rendering lines with the given truncation
// limits.
func New(reg *category.Registry, maxDesc, maxTags int) *Catalog {
	return &Catalog{reg: reg, maxDesc: maxDesc, maxTags: maxTags}
}

// Load replaces the catalog contents with the decoded rows, in order. On error
// the catalog is left empty.
func (c *Catalog) Load(cat string, rows [][]string) error {
	c.Clear()
	out := make([]*snippet.Snippet, 0, len(rows))
	for _, r := range rows {
		s, err := snippet.FromRow(c.reg, r)
		if err != nil {
			return err
		}
		out = append(out, s)
	}
	c.category = cat
	c.snippets = out
	return nil
}

// Clear empties the catalog.
func (c *Catalog) Clear() {
	c.category = ""
	c.snippets = nil
}

// Category returns the category of the last Load.
func (c *Catalog) Category() string {
	return c.category
}

// Len returns the number of snippets.
func (c *Catalog) Len() int {
	return len(c.snippets)
}

// All returns the snippets in load order.
func (c *Catalog) All() []*snippet.Snippet {
	return slices.Clone(c.snippets)
}

// FindByDescription returns the first snippet in load order with the given
// description, or nil.
func (c *Catalog) FindByDescription(desc string) *snippet.Snippet {
	for _, s := range c.snippets {
		if s.Description == desc {
			return s
		}
	}
	return nil
}

// FindByLine returns the first snippet whose rendered line equals line, or
// nil.
func (c *Catalog) FindByLine(line string) *snippet.Snippet {
	for _, s := range c.snippets {
		if s.Line(c.maxDesc, c.maxTags) == line {
			return s
		}
	}
	return nil
}

// Resolve maps a line picked from Lines back to its snippet: the first
// snippet with the line's description, then an exact line match for
// descriptions shortened by truncation.
func (c *Catalog) Resolve(line string) *snippet.Snippet {
	if s := c.FindByDescription(snippet.DescriptionFromLine(line)); s != nil {
		return s
	}
	return c.FindByLine(line)
}

// Remove drops the snippet with the given identifier. It reports whether one
// was found.
func (c *Catalog) Remove(id string) bool {
	i := slices.IndexFunc(c.snippets, func(s *snippet.Snippet) bool { return s.ID == id })
	if i < 0 {
		return false
	}
	c.snippets = slices.Delete(c.snippets, i, i+1)
	return true
}

// Lines renders one menu line per snippet, in load order.
func (c *Catalog) Lines() []string {
	lines := make([]string, len(c.snippets))
	for i, s := range c.snippets {
		lines[i] = s.Line(c.maxDesc, c.maxTags)
	}
	return lines
}
