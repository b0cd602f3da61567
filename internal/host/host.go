// Package host talks to the node based host application.
//
// The host exchanges node selections through a clipboard file
// {PREFIX}_copy.cpio in its temporary directory, where PREFIX is the upper
// case prefix of the network category the selection lives in. Anything that
// writes a file with that name lets the host paste it.
package host

import (
	"context"
	"os"
	"path/filepath"
)

// ItemKind is the kind of a selected network item.
type ItemKind int

const (
	// Node is an operator. Only nodes carry a category.
	Node ItemKind = iota + 1
	// Decoration is anything else selectable in a network: sticky notes,
	// network boxes, dots.
	Decoration
)

// Item is one selected network item.
type Item struct {
	Kind ItemKind
	// Category is the node type category name, e.g. "Sop". Empty unless Kind is
	// Node.
	Category string
	Name     string
}

// Bridge is the live host session.
type Bridge interface {
	// Selection returns the currently selected network items.
	Selection(ctx context.Context) ([]Item, error)
	// Copy serializes items to the host clipboard file at path.
	Copy(ctx context.Context, items []Item, path string) error
}

// CopyPath returns the host clipboard file for prefix in dir.
func CopyPath(dir, prefix string) string {
	return filepath.Join(dir, prefix+"_copy.cpio")
}

// TempDir returns the host temporary directory: $HOUDINI_TEMP, or
// houdini_temp under the system temporary directory.
func TempDir() string {
	if d := os.Getenv("HOUDINI_TEMP"); d != "" {
		return d
	}
	return filepath.Join(os.TempDir(), "houdini_temp")
}

// FirstNodeCategory returns the category of the first node in items, or ""
// when there is no node.
func FirstNodeCategory(items []Item) string {
	for _, it := range items {
		if it.Kind == Node {
			return it.Category
		}
	}
	return ""
}
