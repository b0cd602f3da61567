// Package snippets implements the user facing workflows: capture a snippet,
// fetch one back, delete one, and the command chooser.
//
// Every workflow is a single pass. Failures are reported through the
// notification sink and returned; a cancelled prompt returns (nil, nil)
// without side effects.
package snippets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/houclip/internal/broadcast"
	"github.com/maruel/houclip/internal/catalog"
	"github.com/maruel/houclip/internal/category"
	"github.com/maruel/houclip/internal/clipboard"
	herrors "github.com/maruel/houclip/internal/errors"
	"github.com/maruel/houclip/internal/host"
	"github.com/maruel/houclip/internal/menu"
	"github.com/maruel/houclip/internal/snippet"
	"github.com/maruel/houclip/internal/storage"
)

// User facing prompts and notifications.
const (
	MsgCategory        = "Which category?"
	MsgCategoryEmpty   = "No snippets in selected category."
	MsgIndexEmpty      = "Category already empty:"
	MsgCommandInvalid  = "Invalid command."
	MsgDescription     = "Description:"
	MsgHouclip         = "Houclip:"
	MsgSnippet         = "Which snippet?"
	MsgSnippetAdded    = "Snippet added to repository."
	MsgSnippetDeleted  = "Snippet removed from repository:"
	MsgSnippetFetched  = "snippet fetched and is ready for pasting."
	MsgTags            = "Tags:"
	MsgUnsupportedLang = "Unsupported category:"
)

// Commands offered by Run, in menu order.
var Commands = []string{"opfetch", "opdel", "codeadd", "codefetch", "codedel"}

// Committer records a repository mutation.
type Committer interface {
	Commit(ctx context.Context, msg string) error
}

// Options configures a Service. Host and History are optional.
type Options struct {
	Registry  *category.Registry
	Index     *storage.IndexStore
	Content   *storage.ContentStore
	Menu      menu.Menu
	Clipboard clipboard.Clipboard
	Sink      broadcast.Sink

	// Host is the live host session. Without it node selections cannot be
	// captured; fetching them back only needs HostTempDir.
	Host        host.Bridge
	HostTempDir string

	History Committer

	// MaxDescLen and MaxTagsLen truncate snippet list lines.
	MaxDescLen int
	MaxTagsLen int
}

// Service runs workflows against one repository.
type Service struct {
	opts Options
}

// New returns a Service.
func New(opts Options) *Service {
	if opts.Sink == nil {
		opts.Sink = broadcast.Multi{}
	}
	return &Service{opts: opts}
}

// NewCatalog returns an empty catalog rendering lines with the configured
// limits.
func (s *Service) NewCatalog() *catalog.Catalog {
	return catalog.New(s.opts.Registry, s.opts.MaxDescLen, s.opts.MaxTagsLen)
}

// CreateStructural captures the current host node selection as a new
// snippet.
func (s *Service) CreateStructural(ctx context.Context) (*snippet.Snippet, error) {
	reg := s.opts.Registry
	if s.opts.Host == nil {
		return nil, s.fail(ctx, herrors.ErrHostUnavailable)
	}
	items, err := s.opts.Host.Selection(ctx)
	if err != nil {
		return nil, s.fail(ctx, herrors.ErrHostUnavailable.Wrap(err))
	}
	if len(items) == 0 {
		return nil, s.fail(ctx, herrors.ErrEmptySelection)
	}
	cat := host.FirstNodeCategory(items)
	if cat == "" {
		return nil, s.fail(ctx, herrors.ErrNoUsableItem)
	}
	if !reg.IsStructural(cat) {
		return nil, s.fail(ctx, herrors.ErrInvalidCategory.Errorf("Unsupported category: %s.", cat).WithDetail("category", cat))
	}
	prefix, ok, err := reg.PrefixFor(cat)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if !ok {
		return nil, s.fail(ctx, herrors.ErrInvalidCategory.Errorf("Category %s cannot be copied through the host clipboard.", cat).WithDetail("category", cat))
	}
	src := host.CopyPath(s.opts.HostTempDir, prefix)
	if err := s.opts.Host.Copy(ctx, items, src); err != nil {
		return nil, s.fail(ctx, fmt.Errorf("failed to copy selection: %w", err))
	}

	desc, err := s.opts.Menu.Enter(ctx, MsgDescription)
	if err != nil || desc == "" {
		return nil, s.failIf(ctx, err)
	}
	tags, err := s.opts.Menu.Enter(ctx, MsgTags)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	sn, err := snippet.New(reg, snippet.NodeSelection, desc, tags, cat, prefix, snippet.NewID())
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, s.fail(ctx, herrors.ErrSourceMissing.Errorf("%s: %s", herrors.ErrSourceMissing.Message(), src).WithDetail("path", src))
		}
		return nil, s.fail(ctx, fmt.Errorf("failed to open host clipboard file: %w", err))
	}
	defer f.Close()
	if err := s.store(ctx, sn, f); err != nil {
		return nil, s.fail(ctx, err)
	}
	return sn, nil
}

// CreateText stores the clipboard text as a new snippet of a language picked
// by the user.
func (s *Service) CreateText(ctx context.Context) (*snippet.Snippet, error) {
	reg := s.opts.Registry
	cat, err := s.opts.Menu.Select(ctx, MsgCategory, reg.Textual())
	cat = strings.TrimSpace(cat)
	if err != nil || cat == "" {
		return nil, s.failIf(ctx, err)
	}
	if !reg.IsTextual(cat) {
		s.notify(ctx, fmt.Sprintf("%s %s.", MsgUnsupportedLang, cat), broadcast.Warning)
		return nil, nil
	}
	desc, err := s.opts.Menu.Enter(ctx, MsgDescription)
	if err != nil || desc == "" {
		return nil, s.failIf(ctx, err)
	}
	tags, err := s.opts.Menu.Enter(ctx, MsgTags)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	sn, err := snippet.New(reg, snippet.Text, desc, tags, cat, "", snippet.NewID())
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	text, err := s.opts.Clipboard.Read(ctx)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if err := s.store(ctx, sn, strings.NewReader(text)); err != nil {
		return nil, s.fail(ctx, err)
	}
	return sn, nil
}

// store writes the content then the index row of a new snippet.
func (s *Service) store(ctx context.Context, sn *snippet.Snippet, r io.Reader) error {
	if err := s.opts.Content.Write(sn.Category, sn.ID, r, sn.Kind == snippet.NodeSelection); err != nil {
		return err
	}
	if err := s.opts.Index.Append(sn.Category, sn.Row()); err != nil {
		// Do not leave an orphan content file behind.
		if err2 := s.opts.Content.Delete(sn.Category, sn.ID); err2 != nil {
			slog.WarnContext(ctx, "Failed to remove content", "id", sn.ID, "err", err2)
		}
		return err
	}
	slog.InfoContext(ctx, "Added snippet", "category", sn.Category, "id", sn.ID)
	s.commit(ctx, fmt.Sprintf("add: %s %s - %s", sn.Category, sn.ID, sn.Description))
	s.notify(ctx, MsgSnippetAdded, broadcast.Message)
	return nil
}

// Fetch lets the user pick a snippet from one of categories and restores it:
// node selections go to the host clipboard file, text to the clipboard.
// A nil categories offers every structural category.
func (s *Service) Fetch(ctx context.Context, c *catalog.Catalog, categories []string) (*snippet.Snippet, error) {
	if c == nil {
		c = s.NewCatalog()
	}
	sn, err := s.pick(ctx, c, categories, true)
	if sn == nil || err != nil {
		return nil, err
	}
	switch sn.Kind {
	case snippet.NodeSelection:
		err = s.fetchNodes(ctx, sn)
	case snippet.Text:
		err = s.fetchText(ctx, sn)
	default:
		err = herrors.ErrUnknownSnippetCategory.Errorf("Empty or unknown snippet category: %q.", sn.Category)
	}
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	slog.InfoContext(ctx, "Fetched snippet", "category", sn.Category, "id", sn.ID)
	s.notify(ctx, fmt.Sprintf("%s %s", sn.Category, MsgSnippetFetched), broadcast.Message)
	return sn, nil
}

func (s *Service) fetchNodes(ctx context.Context, sn *snippet.Snippet) error {
	if sn.Prefix == "" {
		return herrors.ErrInvalidCategory.Errorf("Category %s cannot be copied through the host clipboard.", sn.Category).WithDetail("category", sn.Category)
	}
	rc, err := s.opts.Content.OpenDecompressed(sn.Category, sn.ID)
	if err != nil {
		return err
	}
	defer rc.Close()
	dst := host.CopyPath(s.opts.HostTempDir, sn.Prefix)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create host temporary directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create host clipboard file: %w", err)
	}
	if _, err := io.Copy(f, rc); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write host clipboard file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write host clipboard file: %w", err)
	}
	slog.DebugContext(ctx, "Wrote host clipboard file", "path", dst)
	return nil
}

func (s *Service) fetchText(ctx context.Context, sn *snippet.Snippet) error {
	text, err := s.opts.Content.ReadRaw(sn.Category, sn.ID)
	if err != nil {
		return err
	}
	return s.opts.Clipboard.Write(ctx, strings.NewReader(text))
}

// Delete lets the user pick a snippet from one of categories and removes its
// index row and content file. A nil categories offers every structural
// category.
func (s *Service) Delete(ctx context.Context, c *catalog.Catalog, categories []string) (*snippet.Snippet, error) {
	if c == nil {
		c = s.NewCatalog()
	}
	sn, err := s.pick(ctx, c, categories, false)
	if sn == nil || err != nil {
		return nil, err
	}
	idx := s.opts.Index
	empty, err := idx.IsEmpty(sn.Category)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if empty {
		s.notify(ctx, fmt.Sprintf("%s %s", MsgIndexEmpty, idx.Layout().IndexPath(sn.Category)), broadcast.Warning)
	}
	n, err := idx.RewriteExcluding(sn.Category, sn.ID)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	if err := s.opts.Content.Delete(sn.Category, sn.ID); err != nil {
		return nil, s.fail(ctx, err)
	}
	c.Remove(sn.ID)
	slog.InfoContext(ctx, "Deleted snippet", "category", sn.Category, "id", sn.ID, "rows", n)
	s.commit(ctx, fmt.Sprintf("delete: %s %s - %s", sn.Category, sn.ID, sn.Description))
	s.notify(ctx, fmt.Sprintf("%s\n%s", MsgSnippetDeleted, sn.Description), broadcast.Message)
	return sn, nil
}

// pick runs the shared category prompt, index load and snippet prompt. It
// returns nil without error when the user cancels or there is nothing to
// pick. A missing index is silent when quietMissing is set.
func (s *Service) pick(ctx context.Context, c *catalog.Catalog, categories []string, quietMissing bool) (*snippet.Snippet, error) {
	reg := s.opts.Registry
	if categories == nil {
		categories = reg.Structural()
	}
	cat, err := s.opts.Menu.Select(ctx, MsgCategory, categories)
	cat = strings.TrimSpace(cat)
	if err != nil || cat == "" {
		return nil, s.failIf(ctx, err)
	}
	if !reg.Contains(cat) {
		return nil, s.fail(ctx, herrors.ErrInvalidCategory.Errorf("Unsupported category: %s.", cat).WithDetail("category", cat))
	}
	rows, err := s.opts.Index.Scan(cat)
	if err != nil {
		if quietMissing && errors.Is(err, herrors.ErrMissingIndex) {
			slog.DebugContext(ctx, "No index", "category", cat)
			return nil, nil
		}
		return nil, s.fail(ctx, err)
	}
	if err := c.Load(cat, rows); err != nil {
		return nil, s.fail(ctx, err)
	}
	if c.Len() == 0 {
		s.notify(ctx, MsgCategoryEmpty, broadcast.Message)
		return nil, nil
	}
	line, err := s.opts.Menu.Select(ctx, MsgSnippet, c.Lines())
	if err != nil || line == "" {
		return nil, s.failIf(ctx, err)
	}
	sn := c.Resolve(line)
	if sn == nil {
		slog.DebugContext(ctx, "No snippet matches selection", "line", line)
	}
	return sn, nil
}

// Run asks the user for a command and runs it.
func (s *Service) Run(ctx context.Context) error {
	cmd, err := s.opts.Menu.Select(ctx, MsgHouclip, Commands)
	cmd = strings.TrimSpace(cmd)
	if err != nil || cmd == "" {
		return s.failIf(ctx, err)
	}
	if !slices.Contains(Commands, cmd) {
		s.notify(ctx, MsgCommandInvalid, broadcast.Warning)
		return nil
	}
	return s.Exec(ctx, cmd)
}

// Exec runs a command by name. "opadd" captures the host selection; the
// others are listed in Commands.
func (s *Service) Exec(ctx context.Context, cmd string) error {
	var err error
	switch cmd {
	case "opadd":
		_, err = s.CreateStructural(ctx)
	case "opfetch":
		_, err = s.Fetch(ctx, s.NewCatalog(), s.opts.Registry.Structural())
	case "opdel":
		_, err = s.Delete(ctx, s.NewCatalog(), s.opts.Registry.Structural())
	case "codeadd":
		_, err = s.CreateText(ctx)
	case "codefetch":
		_, err = s.Fetch(ctx, s.NewCatalog(), s.opts.Registry.Textual())
	case "codedel":
		_, err = s.Delete(ctx, s.NewCatalog(), s.opts.Registry.Textual())
	default:
		s.notify(ctx, MsgCommandInvalid, broadcast.Warning)
		return fmt.Errorf("unknown command %q", cmd)
	}
	return err
}

func (s *Service) commit(ctx context.Context, msg string) {
	if s.opts.History == nil {
		return
	}
	if err := s.opts.History.Commit(ctx, msg); err != nil {
		slog.WarnContext(ctx, "Failed to record history", "err", err)
	}
}

func (s *Service) notify(ctx context.Context, msg string, sev broadcast.Severity) {
	if err := s.opts.Sink.Broadcast(ctx, msg, sev); err != nil {
		slog.WarnContext(ctx, "Notification failed", "err", err)
	}
}

// fail reports err at its severity and returns it.
func (s *Service) fail(ctx context.Context, err error) error {
	sev := broadcast.Error
	msg := err.Error()
	var e *herrors.Error
	if errors.As(err, &e) {
		sev = e.Severity()
	}
	s.notify(ctx, msg, sev)
	return err
}

// failIf is fail for a possibly nil error.
func (s *Service) failIf(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	return s.fail(ctx, err)
}
