// Package main is the entry point for houclip.
//
// houclip keeps a local repository of reusable snippets: node selections
// copied out of Houdini and text fragments taken from the clipboard. Every
// interaction goes through dmenu or rofi. Configuration is read from
// houclip.yaml, a .env file next to it, the environment and CLI flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/maruel/houclip/internal/broadcast"
	"github.com/maruel/houclip/internal/category"
	"github.com/maruel/houclip/internal/clipboard"
	"github.com/maruel/houclip/internal/config"
	"github.com/maruel/houclip/internal/history"
	"github.com/maruel/houclip/internal/host"
	"github.com/maruel/houclip/internal/menu"
	"github.com/maruel/houclip/internal/snippets"
	"github.com/maruel/houclip/internal/storage"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "houclip: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	configPath := flag.String("config", "", "Configuration file (default $XDG_CONFIG_HOME/houclip/houclip.yaml)")
	repo := flag.String("repo", "", "Snippet repository root, overrides the configuration")
	menuProgram := flag.String("menu", "", "Menu program (dmenu, rofi), overrides the configuration")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	nodeCategory := flag.String("category", "", "Node category of the host selection, for opadd")
	fromHost := flag.Bool("host", false, "Invoked from inside the host: capture the current selection")
	n := flag.Int("n", 20, "Number of entries printed by history")
	flag.Usage = usage
	flag.Parse()

	cmd := ""
	switch args := flag.Args(); len(args) {
	case 0:
	case 1:
		cmd = args[0]
	default:
		return fmt.Errorf("unknown arguments: %v", args[1:])
	}
	if *fromHost {
		if cmd != "" && cmd != "opadd" {
			return fmt.Errorf("-host can't be used with %q", cmd)
		}
		cmd = "opadd"
	}

	switch cmd {
	case "version":
		printVersion()
		return nil
	case "config-schema":
		b, err := config.Schema()
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%s\n", b)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ll := &slog.LevelVar{}
	ll.Set(slog.LevelInfo)
	slog.SetDefault(newLogger(os.Stderr, ll))

	if *configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		*configPath = p
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel == "" {
		*logLevel = os.Getenv("HOUCLIP_LOG_LEVEL")
	}
	if *logLevel != "" {
		if err := ll.UnmarshalText([]byte(*logLevel)); err != nil {
			return fmt.Errorf("invalid -log-level %q: %w", *logLevel, err)
		}
	}
	if *repo != "" {
		cfg.Repo = *repo
	}
	if *menuProgram != "" {
		cfg.Menu.Program = *menuProgram
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Loaded configuration", "path", *configPath, "repo", cfg.Repo)

	reg := category.Default()
	layout := storage.Layout{Root: cfg.Repo}
	if err := storage.Bootstrap(ctx, layout, reg); err != nil {
		return err
	}
	var hist *history.Repo
	if cfg.History.Enabled {
		if hist, err = history.Open(ctx, cfg.Repo, cfg.History.Name, cfg.History.Email); err != nil {
			return err
		}
	}

	switch cmd {
	case "init":
		if hist != nil {
			return hist.Commit(ctx, "init")
		}
		return nil
	case "history":
		if hist == nil {
			return errors.New("history is disabled in the configuration")
		}
		return printHistory(ctx, os.Stdout, hist, *n)
	}

	svc, err := newService(cfg, reg, layout, *nodeCategory, hist)
	if err != nil {
		return err
	}
	if cmd == "" {
		return svc.Run(ctx)
	}
	return svc.Exec(ctx, cmd)
}

func newService(cfg *config.Config, reg *category.Registry, layout storage.Layout, nodeCategory string, hist *history.Repo) (*snippets.Service, error) {
	d, err := cfg.CSV.Dialect()
	if err != nil {
		return nil, err
	}
	index, err := storage.NewIndexStore(layout, d)
	if err != nil {
		return nil, err
	}
	m, err := menu.New(cfg.Menu.Program, cfg.Menu.Theme)
	if err != nil {
		return nil, err
	}
	sink, err := broadcast.New(cfg.Notify.Channels, os.Stdout)
	if err != nil {
		return nil, err
	}
	opts := snippets.Options{
		Registry:    reg,
		Index:       index,
		Content:     storage.NewContentStore(layout),
		Menu:        m,
		Clipboard:   clipboard.X11{},
		Sink:        sink,
		Host:        &host.FileBridge{Category: nodeCategory, Wait: cfg.Host.Wait},
		HostTempDir: cfg.Host.TempDir,
		MaxDescLen:  cfg.Menu.MaxDescLen,
		MaxTagsLen:  cfg.Menu.MaxTagsLen,
	}
	if hist != nil {
		opts.History = hist
	}
	return snippets.New(opts), nil
}

func newLogger(w *os.File, level slog.Leveler) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(w), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(w.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			skip := false
			switch t := a.Value.Any().(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case int64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func printHistory(ctx context.Context, w io.Writer, r *history.Repo, n int) error {
	commits, err := r.Log(ctx, "", n)
	if err != nil {
		return err
	}
	for _, c := range commits {
		if _, err := fmt.Fprintf(w, "%.8s %s %s\n", c.Hash, c.When.Format(time.DateTime), c.Message); err != nil {
			return err
		}
	}
	return nil
}

func usage() {
	out := flag.CommandLine.Output()
	_, _ = fmt.Fprintf(out, "usage: houclip [flags] [command]\n\ncommands:\n")
	_, _ = fmt.Fprintf(out, "  %s\n\n", strings.Join(commands, ", "))
	flag.PrintDefaults()
}

// commands lists every command; without one, the user picks from a menu.
var commands = append(append([]string{"init", "opadd"}, snippets.Commands...), "history", "config-schema", "version")

func printVersion() {
	version, goVersion, revision, dirty := getBuildInfo()
	fmt.Printf("houclip %s\n", version)
	fmt.Printf("  Go version: %s\n", goVersion)
	fmt.Printf("  Revision:   %s\n", revision)
	if dirty {
		fmt.Printf("  Modified:   true\n")
	}
}

func getBuildInfo() (version, goVersion, revision string, dirty bool) {
	version = "unknown"
	goVersion = "unknown"
	revision = "unknown"
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	version = info.Main.Version
	if version == "" || version == "(devel)" {
		version = "dev"
	}
	goVersion = info.GoVersion
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	return
}
