// Manages user configuration stored in houclip.yaml.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/maruel/houclip/internal/broadcast"
	"github.com/maruel/houclip/internal/host"
	"github.com/maruel/houclip/internal/storage"
)

// FileName is the configuration file name.
const FileName = "houclip.yaml"

// Config is the user configuration.
// Loaded from houclip.yaml, created with defaults if missing.
type Config struct {
	// Repo is the repository root. Environment variables are expanded.
	Repo string `yaml:"repo" json:"repo" jsonschema:"description=Snippet repository root directory"`

	CSV     CSV     `yaml:"csv" json:"csv"`
	Menu    Menu    `yaml:"menu" json:"menu"`
	Host    Host    `yaml:"host" json:"host"`
	Notify  Notify  `yaml:"notify" json:"notify"`
	History History `yaml:"history" json:"history"`
}

// CSV is the index file dialect.
type CSV struct {
	Delimiter string `yaml:"delimiter" json:"delimiter" jsonschema:"description=Single character field separator"`
	Quote     string `yaml:"quote" json:"quote" jsonschema:"description=Single character used to quote fields"`
	Quoting   string `yaml:"quoting" json:"quoting" jsonschema:"enum=minimal,enum=all,enum=nonnumeric,enum=none"`
}

// Dialect converts the section to a storage dialect.
func (c *CSV) Dialect() (storage.Dialect, error) {
	d := storage.Dialect{Quoting: storage.Quoting(c.Quoting)}
	var err error
	if d.Delimiter, err = singleRune("delimiter", c.Delimiter); err != nil {
		return d, err
	}
	if c.Quote != "" || d.Quoting != storage.QuoteNone {
		if d.Quote, err = singleRune("quote", c.Quote); err != nil {
			return d, err
		}
	}
	return d, d.Validate()
}

// Validate checks the dialect.
func (c *CSV) Validate() error {
	_, err := c.Dialect()
	return err
}

// Menu configures the launcher.
type Menu struct {
	Program string `yaml:"program" json:"program" jsonschema:"enum=dmenu,enum=rofi"`
	// Theme is passed to rofi.
	Theme string `yaml:"theme,omitempty" json:"theme,omitempty"`
	// MaxDescLen truncates descriptions in snippet lists.
	MaxDescLen int `yaml:"max_desc_len" json:"max_desc_len" jsonschema:"minimum=1"`
	// MaxTagsLen truncates tags in snippet lists.
	MaxTagsLen int `yaml:"max_tags_len" json:"max_tags_len" jsonschema:"minimum=1"`
}

// Validate checks the launcher settings.
func (m *Menu) Validate() error {
	switch strings.ToLower(m.Program) {
	case "dmenu", "rofi":
	default:
		return fmt.Errorf("unknown program %q", m.Program)
	}
	if m.MaxDescLen <= 0 {
		return errors.New("max_desc_len must be positive")
	}
	if m.MaxTagsLen <= 0 {
		return errors.New("max_tags_len must be positive")
	}
	return nil
}

// Host configures the host application exchange.
type Host struct {
	// TempDir is where the host reads and writes its clipboard files. Empty
	// means $HOUDINI_TEMP or the system default.
	TempDir string `yaml:"temp_dir,omitempty" json:"temp_dir,omitempty"`
	// Wait bounds how long to wait for the host to write its clipboard file.
	Wait time.Duration `yaml:"wait" json:"wait" jsonschema:"type=string,description=Go duration such as 2s"`
}

// Validate checks the host settings.
func (h *Host) Validate() error {
	if h.Wait < 0 {
		return errors.New("wait must be non-negative")
	}
	return nil
}

// Notify selects notification channels.
type Notify struct {
	Channels []string `yaml:"channels" json:"channels" jsonschema:"description=Any of stdout notify-send log"`
}

// Validate checks channel names.
func (n *Notify) Validate() error {
	for _, c := range n.Channels {
		if !slices.Contains(broadcast.Channels, c) {
			return fmt.Errorf("unknown channel %q", c)
		}
	}
	return nil
}

// History configures git history of the repository.
type History struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Name    string `yaml:"name" json:"name"`
	Email   string `yaml:"email" json:"email"`
}

// Validate checks the history settings.
func (h *History) Validate() error {
	if h.Enabled && (h.Name == "" || h.Email == "") {
		return errors.New("name and email are required when enabled")
	}
	return nil
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Repo:    "$HOME/.local/share/houclip",
		CSV:     CSV{Delimiter: ";", Quote: `"`, Quoting: string(storage.QuoteMinimal)},
		Menu:    Menu{Program: "dmenu", MaxDescLen: 128, MaxTagsLen: 32},
		Host:    Host{Wait: 2 * time.Second},
		Notify:  Notify{Channels: slices.Clone(broadcast.Channels)},
		History: History{Enabled: true, Name: "houclip", Email: "houclip@localhost"},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Repo == "" {
		return errors.New("repo is required")
	}
	if err := c.CSV.Validate(); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := c.Menu.Validate(); err != nil {
		return fmt.Errorf("menu: %w", err)
	}
	if err := c.Host.Validate(); err != nil {
		return fmt.Errorf("host: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/houclip/houclip.yaml.
func DefaultPath() (string, error) {
	d, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find configuration directory: %w", err)
	}
	return filepath.Join(d, "houclip", FileName), nil
}

// Load loads configuration from path, creating the file with defaults if it
// doesn't exist.
//
// A .env file next to path is loaded into the environment first, without
// overriding variables already set. HOUCLIP_REPO, HOUCLIP_MENU and
// HOUDINI_TEMP then override the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if err := cfg.Save(path); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	env := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(env); err == nil {
		if err := godotenv.Load(env); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", env, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("HOUCLIP_REPO"); v != "" {
		c.Repo = v
	}
	if v := os.Getenv("HOUCLIP_MENU"); v != "" {
		c.Menu.Program = v
	}
	if v := os.Getenv("HOUDINI_TEMP"); v != "" {
		c.Host.TempDir = v
	}
	c.Repo = os.ExpandEnv(c.Repo)
	c.Host.TempDir = os.ExpandEnv(c.Host.TempDir)
	if c.Host.TempDir == "" {
		c.Host.TempDir = host.TempDir()
	}
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	s := r.Reflect(&Config{})
	s.Title = "houclip configuration"
	return json.MarshalIndent(s, "", "  ")
}

func singleRune(name, s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", name, s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}
