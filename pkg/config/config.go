// Package config handles loading and saving arbor configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/arbor/config.yaml
//   - State:   ~/.local/state/arbor/ (recent outlines)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// MaxRecent bounds the recent-outline list.
const MaxRecent = 10

// TreeConfig holds the widget settings. Sizes are in surface pixels and
// apply to image export; the terminal browser uses cell sizes.
type TreeConfig struct {
	Style        string `yaml:"style,omitempty"` // single, multi
	Checkable    bool   `yaml:"checkable,omitempty"`
	Indent       int    `yaml:"indent,omitempty"`
	GlyphSize    int    `yaml:"glyph_size,omitempty"`
	CheckboxSize int    `yaml:"checkbox_size,omitempty"`
	ImageSize    int    `yaml:"image_size,omitempty"`
	ExpandDepth  int    `yaml:"expand_depth,omitempty"` // levels opened on load, 0 keeps the file's state
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	Theme      string  `yaml:"theme,omitempty"` // auto, light, dark
	ShowDetail bool    `yaml:"show_detail"`
	SplitRatio float64 `yaml:"split_ratio,omitempty"` // tree share of the width (0.2-0.8)
}

// WatchConfig controls live reload.
type WatchConfig struct {
	Enabled      bool          `yaml:"enabled,omitempty"`
	Debounce     time.Duration `yaml:"debounce,omitempty"`
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	ForcePoll    bool          `yaml:"force_poll,omitempty"`
}

// Config is the top-level configuration for arbor.
type Config struct {
	Tree   TreeConfig  `yaml:"tree,omitempty"`
	UI     UIConfig    `yaml:"ui,omitempty"`
	Watch  WatchConfig `yaml:"watch,omitempty"`
	Recent []string    `yaml:"recent,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Tree: TreeConfig{
			Style:        "single",
			Indent:       16,
			GlyphSize:    9,
			CheckboxSize: 13,
			ImageSize:    16,
		},
		UI: UIConfig{
			Theme:      "auto",
			ShowDetail: true,
			SplitRatio: 0.5,
		},
		Watch: WatchConfig{
			Debounce:     250 * time.Millisecond,
			PollInterval: 2 * time.Second,
		},
	}
}

// ConfigDir returns the XDG config directory for arbor.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "arbor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "arbor")
}

// StateDir returns the XDG state directory for arbor.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "arbor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "arbor")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path. Missing keys keep their
// defaults; a missing file is the default config.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	for i := range cfg.Recent {
		cfg.Recent[i] = expandHome(cfg.Recent[i])
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate reports the first setting out of range.
func (c Config) Validate() error {
	switch {
	case c.Tree.Style != "single" && c.Tree.Style != "multi":
		return fmt.Errorf("tree.style %q: %w", c.Tree.Style, ErrInvalid)
	case c.Tree.Indent < 1 || c.Tree.GlyphSize < 1 || c.Tree.CheckboxSize < 1 || c.Tree.ImageSize < 1:
		return fmt.Errorf("tree sizes must be positive: %w", ErrInvalid)
	case c.Tree.ExpandDepth < 0:
		return fmt.Errorf("tree.expand_depth %d: %w", c.Tree.ExpandDepth, ErrInvalid)
	case !slices.Contains([]string{"auto", "light", "dark"}, c.UI.Theme):
		return fmt.Errorf("ui.theme %q: %w", c.UI.Theme, ErrInvalid)
	case c.UI.SplitRatio < 0.2 || c.UI.SplitRatio > 0.8:
		return fmt.Errorf("ui.split_ratio %.2f outside 0.2-0.8: %w", c.UI.SplitRatio, ErrInvalid)
	case c.Watch.Debounce < 0 || c.Watch.PollInterval <= 0:
		return fmt.Errorf("watch intervals must be positive: %w", ErrInvalid)
	}
	return nil
}

// Multi reports whether the tree allows several selected items.
func (t TreeConfig) Multi() bool { return t.Style == "multi" }

// AddRecent moves path to the front of the recent list.
func (c *Config) AddRecent(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.Recent = slices.DeleteFunc(c.Recent, func(p string) bool { return p == path })
	c.Recent = append([]string{path}, c.Recent...)
	if len(c.Recent) > MaxRecent {
		c.Recent = c.Recent[:MaxRecent]
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
