// Package hooks runs user commands around arbor exports.
// Hooks are configured in .arbor/hooks.yaml and run before the snapshot is
// rendered (pre-export) and after it is written (post-export):
//
//	hooks:
//	  pre-export:
//	    - command: make outline.yaml
//	  post-export:
//	    - name: publish
//	      command: cp "$ARBOR_EXPORT_PATH" /srv/www/
//	      timeout: 10s
package hooks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// HookPhase represents when a hook runs
type HookPhase string

const (
	// PreExport runs before the snapshot is rendered. Failure cancels export.
	PreExport HookPhase = "pre-export"
	// PostExport runs after the file is written. Failure is reported but the file stays.
	PostExport HookPhase = "post-export"
)

// Phases lists the phases in the order they run.
var Phases = []HookPhase{PreExport, PostExport}

// On-error policies.
const (
	OnErrorFail     = "fail"
	OnErrorContinue = "continue"
)

// DefaultTimeout is the default hook execution timeout
const DefaultTimeout = 30 * time.Second

// Hook is one command run with sh -c.
type Hook struct {
	Name    string            `yaml:"name" json:"name"`
	Command string            `yaml:"command" json:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// Config maps each phase to its hooks.
type Config struct {
	Hooks map[HookPhase][]Hook `yaml:"hooks" json:"hooks"`
}

// Phase returns the hooks of p.
func (c *Config) Phase(p HookPhase) []Hook {
	if c == nil {
		return nil
	}
	return c.Hooks[p]
}

// Empty reports whether no phase has a hook.
func (c *Config) Empty() bool {
	if c == nil {
		return true
	}
	for _, hs := range c.Hooks {
		if len(hs) > 0 {
			return false
		}
	}
	return true
}

// ExportContext describes the export to the hook commands.
type ExportContext struct {
	ExportPath   string    // ARBOR_EXPORT_PATH
	ExportFormat string    // ARBOR_EXPORT_FORMAT: "svg" or "png"
	ItemCount    int       // ARBOR_ITEM_COUNT: items in the outline
	Timestamp    time.Time // ARBOR_TIMESTAMP, RFC3339
}

// ToEnv converts export context to environment variables
func (c ExportContext) ToEnv() []string {
	return []string{
		"ARBOR_EXPORT_PATH=" + c.ExportPath,
		"ARBOR_EXPORT_FORMAT=" + c.ExportFormat,
		"ARBOR_ITEM_COUNT=" + strconv.Itoa(c.ItemCount),
		"ARBOR_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Path is the hooks file under dir.
func Path(dir string) string {
	return filepath.Join(dir, ".arbor", "hooks.yaml")
}

// Load reads the hooks file under dir; an empty dir means the working
// directory. A missing file is an empty config. Hooks without a command
// are dropped with a warning, and unknown phases are reported the same way.
func Load(dir string) (*Config, []string, error) {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	path := Path(dir)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	var warnings []string
	for phase, hs := range cfg.Hooks {
		if phase != PreExport && phase != PostExport {
			warnings = append(warnings, fmt.Sprintf("unknown hook phase %q; skipping", phase))
			delete(cfg.Hooks, phase)
			continue
		}
		cfg.Hooks[phase], warnings = normalize(phase, hs, warnings)
	}
	return &cfg, warnings, nil
}

// normalize fills in names, timeouts and on-error policies.
func normalize(phase HookPhase, hs []Hook, warnings []string) ([]Hook, []string) {
	out := hs[:0]
	for i, h := range hs {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has empty command; skipping", phase, i+1))
			continue
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		if h.OnError == "" {
			h.OnError = OnErrorContinue
			if phase == PreExport {
				h.OnError = OnErrorFail
			}
		}
		out = append(out, h)
	}
	return out, warnings
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds ("2").
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout"`
		Env     map[string]string `yaml:"env"`
		OnError string            `yaml:"on_error"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	timeout, err := parseTimeout(raw.Timeout)
	if err != nil {
		return err
	}
	*h = Hook{Name: raw.Name, Command: raw.Command, Timeout: timeout, Env: raw.Env, OnError: raw.OnError}
	return nil
}

func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
