package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/arbor/pkg/debug"
)

// HookResult records one hook run.
type HookResult struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Error    error
	Duration time.Duration
}

// Executor runs the hooks of one export.
type Executor struct {
	config  *Config
	context ExportContext
	results []HookResult
}

// NewExecutor returns an executor for config; a nil config has no hooks.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, context: ctx}
}

// RunPreExport runs the pre-export hooks in order and stops at the first
// failing hook whose on_error is "fail".
func (e *Executor) RunPreExport() error {
	for _, h := range e.config.Phase(PreExport) {
		r := e.run(h, PreExport)
		if !r.Success && h.OnError != OnErrorContinue {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, r.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook and reports the first failure
// among hooks marked on_error "fail".
func (e *Executor) RunPostExport() error {
	var first error
	for _, h := range e.config.Phase(PostExport) {
		r := e.run(h, PostExport)
		if !r.Success && h.OnError == OnErrorFail && first == nil {
			first = fmt.Errorf("post-export hook %q failed: %w", h.Name, r.Error)
		}
	}
	return first
}

// Results returns every hook run so far.
func (e *Executor) Results() []HookResult {
	return e.results
}

// Summary is a one-line account of the hook runs.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return "No hooks executed"
	}
	ok, failed := 0, 0
	var names []string
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		names = append(names, r.Hook.Name)
	}
	s := fmt.Sprintf("Hooks: %d succeeded, %d failed", ok, failed)
	if failed > 0 {
		s += " (" + strings.Join(names, ", ") + ")"
	}
	return s
}

func (e *Executor) run(h Hook, phase HookPhase) HookResult {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.Env = e.env(h)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Without WaitDelay a child holding the pipes open would outlive the timeout.
	cmd.WaitDelay = 100 * time.Millisecond

	start := time.Now()
	err := cmd.Run()
	r := HookResult{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.Error = fmt.Errorf("timed out after %v", timeout)
	case err != nil && r.Stderr != "":
		r.Error = fmt.Errorf("%w: %s", err, truncate(r.Stderr, 200))
	case err != nil:
		r.Error = err
	default:
		r.Success = true
	}
	debug.Log("hook %s %q: success=%v in %v", phase, h.Name, r.Success, r.Duration)
	e.results = append(e.results, r)
	return r
}

// env is the process environment plus the export variables, then the
// hook's own variables with ${VAR} expanded against the rest.
func (e *Executor) env(h Hook) []string {
	env := append(os.Environ(), e.context.ToEnv()...)
	lookup := func(key string) string {
		for i := len(env) - 1; i >= 0; i-- {
			if k, v, ok := strings.Cut(env[i], "="); ok && k == key {
				return v
			}
		}
		return ""
	}
	for k, v := range h.Env {
		env = append(env, k+"="+os.Expand(v, lookup))
	}
	return env
}

// RunHooks loads the hooks under projectDir and returns an executor for
// them. It returns nil when hooks are disabled or none are configured.
func RunHooks(projectDir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	cfg, warnings, err := Load(projectDir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		debug.Log("hooks: %s", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return NewExecutor(cfg, ctx), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
