package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/export"
	"github.com/vanderheijden86/arbor/pkg/hooks"
	"github.com/vanderheijden86/arbor/pkg/metrics"
	"github.com/vanderheijden86/arbor/pkg/ui"
	"github.com/vanderheijden86/arbor/pkg/version"
	"github.com/vanderheijden86/arbor/pkg/watcher"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "add" {
		if err := runAdd(os.Args[2:], os.Stdout, os.Stderr); err != nil {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		return
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the parsed command line flags.
type options struct {
	cpuProfile string
	version    bool
	configPath string
	watch      bool
	export     string
	multi      bool
	checkable  bool
	depth      int
	metrics    bool
	noHooks    bool
	paths      []string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("arbor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.cpuProfile, "cpu-profile", "", "Write CPU profile to file")
	fs.BoolVar(&o.version, "version", false, "Show version")
	fs.StringVar(&o.configPath, "config", "", "Config file (default: "+config.ConfigPath()+")")
	fs.BoolVar(&o.watch, "watch", false, "Reload outlines when they change on disk")
	fs.StringVar(&o.export, "export", "", "Render the outline to a .png or .svg file and exit")
	fs.BoolVar(&o.multi, "multi", false, "Allow selecting several items")
	fs.BoolVar(&o.checkable, "checkable", false, "Show a checkbox in front of every item")
	fs.IntVar(&o.depth, "depth", -1, "Open items down to this depth on load (default from config)")
	fs.BoolVar(&o.metrics, "metrics", false, "Print timing metrics as JSON to stderr on exit")
	fs.BoolVar(&o.noHooks, "no-hooks", false, "Skip .arbor/hooks.yaml when exporting")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: arbor [options] <outline.yaml|outline.json|outline.db>...")
		fmt.Fprintln(stderr, "       arbor add [options] <outline>")
		fmt.Fprintln(stderr, "\nBrowse outlines as a collapsible tree.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.paths = fs.Args()
	return o, nil
}

// loadConfig reads the config file; a broken file is reported and
// replaced by the defaults.
func loadConfig(path string, stderr io.Writer) config.Config {
	var (
		cfg config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
		return config.DefaultConfig()
	}
	return cfg
}

// applyFlags lets command line flags override the config file.
func applyFlags(cfg *config.Config, o options) {
	if o.multi {
		cfg.Tree.Style = "multi"
	}
	if o.checkable {
		cfg.Tree.Checkable = true
	}
	if o.depth >= 0 {
		cfg.Tree.ExpandDepth = o.depth
	}
	if o.watch {
		cfg.Watch.Enabled = true
	}
}

// loadOutlines reads every path in parallel; any failure is fatal.
func loadOutlines(paths []string) (datasource.Outline, error) {
	results, err := datasource.LoadAll(context.Background(), paths)
	if err != nil {
		return datasource.Outline{}, err
	}
	outlines := make([]datasource.Outline, 0, len(results))
	for _, r := range results {
		if r.Error != nil {
			return datasource.Outline{}, fmt.Errorf("%s: %w", r.Path, r.Error)
		}
		outlines = append(outlines, r.Outline)
	}
	return datasource.Merge(outlines), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	// CPU profiling support
	if o.cpuProfile != "" {
		f, err := os.Create(o.cpuProfile)
		if err != nil {
			fmt.Fprintf(stderr, "Could not create CPU profile: %v\n", err)
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(stderr, "Could not start CPU profile: %v\n", err)
			return 1
		}
		defer pprof.StopCPUProfile()
	}

	if o.version {
		fmt.Fprintf(stdout, "arbor %s\n", version.String())
		return 0
	}
	if len(o.paths) == 0 {
		fmt.Fprintln(stderr, "Error: no outline given")
		fmt.Fprintln(stderr, "Usage: arbor [options] <outline>...")
		return 2
	}

	if o.metrics {
		metrics.SetEnabled(true)
		defer printMetrics(stderr)
	}

	cfg := loadConfig(o.configPath, stderr)
	applyFlags(&cfg, o)

	outline, err := loadOutlines(o.paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading outline: %v\n", err)
		return 1
	}
	rememberRecent(cfg, o)

	if o.export != "" {
		if err := exportSnapshot(outline, cfg, o, stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "Error exporting: %v\n", err)
			return 1
		}
		return 0
	}

	if !isTerminal(stdout) {
		if err := dump(stdout, outline, cfg.Tree); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	var watchers []*watcher.Watcher
	if cfg.Watch.Enabled {
		watchers = startWatchers(o.paths, cfg.Watch, stderr)
		defer func() {
			for _, w := range watchers {
				w.Stop()
			}
		}()
	}

	if dir := config.StateDir(); debug.Enabled() && dir != "" && os.Getenv(debug.FileEnv) == "" {
		// The browser owns the terminal.
		if closeLog, err := debug.OpenFile(filepath.Join(dir, "debug.log")); err == nil {
			defer closeLog()
		}
	}

	// The tree belongs to this goroutine, which also runs the program loop.
	m, err := ui.NewModel(ui.ModelOptions{
		Outline:  outline,
		Paths:    o.paths,
		Tree:     cfg.Tree,
		UI:       cfg.UI,
		Watchers: watchers,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := runTUIProgram(m); err != nil {
		fmt.Fprintf(stderr, "Error running arbor: %v\n", err)
		return 1
	}
	return 0
}

// exportSnapshot renders the outline to o.export between the pre- and
// post-export hooks configured in the working directory.
func exportSnapshot(outline datasource.Outline, cfg config.Config, o options, stdout, stderr io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	count := datasource.Count(outline.Nodes)
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(o.export)), ".")
	if format == "" {
		format = "svg"
	}
	executor, err := hooks.RunHooks(cwd, hooks.ExportContext{
		ExportPath:   o.export,
		ExportFormat: format,
		ItemCount:    count,
		Timestamp:    time.Now(),
	}, o.noHooks)
	if err != nil {
		return fmt.Errorf("loading hooks: %w", err)
	}
	if executor != nil {
		if err := executor.RunPreExport(); err != nil {
			return err
		}
	}

	if err := export.Save(outline, export.Options{Path: o.export, Tree: cfg.Tree}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Exported %d items to %s\n", count, o.export)

	if executor != nil {
		if err := executor.RunPostExport(); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
		fmt.Fprintln(stderr, executor.Summary())
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func rememberRecent(cfg config.Config, o options) {
	for i := len(o.paths) - 1; i >= 0; i-- {
		cfg.AddRecent(o.paths[i])
	}
	var err error
	if o.configPath != "" {
		err = config.SaveTo(cfg, o.configPath)
	} else {
		err = config.Save(cfg)
	}
	if err != nil {
		debug.Log("saving recent outlines: %v", err)
	}
}

func startWatchers(paths []string, wc config.WatchConfig, stderr io.Writer) []*watcher.Watcher {
	var out []*watcher.Watcher
	for _, p := range paths {
		w, err := watcher.NewWatcher(p,
			watcher.WithDebounceDuration(wc.Debounce),
			watcher.WithPollInterval(wc.PollInterval),
			watcher.WithForcePoll(wc.ForcePoll),
			watcher.WithOnError(func(err error) { debug.Log("watch %s: %v", p, err) }),
		)
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			fmt.Fprintf(stderr, "Warning: not watching %s: %v\n", p, err)
			continue
		}
		out = append(out, w)
	}
	return out
}

func printMetrics(w io.Writer) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metrics.Snapshot()); err != nil {
		debug.Log("encoding metrics: %v", err)
	}
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set ARBOR_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("ARBOR_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
