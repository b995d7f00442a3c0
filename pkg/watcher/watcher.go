// Package watcher reports changes to an outline file. It watches the
// parent directory with fsnotify, so editors that replace the file on
// save are seen, and falls back to polling the file's size and mtime.
//
// SQLite outlines are written through a journal, so their -wal and
// -journal sidecars count as the outline too. Saves that leave the
// content unchanged are not reported.
package watcher

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithOnChange sets the callback invoked when the outline changes.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithContentCheck controls whether a change is confirmed against a digest
// of the outline's bytes before it is reported. It is on by default.
func WithContentCheck(on bool) WatcherOption {
	return func(w *Watcher) { w.contentCheck = on }
}

// stamp is the size and mtime of one watched file; the zero stamp means
// the file is absent.
type stamp struct {
	mtime time.Time
	size  int64
}

// Watcher monitors an outline and its sidecars using fsnotify with a
// polling fallback.
type Watcher struct {
	path             string
	targets          []string // outline first, then sidecars
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	contentCheck     bool

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	useFallback bool
	stamps      map[string]stamp
	digest      uint64

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a new watcher for the outline at path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		targets:          Targets(absPath),
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		contentCheck:     true,
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Targets lists the files that make up the outline at path.
func Targets(path string) []string {
	out := []string{path}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		out = append(out, path+"-wal", path+"-journal")
	}
	return out
}

// Start begins watching the outline for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}
	if _, err := os.Stat(w.path); err != nil && os.IsPermission(err) {
		return ErrPermission
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.stamps = w.snapshot()
	w.digest = w.contentDigest()
	w.useFallback = w.forcePoll || envBool("ARBOR_FORCE_POLL")

	if !w.useFallback {
		if err := w.startFsnotify(); err != nil {
			w.useFallback = true
		}
	}
	if w.useFallback {
		go w.watchPolling(w.ctx)
	}

	w.started = true
	return nil
}

// startFsnotify watches the outline's directory, which keeps seeing the
// file when it is replaced by a rename.
func (w *Watcher) startFsnotify() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}
	w.fsWatcher = fsw
	go w.watchFsnotify(w.ctx, fsw.Events, fsw.Errors)
	return nil
}

// Stop stops watching. Changed is left open: a reader blocked on it is
// released at program exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when the outline changes.
// This is an alternative to using the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched outline path.
func (w *Watcher) Path() string {
	return w.path
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func (w *Watcher) isTarget(name string) bool {
	return slices.Contains(w.targets, name)
}

func (w *Watcher) watchFsnotify(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !w.isTarget(name) {
				continue
			}
			switch {
			case name == w.path && event.Op&fsnotify.Remove != 0:
				w.onError(ErrFileRemoved)
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0:
				// A checkpoint removes the -wal file after folding it into the database.
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

// poll compares the stamps of every target with the last poll.
func (w *Watcher) poll() {
	if _, err := os.Stat(w.path); err != nil {
		w.mu.RLock()
		hadFile := w.stamps[w.path] != (stamp{})
		w.mu.RUnlock()
		switch {
		case os.IsNotExist(err):
			if hadFile {
				w.onError(ErrFileRemoved)
			}
		case os.IsPermission(err):
			w.onError(ErrPermission)
		default:
			w.onError(err)
		}
		if !os.IsNotExist(err) {
			return
		}
	}

	now := w.snapshot()
	w.mu.Lock()
	changed := false
	for _, t := range w.targets {
		old, cur := w.stamps[t], now[t]
		if cur.mtime.After(old.mtime) || cur.size != old.size || (old != stamp{}) != (cur != stamp{}) {
			changed = true
		}
	}
	w.stamps = now
	w.mu.Unlock()

	if changed {
		w.debouncer.Trigger(w.notifyChange)
	}
}

func (w *Watcher) snapshot() map[string]stamp {
	out := make(map[string]stamp, len(w.targets))
	for _, t := range w.targets {
		if info, err := os.Stat(t); err == nil {
			out[t] = stamp{mtime: info.ModTime(), size: info.Size()}
		}
	}
	return out
}

// contentDigest hashes the bytes of every target that exists.
func (w *Watcher) contentDigest() uint64 {
	h := fnv.New64a()
	for _, t := range w.targets {
		f, err := os.Open(t)
		if err != nil {
			continue
		}
		io.WriteString(h, t)
		_, _ = io.Copy(h, f)
		f.Close()
	}
	return h.Sum64()
}

// notifyChange reports a debounced change, unless the outline's bytes
// are what they were at the last report.
func (w *Watcher) notifyChange() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.contentCheck {
		d := w.contentDigest()
		if d == w.digest {
			w.mu.Unlock()
			return
		}
		w.digest = d
	}
	w.mu.Unlock()

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
