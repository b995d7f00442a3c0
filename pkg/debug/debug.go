// Package debug provides conditional debug logging for arbor.
//
// Debug logging is enabled by setting the ARBOR_DEBUG environment variable:
//
//	ARBOR_DEBUG=1 arbor notes.yaml
//
// Output goes to stderr, or to the file named by ARBOR_DEBUG_FILE. The
// browser owns the terminal, so it sends the log to a file (see OpenFile).
// When disabled (the default) every function is a no-op.
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const prefix = "[ARBOR_DEBUG] "

// FileEnv names the file debug output is appended to.
const FileEnv = "ARBOR_DEBUG_FILE"

var (
	mu      sync.Mutex
	enabled bool
	logger  = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
)

func init() {
	if os.Getenv("ARBOR_DEBUG") == "" {
		return
	}
	enabled = true
	if path := os.Getenv(FileEnv); path != "" {
		if _, err := OpenFile(path); err != nil {
			logger.Printf("cannot log to %s: %v", path, err)
		}
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// SetEnabled switches debug logging on or off.
func SetEnabled(e bool) {
	mu.Lock()
	enabled = e
	mu.Unlock()
}

// SetOutput redirects debug output.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// OpenFile appends debug output to path, creating its directory. The
// returned function closes the file and restores stderr.
func OpenFile(path string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(f)
	return func() error {
		logger.SetOutput(os.Stderr)
		return f.Close()
	}, nil
}

// Log writes a printf-style debug message.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes how long name took.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEnterExit logs entry now and exit with timing when the result is
// called:
//
//	defer debug.LogEnterExit("RemoveAll")()
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		LogTiming("<- "+name, time.Since(start))
	}
}
