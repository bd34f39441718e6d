// Package logger provides verbose logging for the baratazo CLI.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr to follow a crawl round by round.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func emit(always bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit(false, "[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	emit(false, "[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	emit(false, "[WARN] ", format, args...)
}

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) {
	emit(true, "[ERROR] ", format, args...)
}

// Scoped prefixes every message with a scope, typically a store name,
// so interleaved output from parallel crawls stays readable.
type Scoped struct {
	scope string
}

// For returns a logger scoped to name.
func For(name string) Scoped {
	return Scoped{scope: "[" + name + "] "}
}

// Debug prints a scoped debug message if verbose mode is enabled.
func (s Scoped) Debug(format string, args ...any) {
	emit(false, "[DEBUG] "+s.scope, format, args...)
}

// Info prints a scoped informational message if verbose mode is enabled.
func (s Scoped) Info(format string, args ...any) {
	emit(false, "[INFO] "+s.scope, format, args...)
}

// Warn prints a scoped warning if verbose mode is enabled.
func (s Scoped) Warn(format string, args ...any) {
	emit(false, "[WARN] "+s.scope, format, args...)
}

// Error prints a scoped error regardless of verbose mode.
func (s Scoped) Error(format string, args ...any) {
	emit(true, "[ERROR] "+s.scope, format, args...)
}
