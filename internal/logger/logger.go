// Package logger provides verbose logging for the askdoc CLI.
// Debug, Info, and Section output is gated on the --verbose flag and
// traces the indexing and retrieval pipeline; warnings always print.
// Everything goes to stderr so command output stays pipeable.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

type state struct {
	mu      sync.RWMutex
	verbose bool
	out     io.Writer
}

var std = &state{out: os.Stderr}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	std.mu.RLock()
	defer std.mu.RUnlock()
	return std.verbose
}

// SetOutput redirects log output. Defaults to os.Stderr. Useful for tests.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	std.print(true, "[DEBUG] "+format+"\n", args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	std.print(true, "[INFO] "+format+"\n", args...)
}

// Warn prints a warning message. Warnings are not gated on verbose mode:
// they report degraded operation the user should see either way.
func Warn(format string, args ...any) {
	std.print(false, "[WARN] "+format+"\n", args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	std.print(true, "\n=== %s ===\n", name)
}

func (s *state) print(gated bool, format string, args ...any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if gated && !s.verbose {
		return
	}
	fmt.Fprintf(s.out, format, args...)
}
