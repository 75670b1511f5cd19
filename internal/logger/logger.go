// Package logger provides leveled logging for the docflow CLI.
// Debug, Info and Warn messages are printed to stderr only when verbose
// mode is enabled via the --verbose flag. Error messages are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Level is the severity of a log line.
type Level int

// Log levels in increasing severity.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed in front of each line.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LOG"
	}
}

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

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether a line at level would be printed.
func Enabled(level Level) bool {
	return level >= LevelError || IsVerbose()
}

func logf(level Level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if level < LevelError && !verbose {
		return
	}
	fmt.Fprintf(output, "["+level.String()+"] "+prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { logf(LevelDebug, "", format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { logf(LevelInfo, "", format, args...) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { logf(LevelWarn, "", format, args...) }

// Error prints a message regardless of verbose mode.
func Error(format string, args ...any) { logf(LevelError, "", format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Job returns a logger that tags every line with a job identifier.
func Job(id string) Scoped {
	return Scoped{prefix: "job " + id + ": "}
}

// Scoped prefixes each line with a fixed tag.
type Scoped struct {
	prefix string
}

// Debug prints a tagged message if verbose mode is enabled.
func (s Scoped) Debug(format string, args ...any) { logf(LevelDebug, s.prefix, format, args...) }

// Info prints a tagged message if verbose mode is enabled.
func (s Scoped) Info(format string, args ...any) { logf(LevelInfo, s.prefix, format, args...) }

// Warn prints a tagged message if verbose mode is enabled.
func (s Scoped) Warn(format string, args ...any) { logf(LevelWarn, s.prefix, format, args...) }

// Error prints a tagged message regardless of verbose mode.
func (s Scoped) Error(format string, args ...any) { logf(LevelError, s.prefix, format, args...) }
