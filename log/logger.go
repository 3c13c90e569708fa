// Package log provides the structured logger used by the CLI: a thin
// wrapper over log/slog rendered through
// console-slog for colored, human-readable terminal output.
package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/phsym/console-slog"
)

// Logger wraps a *slog.Logger with the teacher's transaction-prefixed
// convenience method generalized from "dep: " to "pacman: ".
type Logger struct {
	*slog.Logger
}

// New returns a logger that writes colored, leveled output to w.
func New(w io.Writer, level slog.Level) *Logger {
	handler := console.NewHandler(w, &console.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// Logln logs a line at Info level, joining args the way fmt.Sprintln
// does.
func (l *Logger) Logln(args ...interface{}) {
	l.Info(fmt.Sprintln(args...))
}

// Logf logs a formatted string at Info level.
func (l *Logger) Logf(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// LogPacfln logs a formatted line at Info level, prefixed with
// "pacman: ", matching pacman's own log line convention.
func (l *Logger) LogPacfln(format string, args ...interface{}) {
	l.Info(fmt.Sprintf("pacman: "+format, args...))
}

// Debugf logs a formatted string at Debug level, used for the CLI's
// per-event trace lines and other verbose-only diagnostics.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}
