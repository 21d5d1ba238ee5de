// Package log owns the process-wide structured logger. Output is JSON
// on stdout; packages derive scoped loggers through the With helpers
// rather than touching slog directly.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var root atomic.Pointer[slog.Logger]

// ParseLevel maps a config string to a slog level. Unknown strings mean
// INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the global JSON logger at the given level. Calling it
// again replaces the logger; the last call wins.
func Setup(level string) {
	SetupWithWriter(os.Stdout, level)
}

// SetupWithWriter is Setup with an explicit destination, used by tests
// to capture output.
func SetupWithWriter(w io.Writer, level string) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	l := slog.New(handler)
	root.Store(l)
	slog.SetDefault(l)
}

// Get returns the configured logger, installing an INFO default when
// Setup has not run.
func Get() *slog.Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Setup("INFO")
	return root.Load()
}

// WithComponent scopes a logger to one subsystem (manager, api, main).
func WithComponent(name string) *slog.Logger {
	return Get().With(slog.String("component", name))
}

// WithListener scopes a logger to one registered listener.
func WithListener(name string) *slog.Logger {
	return Get().With(slog.String("listener", name))
}

// WithWorker scopes a logger to one worker goroutine.
func WithWorker(id string) *slog.Logger {
	return Get().With(slog.String("worker_id", id))
}

// Info logs at INFO level on the global logger.
func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

// Debug logs at DEBUG level on the global logger.
func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// Warn logs at WARN level on the global logger.
func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

// Error logs at ERROR level on the global logger.
func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
