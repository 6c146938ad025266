package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Init creates and sets the package-level default slog logger writing to w.
// JSON output suits a collector run under CI log shippers; text output is
// for people watching a terminal that also shows rendered test logs.
func Init(w io.Writer, asJSON bool, level slog.Level) {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(name string) *slog.Logger {
	return slog.Default().With(slog.String("component", name))
}
