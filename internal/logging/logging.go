// Package logging builds the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls handler selection.
type Options struct {
	JSON    bool
	Level   string
	Service string
}

// New returns a logger writing to stdout.
func New(opts Options) *slog.Logger {
	return NewWithWriter(os.Stdout, opts)
}

// NewWithWriter returns a logger writing to w.
func NewWithWriter(w io.Writer, opts Options) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	l := slog.New(h)
	if opts.Service != "" {
		l = l.With("service", opts.Service)
	}
	return l
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
