// Package logging builds the structured logger shared by every component.
// It wraps log/slog with a JSON handler. Logs never go to stdout, which
// carries the MCP stdio transport.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log levels accepted in configuration.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// ParseLevel converts a level name to slog.Level.
// Unrecognized names fall back to INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a JSON logger writing to w at the given level.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Open returns a logger writing to path, or to stderr when path is empty.
// The returned close func is always non-nil.
func Open(path, level string) (*slog.Logger, func() error, error) {
	if path == "" {
		return New(os.Stderr, level), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return New(f, level), f.Close, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// OrDiscard returns l, or a discard logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// WithBranch returns a child logger tagged with the branch name.
func WithBranch(l *slog.Logger, branch string) *slog.Logger {
	return OrDiscard(l).With(slog.String("branch", branch))
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(l *slog.Logger, component string) *slog.Logger {
	return OrDiscard(l).With(slog.String("component", component))
}

// WithPhase returns a child logger tagged with a phase name.
func WithPhase(l *slog.Logger, phase string) *slog.Logger {
	return OrDiscard(l).With(slog.String("phase", phase))
}
