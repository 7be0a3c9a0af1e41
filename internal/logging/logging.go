// Package logging provides helpers for structured, colorized logging across the application.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Level represents a structured log level used by stackctl.
type Level slog.Level

const (
	// LevelDebug represents the debug logging level.
	LevelDebug Level = Level(slog.LevelDebug)
	// LevelInfo represents the informational logging level.
	LevelInfo Level = Level(slog.LevelInfo)
	// LevelWarn represents the warning logging level.
	LevelWarn Level = Level(slog.LevelWarn)
	// LevelError represents the error logging level.
	LevelError Level = Level(slog.LevelError)
)

// ParseLevel converts a textual log level into a Level value.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// String returns the lowercase textual form of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// NewLogger constructs a slog.Logger configured with a tint handler and level.
// Color is disabled when NO_COLOR is set so that CI logs stay clean.
func NewLogger(w io.Writer, level Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	_, noColor := os.LookupEnv("NO_COLOR")

	handler := tint.NewHandler(w, &tint.Options{
		Level:   slog.Level(level),
		NoColor: noColor,
	})

	return slog.New(handler)
}
