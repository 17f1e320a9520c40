// Package logger builds the process-wide slog.Logger for
// gtin-price-compare binaries.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options controls how the logger is built. The zero value yields an
// info-level text logger on stderr.
type Options struct {
	// Level is one of debug, info, warn, error. Unrecognized values
	// fall back to info.
	Level string
	// Format is text or json. Anything else means text.
	Format string
	// Writer receives the log output. Nil means stderr.
	Writer io.Writer
}

// New builds a *slog.Logger from opts. Debug level also enables source
// locations, since debug output is only ever read by a developer.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	level := parseLevel(opts.Level)
	hopts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
