package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// Initialize installs the process-wide slog handler. The JSON handler is the
// default; "pretty" routes records through pterm for interactive terminals.
func Initialize(level slog.Level, format string) {
	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatPretty:
		ptermLogger := pterm.DefaultLogger.WithLevel(ptermLevel(level))
		handler = pterm.NewSlogHandler(ptermLogger)
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a config string to a slog level, falling back to info.
func ParseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func Named(name string) *slog.Logger {
	logger := slog.Default()
	if logger == nil {
		return nil
	}

	return logger.With("name", name)
}

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelDebug
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}
