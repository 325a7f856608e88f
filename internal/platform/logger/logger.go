package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog logger on stdout at the given level. Unknown levels
// fall back to info.
func New(level string) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
