package runtime

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns the JSON logger every service writes to stdout.
// LOG_LEVEL accepts debug, info, warn or error.
func NewLogger(service string) *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(os.Getenv("LOG_LEVEL")),
	})
	return slog.New(h).With("service", service)
}

func levelFromEnv(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
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
