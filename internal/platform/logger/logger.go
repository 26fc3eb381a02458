package logger

import (
	"log/slog"
	"os"
)

// New returns the JSON logger used across the service. Level defaults to
// info; set REGISTRY_LOG_LEVEL=debug to turn on debug output.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("REGISTRY_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
