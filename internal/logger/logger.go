package logger

import (
	"io"
	"log/slog"
	"os"

	"docstack/internal/config"
)

// New builds the process logger: JSON in production, text elsewhere. The
// returned logger is also installed as the slog default.
func New(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Server.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	logger := slog.New(handler).With(
		"service", "docstack",
		"environment", cfg.Server.Environment,
	)
	slog.SetDefault(logger)
	return logger
}

// Silenced returns a logger that only emits errors, for tests.
func Silenced(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}
