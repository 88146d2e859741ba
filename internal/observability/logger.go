package observability

import (
	"log/slog"
	"os"
)

// NewLogger maps the CLI verbosity count onto slog levels:
// 0=warning, 1=info, 2=debug.
func NewLogger(verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
