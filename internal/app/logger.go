package app

import (
	"io"
	"log/slog"
)

// newLogger builds the app's own logger from a validated config. It never
// touches slog.Default, so apps created side by side in tests stay isolated.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	var handler slog.Handler
	switch cfg.LogFormat {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}
