package cmd

import (
	"io"
	"log/slog"

	"github.com/GoCodeAlone/modactivator/config"
)

// newLogger builds the text logger used by long-running commands.
func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogLevelDebug:
		l = slog.LevelDebug
	case config.LogLevelWarn:
		l = slog.LevelWarn
	case config.LogLevelError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}
