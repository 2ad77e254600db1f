package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Components receive child loggers
// from here rather than logging through package globals.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
