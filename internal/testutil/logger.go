package testutil

import (
	"io"
	"log/slog"
)

// DiscardLogger returns a logger that drops everything.
// Parser diagnostics are logged as they are recorded; tests that only check
// the returned diagnostics use this to keep output quiet.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// CaptureLogger returns a debug-level text logger writing to w, for tests
// that assert on log output.
func CaptureLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
