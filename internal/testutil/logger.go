package testutil

import "log/slog"

// NopLogger returns a logger for services under test; records are dropped
// before formatting.
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
