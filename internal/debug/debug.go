// Package debug toggles request tracing for the --debug flag and
// PACT_DEBUG. The API client checks the context before logging request
// and response details through slog.
package debug

import (
	"context"
	"log/slog"
	"os"
)

type debugKey struct{}

// WithDebug marks the context with the debug setting.
func WithDebug(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, debugKey{}, enabled)
}

// IsEnabled reports whether debug tracing is on for this context.
func IsEnabled(ctx context.Context) bool {
	enabled, ok := ctx.Value(debugKey{}).(bool)
	return ok && enabled
}

// SetupLogger configures the default slog logger. Debug mode lowers the
// level so request traces reach stderr; otherwise only warnings do.
func SetupLogger(debugEnabled bool) {
	level := slog.LevelWarn
	if debugEnabled {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
