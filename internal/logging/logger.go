// Package logging defines the structured logger the rest of the project
// depends on. The CLI wires it to slog, the daemon to zap; code that logs
// never cares which.
package logging

import "context"

// Logger logs structured, context-aware messages. Variadic args are
// alternating key/value pairs:
//
//	log.Info(ctx, "sync finished", "records", n)
type Logger interface {
	// Info records normal operation.
	Info(ctx context.Context, msg string, args ...any)

	// Warn records conditions that were handled but deserve attention.
	Warn(ctx context.Context, msg string, args ...any)

	// Error records failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that attaches the given pairs to every message.
	With(args ...any) Logger
}
