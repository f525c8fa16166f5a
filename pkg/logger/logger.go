// Package logger defines the structured logging contract for the port
// authentication service. Implementations live under
// internal/infrastructure/monitoring; a no-op implementation is provided for
// tests.
package logger

import "context"

// Fields is a set of key/value pairs attached to a log record.
type Fields map[string]interface{}

// Logger is the context-aware structured logging interface. Implementations
// must never emit whole credential values (token, sign, key material).
type Logger interface {
	// Debug logs a debug message.
	Debug(ctx context.Context, msg string, fields ...Fields)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, fields ...Fields)

	// Warn logs a warning message.
	Warn(ctx context.Context, msg string, fields ...Fields)

	// Error logs an error message with its cause.
	Error(ctx context.Context, msg string, err error, fields ...Fields)

	// Fatal logs a fatal message and terminates the process.
	Fatal(ctx context.Context, msg string, err error, fields ...Fields)

	// WithFields returns a logger that attaches the fields to every record.
	WithFields(fields Fields) Logger

	// ForContext returns the request-scoped logger carried by ctx, or the
	// receiver when none is present.
	ForContext(ctx context.Context) Logger
}

// Preview truncates a sensitive value to a short prefix suitable for logging.
func Preview(s string) string {
	const max = 12
	if len(s) <= max {
		return "***"
	}
	return s[:max] + "..."
}
