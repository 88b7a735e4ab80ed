// Package logger provides structured logging for the application.
//
// It uses the standard library log/slog package with a JSON handler, a
// configurable level, and helpers that carry a request-scoped logger in a
// context.Context.
package logger
