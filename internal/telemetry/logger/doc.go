// Package logger provides structured logging for the console.
//
//   - logger.go: Logger interface over log/slog, level handling
//   - context.go: request-scoped loggers and request IDs
//   - redact.go: credential masking applied to every attribute
//
// Logs go to stderr so they never mix with command output on stdout.
package logger
