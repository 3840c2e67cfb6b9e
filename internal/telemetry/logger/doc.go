// Package logger builds the process logger on log/slog.
//
//   - logger.go: handler construction and the dynamic level
//   - context.go: request id propagation into every record
//   - redact.go: masking of secret-bearing attributes
//
// Components receive a *slog.Logger. Records logged with a context that
// carries a request id get a request_id attribute automatically.
package logger
