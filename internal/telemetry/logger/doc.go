// Package logger provides structured logging for QuickVote.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, configuration, dynamic level
//   - context.go: context propagation of the logger and request ID
//   - redact.go: masking of credentials and voter identities
//
// Voter e-mails never reach the log in clear text: any string value that
// looks like an address is reduced to its first character and domain.
package logger
