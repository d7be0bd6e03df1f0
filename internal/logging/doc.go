// Package logging provides structured logging utilities for calslack.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Configure the process-wide logger once at startup:
//
//	logger := logging.Setup("debug", "text")
//
// Create a logger with standard attributes:
//
//	logger := logging.WithEvent(slog.Default(), "primary", eventID)
//	logger.Info("patched master event", logging.Scope("all"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("resolved slack user", logging.UserHash(email))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
