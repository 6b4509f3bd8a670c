// Package logging provides a minimal logging facade for the kadmin
// wrapper.
//
// This package defines a Logger interface that wraps a subset of the
// standard library's log/slog functionality. The interface is
// intentionally small to allow applications to provide custom
// implementations for testing, redaction, or integration with existing
// logging systems.
//
// # Default Implementation
//
// The package provides a default slog-backed implementation:
//
//	// Use default logger (slog.Default())
//	logger := logging.New(nil)
//
//	// Use custom slog.Logger
//	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	customLogger := logging.New(slog.New(handler))
//
// # Redaction Support
//
// Administration operations routinely handle passwords and key
// material. Use the redaction helpers so these never reach log storage:
//
//	logger.Info(ctx, "changing password",
//	    "principal", name,
//	    logging.Redacted("password"),
//	)
//
// # Security Considerations
//
//   - Never log passwords, keytab contents, or extracted key data
//   - Use logging.Redacted() to mark sensitive attributes
//   - Principal names are not secret but may identify users; apply
//     your organization's data handling policy
//   - Ensure log storage is secure and access-controlled
package logging
