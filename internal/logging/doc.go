// Package logging provides structured logging for the guestgate CLI.
//
// This package wraps zap with convenience functions for the logging patterns
// used throughout the application. Output goes to stderr so the command's
// primary output (credential cards, guest tables) stays clean on stdout.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (protocol words, login attempts)
//   - Info: Normal operations (provisioned, revoked, cleanup runs)
//   - Warn: Non-fatal issues (disconnect failures, regenerations)
//   - Error: Fatal issues (device unreachable, store failures)
//
// # Configuration
//
// CLI commands are silent by default. Verbosity is enabled either through
// the configuration file's log_level key or the GUESTGATE_LOG_LEVEL
// environment variable:
//
//	if err := logging.Initialize(cfg.LogLevel); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
