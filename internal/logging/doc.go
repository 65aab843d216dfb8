// Package logging provides structured logging for anthemctl.
//
// This package wraps a package-global zap logger with convenience functions
// for the logging patterns used by the controller, the relay and the CLI.
//
// # Log Levels
//
//   - Debug: wire traffic (every flushed batch and received token), raw bytes
//   - Info: connection lifecycle, readiness, relay clients
//   - Warn: receiver rejections, reconnect attempts
//   - Error: fatal issues (startup failures, listener errors)
//
// # Structured Logging
//
//	logging.Info("Receiver ready",
//	    zap.String("remote_addr", "192.168.1.40:14999"),
//	    zap.String("model", "MRX 740"),
//	)
//
// # Specialized Logging
//
// Connection Logging:
//
//	logging.LogConnection(remoteAddr, "connected")
//	logging.LogConnection(remoteAddr, "closed")
//
// Wire Logging:
//
//	logging.LogWire(remoteAddr, "tx", "Z1POW?;Z2POW?;")
//	logging.LogWire(remoteAddr, "rx", "Z1POW1")
//
// # Configuration
//
// Logging is silent unless a level is given explicitly or through the
// ANTHEMCTL_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize(""); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr in console format so that it never mixes with
// command output on stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once the logger is
// initialised. SetLogger is meant for test setup and is not synchronised.
package logging
