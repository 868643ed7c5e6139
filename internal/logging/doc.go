// Package logging provides structured logging for the wizard and the
// configuration server.
//
// This package wraps a global zap logger with convenience functions. Logging is
// silent unless a level is passed explicitly or TOPOLOGY_LOG_LEVEL is set, so
// CLI output stays clean by default.
//
// # Log Levels
//
//   - Debug: screen transitions, WebSocket payloads
//   - Info: HTTP requests, connections, server lifecycle
//   - Warn: failed requests, dropped clients
//   - Error: startup failures, persistence errors
//
// # Specialized Logging
//
//	logging.LogTransition("tls", "reverse-proxy", "advance", "reverse_proxy")
//	logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, status, elapsed)
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogWebSocketMessage(remoteAddr, "sent", payload)
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr, or to the file named by TOPOLOGY_LOG_FILE. The
// terminal wizard should always be run with a log file when debugging, since
// anything written to the terminal corrupts its display.
package logging
