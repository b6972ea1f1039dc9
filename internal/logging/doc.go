// Package logging provides structured logging for skylog.
//
// This package wraps zap with a process-wide logger and a handful of
// domain helpers. Logging is silent unless a level is requested, so CLI
// output stays clean by default.
//
// # Log Levels
//
//   - Debug: form transitions, endpoint attempts, websocket frames
//   - Info: logged legs, sign-in events, served requests
//   - Warn: retried submissions, dropped live-feed clients
//   - Error: reported submission failures, store errors
//
// # Configuration
//
// The level comes from the --log-level flag or SKYLOG_LOG_LEVEL:
//
//	if err := logging.Initialize(logLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The terminal UI writes to a file instead of stdout:
//
//	logging.InitializeWithOutput(level, "/home/me/.config/skylog/skylog.log")
//
// # Specialized Logging
//
//	logging.LogLegSubmitted("outbound", "LAX", "SFO", "AA123", id)
//	logging.LogHTTPRequest(reqID, "POST", "/api/flights", 201, latency, ip)
//	logging.LogSignIn("link_sent", email)
package logging
