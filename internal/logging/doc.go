// Package logging provides structured logging with per-module log levels.
//
// # Overview
//
// Loggers are plain *slog.Logger values. Output is routed automatically:
//   - to the systemd journal when journald is reachable
//   - to stdout when a terminal, pipe, socket or file is attached
//   - always to an in-memory ring buffer served by GET /api/logs
//
// # Usage
//
// Initialize once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"indicator": "debug",
//			"nats":      "warn",
//		},
//	})
//
// Then per package:
//
//	logger := logging.GetLogger("bluez")
//	logger.Info("Monitoring adapter", "adapter", "hci0")
//
// Levels are backed by slog.LevelVar, so ApplyLevels and SetModuleLevel take
// effect on loggers that were handed out earlier, including loggers created
// before Initialize.
//
// # Viewing Logs
//
//	journalctl -t statusled -f
//	journalctl -t statusled MODULE=indicator
//	journalctl -t statusled -p warning
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	indicator = "debug"
//	bluez = "warn"
package logging
