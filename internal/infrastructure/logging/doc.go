// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON lines on stderr, caller and stacktraces disabled
//   - Development: Colored console output with callers
//
// Every subsystem logs through a named child logger so that records can be
// filtered by component (registry, hibernation, memory, engine, x11, dbus).
// Window, PID and Service build the fields those components share.
//
// Example Usage:
//
//	logger, _ := logging.New(logging.Config{Level: "info"})
//	reg := window.NewRegistry(cat, props, logger.Component("registry"))
//	logger.Info("tracking window", logging.Window(id))
package logging
