// Package main is the entry point for switcherd, the task switcher's
// application lifecycle tracker.
//
// Architecture:
//
//	Window manager (X11) ─┐
//	Signal bus (D-Bus)  ──┼→ event loop → registry → notifications → UI (HTTP/WebSocket)
//	Descriptor files    ──┘
//
// The daemon provides:
//   - A model of running, hibernating and urgent applications
//   - Termination of background applications under memory pressure
//   - Resumption of hibernated applications on activation
//   - REST API, notification stream and Prometheus metrics
//   - The kill method on the session bus
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags for the client commands
//
// Usage:
//
//	# Daemon
//	switcherd run
//
//	# Client commands against a running daemon
//	switcherd entries
//	switcherd kill lru
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
