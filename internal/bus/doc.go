// Package bus defines the inbound signals the tracker reacts to: process
// death, low-memory and background-kill situations, home-key presses and
// shutdown. Transports live in subpackages; Local is an in-process source
// for tests and for running without a signal bus.
package bus
