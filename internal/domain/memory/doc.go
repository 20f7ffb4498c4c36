// Package memory reacts to memory pressure. It tracks the low-memory and
// background-kill situations and serves kill requests in three modes:
//
//	lru            the oldest hibernation-capable live window
//	all            every hibernation-capable live window
//	app:<service>  the windows of one launch service
//
// Victims are terminated through a Terminator, normally the hibernation
// controller, so each one follows the SIGTERM then SIGKILL path.
package memory
