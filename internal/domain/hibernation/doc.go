// Package hibernation drives windows between the live and hibernating
// states. It wakes hibernating applications through a Launcher, closes
// windows through the window manager and terminates processes with a
// SIGTERM followed, after a fixed deadline, by a single SIGKILL.
package hibernation
