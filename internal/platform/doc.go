// Package platform defines the narrow interfaces between the tracker and the
// operating system.
//
// Key Components:
//   - PropertySource: window-protocol events and per-window property queries
//   - WindowManager: activate, close and show-desktop requests
//   - Signaler: process signal delivery
//
// Adapters live in sub-packages:
//   - x11: EWMH/ICCCM implementation over xgbutil
//   - process: unix signal delivery
//   - fake: scriptable in-memory source for tests
package platform
