// Package x11 implements the platform interfaces on an EWMH/ICCCM window
// manager. Root and client property changes are pumped into a single event
// channel; queries and requests go straight to the X server.
package x11
