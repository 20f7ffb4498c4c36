// Package dbus is the D-Bus transport for the tracker. It translates session
// and system bus signals into bus.Signal values, resumes hibernated
// applications through their launch services and exports the kill method.
package dbus
