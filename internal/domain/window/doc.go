/*
Package window holds the model of tracked applications and their windows.

# Tables

A Registry keeps every tracked Window in exactly one of two tables:

  - live: keyed by protocol window id
  - hibernating: keyed by hibernation key (class-name plus role)

Relocate is the only operation that moves a window between them.
Reconcile runs whenever the client list changes. It first evicts windows
that left the list (hibernating those whose app can hibernate, destroying
the rest), then classifies new ids and either reclaims a hibernating window
with the same key or creates a new one.

# Entries

An Entry is the handle consumers use for the desktop, an app, a window
without views, or a view. App and window entries are created on first
request, view entries together with their view. Every Entry carries a
stable id that survives hibernation.

# Notifications

Observers receive Added, Removed, Changed and StackChanged notifications
synchronously on the event loop. Lifecycle hooks let controllers follow
windows through Created, Hibernated, Resurrected and Destroyed.
*/
package window
