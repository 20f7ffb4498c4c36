/*
Package loop provides the single-threaded event loop the tracker runs on.

# Overview

All protocol events, bus signals, RPC requests and timer callbacks execute
on one goroutine. Other goroutines never touch tracker state; they Post a
closure and, when they need a result, wait for it with Do.

# Timers

Timers are handles. Stopping a timer guarantees its callback does not run,
even when the underlying wall-clock timer already fired and queued it.

	l := loop.New()
	t := l.AfterFunc(3*time.Second, func() { escalate() })
	...
	t.Stop()

Manual is a deterministic Scheduler for tests, and Debouncer coalesces
bursts of triggers into a single callback.
*/
package loop
