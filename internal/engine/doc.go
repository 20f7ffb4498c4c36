// Package engine is the context object of the task-switcher tracker.
//
// An Engine owns the single event loop and every domain component built on
// it: the window registry, the hibernation and memory-pressure controllers,
// the refresh debounce and the metrics observer. Property-source events,
// bus signals, timer callbacks and remote requests all execute on the loop;
// the exported request methods post to it and wait.
package engine
