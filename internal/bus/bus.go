package bus

import "sync"

// Kind identifies an inbound signal.
type Kind int

const (
	ProcessDied Kind = iota
	LowMemoryOn
	LowMemoryOff
	BackgroundKillOn
	BackgroundKillOff
	HomeShort
	HomeLong
	Shutdown
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case ProcessDied:
		return "process-died"
	case LowMemoryOn:
		return "lowmem-on"
	case LowMemoryOff:
		return "lowmem-off"
	case BackgroundKillOn:
		return "bgkill-on"
	case BackgroundKillOff:
		return "bgkill-off"
	case HomeShort:
		return "home-short"
	case HomeLong:
		return "home-long"
	case Shutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Signal is one inbound message. Service is set for ProcessDied.
type Signal struct {
	Kind    Kind
	Service string
}

// Source delivers inbound signals.
type Source interface {
	Signals() <-chan Signal
	Close() error
}

// Local is an in-process Source. The daemon uses it when no signal bus is
// available, so the event loop always has a source to select on.
type Local struct {
	ch   chan Signal
	once sync.Once
	done chan struct{}
}

// NewLocal creates a local source with a small buffer.
func NewLocal() *Local {
	return &Local{ch: make(chan Signal, 32), done: make(chan struct{})}
}

// Emit queues a signal. It drops the signal once the source is closed.
func (l *Local) Emit(s Signal) {
	select {
	case <-l.done:
	case l.ch <- s:
	}
}

// Signals implements Source.
func (l *Local) Signals() <-chan Signal { return l.ch }

// Close implements Source. The channel is left open so a select on it
// simply never fires again.
func (l *Local) Close() error {
	l.once.Do(func() { close(l.done) })
	return nil
}
