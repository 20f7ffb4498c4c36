package loop

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by explicit Advance calls. Callbacks run
// synchronously inside Advance, which makes timer behaviour deterministic
// in tests.
type Manual struct {
	now    time.Duration
	seq    int
	timers []*manualTimer
}

// NewManual creates a manual scheduler at time zero.
func NewManual() *Manual {
	return &Manual{}
}

type manualTimer struct {
	owner   *Manual
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.owner.remove(t)
	return true
}

// AfterFunc implements Scheduler.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{owner: m, at: m.now + d, seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward and fires every timer that became due,
// including timers armed by callbacks within the window.
func (m *Manual) Advance(d time.Duration) {
	deadline := m.now + d
	for {
		next := m.nextDue(deadline)
		if next == nil {
			break
		}
		m.now = next.at
		next.stopped = true
		m.remove(next)
		next.fn()
	}
	m.now = deadline
}

// Pending returns the number of armed timers.
func (m *Manual) Pending() int {
	return len(m.timers)
}

// Now returns the elapsed manual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

func (m *Manual) nextDue(deadline time.Duration) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at == m.timers[j].at {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at < m.timers[j].at
	})
	if m.timers[0].at > deadline {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) remove(t *manualTimer) {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}
