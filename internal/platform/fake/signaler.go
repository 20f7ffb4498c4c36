package fake

import (
	"sync"
	"syscall"
)

// Sent records one delivered signal.
type Sent struct {
	PID    int
	Signal syscall.Signal
}

// Signaler records signals instead of delivering them. A pid stays alive
// until it receives SIGKILL or is marked dead.
type Signaler struct {
	mu   sync.Mutex
	Sent []Sent
	dead map[int]bool
	Err  error
}

// Signal implements platform.Signaler.
func (s *Signaler) Signal(pid int, sig syscall.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, Sent{PID: pid, Signal: sig})
	if sig == syscall.SIGKILL {
		s.markDead(pid)
	}
	return nil
}

// Alive implements platform.Signaler.
func (s *Signaler) Alive(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.dead[pid]
}

// Exit marks a pid as gone.
func (s *Signaler) Exit(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markDead(pid)
}

func (s *Signaler) markDead(pid int) {
	if s.dead == nil {
		s.dead = make(map[int]bool)
	}
	s.dead[pid] = true
}

// PIDs returns the pids that received sig, in order.
func (s *Signaler) PIDs(sig syscall.Signal) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int
	for _, sent := range s.Sent {
		if sent.Signal == sig {
			out = append(out, sent.PID)
		}
	}
	return out
}
