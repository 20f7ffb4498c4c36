package process

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// ErrInvalidPID is returned for pids that would address a process group.
var ErrInvalidPID = errors.New("invalid pid")

// Signaler delivers unix signals to single processes.
type Signaler struct{}

// New creates a signaler.
func New() *Signaler {
	return &Signaler{}
}

// Signal implements platform.Signaler. Pids below 2 are refused so a bad
// property can never reach init or a process group.
func (s *Signaler) Signal(pid int, sig syscall.Signal) error {
	if pid < 2 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		return fmt.Errorf("failed to send %s to %d: %w", unix.SignalName(sig), pid, err)
	}
	return nil
}

// Alive implements platform.Signaler. A process we may not signal still
// exists.
func (s *Signaler) Alive(pid int) bool {
	if pid < 2 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
