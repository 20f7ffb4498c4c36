package fake

import (
	"sync"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// Request records a call made on the fake window manager.
type Request struct {
	Op     string
	Window platform.WindowID
	View   uint32
	Show   bool
}

// WindowManager records every request it receives.
type WindowManager struct {
	mu       sync.Mutex
	Requests []Request
	Err      error
}

// Activate implements platform.WindowManager.
func (m *WindowManager) Activate(id platform.WindowID, view uint32) error {
	return m.record(Request{Op: "activate", Window: id, View: view})
}

// Close implements platform.WindowManager.
func (m *WindowManager) Close(id platform.WindowID) error {
	return m.record(Request{Op: "close", Window: id})
}

// ShowDesktop implements platform.WindowManager.
func (m *WindowManager) ShowDesktop(show bool) error {
	return m.record(Request{Op: "show-desktop", Show: show})
}

func (m *WindowManager) record(r Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, r)
	return m.Err
}

// Last returns the most recent request, if any.
func (m *WindowManager) Last() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return Request{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}
