// Package fake provides an in-memory PropertySource and WindowManager for tests.
package fake

import (
	"errors"
	"sync"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// ErrNoWindow is returned for queries on windows the source does not know.
var ErrNoWindow = errors.New("fake: no such window")

// Window holds the scripted properties of one fake window.
type Window struct {
	Class          string
	Role           string
	Kind           platform.Kind
	Name           string
	Subname        string
	Views          []uint32
	ActiveView     uint32
	Killable       bool
	NoInitialFocus bool
	Urgent         bool
	Icon           *platform.Icon
	PID            int
	Fullscreen     bool
	// Broken makes every query for this window fail.
	Broken bool
}

// Source is a scriptable platform.PropertySource.
type Source struct {
	mu           sync.Mutex
	windows      map[platform.WindowID]*Window
	clients      []platform.WindowID
	active       platform.WindowID
	desktopShown bool
	events       chan platform.Event
}

// NewSource creates an empty source.
func NewSource() *Source {
	return &Source{
		windows: make(map[platform.WindowID]*Window),
		events:  make(chan platform.Event, 256),
	}
}

// Put registers or replaces a window without touching the client list.
func (s *Source) Put(id platform.WindowID, w *Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[id] = w
}

// Map registers a window and appends it to the client list.
func (s *Source) Map(id platform.WindowID, w *Window) {
	s.mu.Lock()
	s.windows[id] = w
	s.clients = append(s.clients, id)
	s.mu.Unlock()
	s.emit(platform.Event{Type: platform.EventRoot, Root: platform.RootClientList})
}

// Unmap removes a window from the client list and forgets its properties.
func (s *Source) Unmap(id platform.WindowID) {
	s.mu.Lock()
	delete(s.windows, id)
	for i, c := range s.clients {
		if c == id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.emit(platform.Event{Type: platform.EventRoot, Root: platform.RootClientList})
}

// SetClients replaces the client list as-is.
func (s *Source) SetClients(ids ...platform.WindowID) {
	s.mu.Lock()
	s.clients = append([]platform.WindowID(nil), ids...)
	s.mu.Unlock()
}

// Update mutates a window and emits a property event for it.
func (s *Source) Update(id platform.WindowID, prop platform.Property, fn func(w *Window)) {
	s.mu.Lock()
	if w, ok := s.windows[id]; ok {
		fn(w)
	}
	s.mu.Unlock()
	s.emit(platform.Event{Type: platform.EventProperty, Window: id, Property: prop})
}

// SetActive changes the active window and emits the root event.
func (s *Source) SetActive(id platform.WindowID) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
	s.emit(platform.Event{Type: platform.EventRoot, Root: platform.RootActiveWindow})
}

// SetDesktopShown changes the desktop flag and emits the root event.
func (s *Source) SetDesktopShown(shown bool) {
	s.mu.Lock()
	s.desktopShown = shown
	s.mu.Unlock()
	s.emit(platform.Event{Type: platform.EventRoot, Root: platform.RootDesktopShown})
}

// Send emits an arbitrary event.
func (s *Source) Send(ev platform.Event) {
	s.emit(ev)
}

func (s *Source) emit(ev platform.Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Events implements platform.PropertySource.
func (s *Source) Events() <-chan platform.Event {
	return s.events
}

// ClientList implements platform.PropertySource.
func (s *Source) ClientList() ([]platform.WindowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]platform.WindowID(nil), s.clients...), nil
}

// ActiveWindow implements platform.PropertySource.
func (s *Source) ActiveWindow() (platform.WindowID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

// DesktopShown implements platform.PropertySource.
func (s *Source) DesktopShown() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desktopShown, nil
}

func (s *Source) window(id platform.WindowID) (*Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok || w.Broken {
		return nil, ErrNoWindow
	}
	cp := *w
	cp.Views = append([]uint32(nil), w.Views...)
	return &cp, nil
}

// Fullscreen implements platform.PropertySource.
func (s *Source) Fullscreen(id platform.WindowID) (bool, error) {
	w, err := s.window(id)
	if err != nil {
		return false, err
	}
	return w.Fullscreen, nil
}

// Class implements platform.PropertySource.
func (s *Source) Class(id platform.WindowID) (string, error) {
	w, err := s.window(id)
	if err != nil {
		return "", err
	}
	return w.Class, nil
}

// Role implements platform.PropertySource.
func (s *Source) Role(id platform.WindowID) (string, error) {
	w, err := s.window(id)
	if err != nil {
		return "", err
	}
	return w.Role, nil
}

// Kind implements platform.PropertySource.
func (s *Source) Kind(id platform.WindowID) (platform.Kind, error) {
	w, err := s.window(id)
	if err != nil {
		return platform.KindUnknown, err
	}
	return w.Kind, nil
}

// Name implements platform.PropertySource.
func (s *Source) Name(id platform.WindowID) (string, string, error) {
	w, err := s.window(id)
	if err != nil {
		return "", "", err
	}
	return w.Name, w.Subname, nil
}

// ViewList implements platform.PropertySource.
func (s *Source) ViewList(id platform.WindowID) ([]uint32, error) {
	w, err := s.window(id)
	if err != nil {
		return nil, err
	}
	return w.Views, nil
}

// ActiveView implements platform.PropertySource.
func (s *Source) ActiveView(id platform.WindowID) (uint32, error) {
	w, err := s.window(id)
	if err != nil {
		return 0, err
	}
	return w.ActiveView, nil
}

// Killable implements platform.PropertySource.
func (s *Source) Killable(id platform.WindowID) (bool, error) {
	w, err := s.window(id)
	if err != nil {
		return false, err
	}
	return w.Killable, nil
}

// NoInitialFocus implements platform.PropertySource.
func (s *Source) NoInitialFocus(id platform.WindowID) (bool, error) {
	w, err := s.window(id)
	if err != nil {
		return false, err
	}
	return w.NoInitialFocus, nil
}

// Urgent implements platform.PropertySource.
func (s *Source) Urgent(id platform.WindowID) (bool, error) {
	w, err := s.window(id)
	if err != nil {
		return false, err
	}
	return w.Urgent, nil
}

// Icon implements platform.PropertySource.
func (s *Source) Icon(id platform.WindowID) (*platform.Icon, error) {
	w, err := s.window(id)
	if err != nil {
		return nil, err
	}
	return w.Icon, nil
}

// PID implements platform.PropertySource.
func (s *Source) PID(id platform.WindowID) (int, error) {
	w, err := s.window(id)
	if err != nil {
		return 0, err
	}
	if w.PID == 0 {
		return 0, ErrNoWindow
	}
	return w.PID, nil
}
