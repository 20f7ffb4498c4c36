package engine

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
)

// EntrySnapshot is a copy of an entry taken on the loop.
type EntrySnapshot struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	CustomIcon  bool            `json:"custom_icon,omitempty"`
	Hibernating bool            `json:"hibernating"`
	Launching   bool            `json:"launching,omitempty"`
	Urgent      bool            `json:"urgent"`
	Blinking    bool            `json:"blinking"`
	Children    []EntrySnapshot `json:"children,omitempty"`
}

// State is a copy of the global flags and counts.
type State struct {
	DesktopShown   bool `json:"desktop_shown"`
	Fullscreen     bool `json:"fullscreen"`
	LowMemory      bool `json:"low_memory"`
	BackgroundKill bool `json:"background_kill"`
	Blinking       bool `json:"blinking"`
	Apps           int  `json:"apps"`
	LiveWindows    int  `json:"live_windows"`
	Hibernating    int  `json:"hibernating_windows"`
}

// Event is an outward notification prepared for remote observers.
type Event struct {
	Kind      string         `json:"kind"`
	Entry     *EntrySnapshot `json:"entry,omitempty"`
	WholeApp  bool           `json:"whole_app,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func snapshot(e *window.Entry, deep bool) EntrySnapshot {
	s := EntrySnapshot{
		ID:          e.ID().String(),
		Kind:        e.Kind().String(),
		Title:       e.Title(),
		Subtitle:    e.Subtitle(),
		Icon:        e.IconName(),
		CustomIcon:  e.CustomIcon() != nil,
		Hibernating: e.Hibernating(),
		Urgent:      e.Urgent(),
		Blinking:    e.Blinking(),
	}
	if app := e.App(); app != nil {
		s.Launching = app.Launching()
	}
	if deep {
		for _, child := range e.Children() {
			s.Children = append(s.Children, snapshot(child, e.Kind() == window.EntryDesktop))
		}
	}
	return s
}

func newEvent(n window.Notification) Event {
	ev := Event{
		Kind:      n.Kind.String(),
		WholeApp:  n.WholeApp,
		Timestamp: time.Now().Unix(),
	}
	if n.Entry != nil {
		s := snapshot(n.Entry, false)
		ev.Entry = &s
	}
	return ev
}
