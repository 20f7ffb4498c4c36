package window

import (
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/shared/id"
)

// EntryKind tags what an Entry stands for.
type EntryKind int

const (
	EntryDesktop EntryKind = iota
	EntryApp
	EntryWindow
	EntryView
)

// String returns the string representation of the kind
func (k EntryKind) String() string {
	switch k {
	case EntryDesktop:
		return "desktop"
	case EntryApp:
		return "app"
	case EntryWindow:
		return "window"
	case EntryView:
		return "view"
	default:
		return "unknown"
	}
}

// Entry is the uniform handle downstream consumers use for the desktop, an
// app, a window without views, or a view.
type Entry struct {
	id   id.EntryID
	kind EntryKind
	reg  *Registry

	app    *App
	window *Window
	view   *View

	ignoreUrgent bool
}

// ID returns the entry's stable identifier.
func (e *Entry) ID() id.EntryID { return e.id }

// Kind returns the entry kind.
func (e *Entry) Kind() EntryKind { return e.kind }

// Leaf reports whether the entry is a window or view entry.
func (e *Entry) Leaf() bool {
	return e.kind == EntryWindow || e.kind == EntryView
}

// App returns the app the entry belongs to, or nil for the desktop and for
// orphaned entries.
func (e *Entry) App() *App {
	switch e.kind {
	case EntryApp:
		return e.app
	case EntryWindow:
		if e.window != nil {
			return e.window.app
		}
	case EntryView:
		if w := e.Window(); w != nil {
			return w.app
		}
	}
	return nil
}

// Window returns the window behind a window or view entry.
func (e *Entry) Window() *Window {
	switch e.kind {
	case EntryWindow:
		return e.window
	case EntryView:
		if e.view != nil {
			return e.view.parent
		}
	}
	return nil
}

// View returns the view behind a view entry.
func (e *Entry) View() *View { return e.view }

// Parent returns the app entry of a leaf. It returns nil for an orphaned leaf
// whose app can no longer be resolved.
func (e *Entry) Parent() *Entry {
	if !e.Leaf() {
		return nil
	}
	app := e.App()
	if app == nil {
		return nil
	}
	return e.reg.AppEntry(app)
}

// Children returns the leaves of an app entry, or every app entry for the
// desktop.
func (e *Entry) Children() []*Entry {
	switch e.kind {
	case EntryApp:
		var out []*Entry
		for _, w := range e.app.windows {
			out = append(out, e.reg.leaves(w)...)
		}
		return out
	case EntryDesktop:
		var out []*Entry
		for _, app := range e.reg.Apps() {
			out = append(out, e.reg.AppEntry(app))
		}
		return out
	}
	return nil
}

// Title returns the app name for app-related entries.
func (e *Entry) Title() string {
	if e.kind == EntryDesktop {
		return "Desktop"
	}
	if app := e.App(); app != nil {
		return app.Name()
	}
	return ""
}

// Subtitle returns the window or view title.
func (e *Entry) Subtitle() string {
	switch e.kind {
	case EntryView:
		return e.view.Name()
	case EntryWindow:
		return e.window.name
	case EntryApp:
		if w := e.app.active; w != nil {
			return w.name
		}
	}
	return ""
}

// IconName returns the app icon name.
func (e *Entry) IconName() string {
	if app := e.App(); app != nil {
		return app.Icon()
	}
	return ""
}

// CustomIcon returns the window's custom bitmap, or nil.
func (e *Entry) CustomIcon() *platform.Icon {
	if w := e.Window(); w != nil {
		return w.icon
	}
	return nil
}

// Hibernating reports whether the entry stands for hibernating state.
func (e *Entry) Hibernating() bool {
	switch e.kind {
	case EntryApp:
		return e.app.Hibernating()
	case EntryWindow, EntryView:
		if w := e.Window(); w != nil {
			return w.hibernating
		}
	}
	return false
}

// Live reports whether the entry still belongs to the registry.
func (e *Entry) Live() bool {
	got, ok := e.reg.entries[e.id]
	return ok && got == e
}
