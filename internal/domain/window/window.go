package window

import "github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"

// Window is a tracked top-level window. While live it is identified by its
// protocol id; while hibernating by its hibernation key. Only Relocate
// changes which of the two applies.
type Window struct {
	id          platform.WindowID
	hibernating bool
	key         string

	app  *App
	role string

	name           string
	subname        string
	urgent         bool
	noInitialFocus bool
	icon           *platform.Icon

	views      []*View
	activeView *View

	// entry is the window-level entry, used only while the window has no views.
	entry *Entry
}

// ID returns the protocol window id, or platform.InvalidWindow while
// hibernating.
func (w *Window) ID() platform.WindowID { return w.id }

// Hibernating reports whether the window lives in the hibernating table.
func (w *Window) Hibernating() bool { return w.hibernating }

// Key returns the hibernation key.
func (w *Window) Key() string { return w.key }

// App returns the owning app, or nil once the window is destroyed.
func (w *Window) App() *App { return w.app }

// Role returns the window-role string.
func (w *Window) Role() string { return w.role }

// Name returns the window title.
func (w *Window) Name() string { return w.name }

// Subname returns the optional secondary title.
func (w *Window) Subname() string { return w.subname }

// Urgent reports the urgency hint.
func (w *Window) Urgent() bool { return w.urgent }

// NoInitialFocus reports the no-initial-focus marker.
func (w *Window) NoInitialFocus() bool { return w.noInitialFocus }

// Icon returns the custom icon, or nil.
func (w *Window) Icon() *platform.Icon { return w.icon }

// Views returns the window's views in property order.
func (w *Window) Views() []*View {
	return append([]*View(nil), w.views...)
}

// ActiveView returns the active view, or nil.
func (w *Window) ActiveView() *View { return w.activeView }

// View returns the view with the given id.
func (w *Window) View(id uint32) (*View, bool) {
	for _, v := range w.views {
		if v.id == id {
			return v, true
		}
	}
	return nil, false
}

// HibernationKey derives the stable identity of a window from its class-name
// and optional role.
func HibernationKey(class, role string) string {
	return class + role
}

// View is a sub-window unit of a multi-view application.
type View struct {
	id     uint32
	name   string
	parent *Window
	entry  *Entry
}

// ID returns the view id, unique within its window.
func (v *View) ID() uint32 { return v.id }

// Window returns the parent window, or nil once the view is destroyed.
func (v *View) Window() *Window { return v.parent }

// Name returns the view's own title, falling back to the window's.
func (v *View) Name() string {
	if v.name != "" || v.parent == nil {
		return v.name
	}
	return v.parent.name
}

// Entry returns the view's entry.
func (v *View) Entry() *Entry { return v.entry }
