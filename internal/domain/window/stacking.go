package window

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// SetActiveWindow records a change of the window manager's active window.
// A window with views fans stack-changed out to each view entry; one without
// notifies once for its window-level entry. Untracked ids (the desktop,
// ignored windows) only clear the active window.
func (r *Registry) SetActiveWindow(wid platform.WindowID) *Window {
	w, ok := r.live[wid]
	if !ok {
		r.active = nil
		return nil
	}
	r.setActive(w)

	for _, e := range r.leaves(w) {
		r.notifyStack(e)
	}
	return w
}

// notifyStack emits stack-changed for e unless it is orphaned.
func (r *Registry) notifyStack(e *Entry) {
	if e == nil {
		return
	}
	if e.kind != EntryDesktop && e.Parent() == nil {
		r.log.Warn("stack change for orphaned entry", zap.String("entry", e.id.String()), zap.Stringer("kind", e.kind))
		return
	}
	r.Notify(Notification{Kind: StackChanged, Entry: e})
}

// NotifyStack emits stack-changed for an entry, ignoring orphans.
func (r *Registry) NotifyStack(e *Entry) {
	r.notifyStack(e)
}
