package window

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/shared/id"
)

// ViewDiff reports what a view-list sync changed.
type ViewDiff struct {
	Added   []*View
	Removed []*View
}

// Empty reports whether the sync was a no-op.
func (d ViewDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// createViews populates the views of a freshly created window without
// announcing them; the caller announces the window's leaves.
func (r *Registry) createViews(w *Window) {
	ids, _ := r.src.ViewList(w.id)
	for _, vid := range dedupe(ids) {
		w.views = append(w.views, r.newView(w, vid))
	}
	r.readActiveView(w)
}

// SyncViews diffs the window's view-list property against its tracked views.
// Unchanged views keep their identity and entry. Views of a hibernating
// window are frozen until it is resurrected or destroyed.
func (r *Registry) SyncViews(w *Window) ViewDiff {
	var diff ViewDiff
	if w.hibernating || w.app == nil {
		return diff
	}

	ids, err := r.src.ViewList(w.id)
	if err != nil {
		r.log.Debug("view list unavailable", logging.Window(w.id), zap.Error(err))
	}
	ids = dedupe(ids)

	want := make(map[uint32]struct{}, len(ids))
	for _, vid := range ids {
		want[vid] = struct{}{}
	}
	have := make(map[uint32]*View, len(w.views))
	for _, v := range w.views {
		have[v.id] = v
	}

	next := make([]*View, 0, len(ids))
	for _, vid := range ids {
		if v, ok := have[vid]; ok {
			next = append(next, v)
			continue
		}
		v := r.newView(w, vid)
		next = append(next, v)
		diff.Added = append(diff.Added, v)
	}
	for _, v := range w.views {
		if _, ok := want[v.id]; !ok {
			diff.Removed = append(diff.Removed, v)
		}
	}
	if diff.Empty() {
		return diff
	}

	hadViews := len(w.views) > 0
	retired := w.entry
	consumed := r.urgencyConsumed(w)
	w.views = next

	// The app slot is never left without a leaf while notifications are
	// in flight: a replacement leaf is announced before the old one goes.
	if hadViews && len(next) == 0 {
		e := r.WindowEntry(w)
		e.ignoreUrgent = consumed
		r.Notify(Notification{Kind: Added, Entry: e})
	}
	for _, v := range diff.Added {
		v.entry.ignoreUrgent = consumed
		r.Notify(Notification{Kind: Added, Entry: v.entry})
	}
	for _, v := range diff.Removed {
		if w.activeView == v {
			w.activeView = nil
		}
		r.dropEntry(v.entry)
		r.Notify(Notification{Kind: Removed, Entry: v.entry})
		v.parent = nil
	}
	if !hadViews && len(next) > 0 && retired != nil {
		w.entry = nil
		r.dropEntry(retired)
		r.Notify(Notification{Kind: Removed, Entry: retired})
	}

	r.readActiveView(w)
	return diff
}

// urgencyConsumed reports whether the urgency of w was consumed on every
// leaf currently standing for it. New leaves of the window inherit this so
// that view churn does not re-arm a blink the user already saw.
func (r *Registry) urgencyConsumed(w *Window) bool {
	if !w.urgent {
		return false
	}
	if len(w.views) == 0 {
		return w.entry != nil && w.entry.ignoreUrgent
	}
	for _, v := range w.views {
		if !v.entry.ignoreUrgent {
			return false
		}
	}
	return true
}

// SetActiveView reads the active-view property. When the window is the
// active window the newly active view comes to the top.
func (r *Registry) SetActiveView(w *Window) {
	if w.hibernating || w.app == nil {
		return
	}
	prev := w.activeView
	r.readActiveView(w)
	if w.activeView == prev || w.activeView == nil {
		return
	}
	if r.active == w {
		r.notifyStack(w.activeView.entry)
	}
}

func (r *Registry) readActiveView(w *Window) {
	vid, err := r.src.ActiveView(w.id)
	if err != nil {
		return
	}
	if v, ok := w.View(vid); ok {
		w.activeView = v
	}
}

func (r *Registry) newView(w *Window, vid uint32) *View {
	v := &View{id: vid, parent: w}
	v.entry = r.newEntry(EntryView, id.ViewPrefix)
	v.entry.view = v
	return v
}

func dedupe(ids []uint32) []uint32 {
	seen := make(map[uint32]struct{}, len(ids))
	out := ids[:0:0]
	for _, vid := range ids {
		if vid == 0 {
			continue
		}
		if _, ok := seen[vid]; ok {
			continue
		}
		seen[vid] = struct{}{}
		out = append(out, vid)
	}
	return out
}
