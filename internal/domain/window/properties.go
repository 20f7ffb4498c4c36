package window

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// HandleProperty applies a property change of a live window. It reports
// whether the window is tracked.
func (r *Registry) HandleProperty(wid platform.WindowID, prop platform.Property) bool {
	w, ok := r.live[wid]
	if !ok {
		return false
	}

	switch prop {
	case platform.PropName:
		name, subname, err := r.src.Name(wid)
		if err != nil || (name == w.name && subname == w.subname) {
			return true
		}
		w.name, w.subname = name, subname
		// The title of a multi-view window is the title of its active view.
		if w.activeView != nil {
			w.activeView.name = name
		}
		r.notifyEntries(Changed, r.leaves(w))

	case platform.PropViewList:
		r.SyncViews(w)

	case platform.PropActiveView:
		r.SetActiveView(w)

	case platform.PropKillable:
		killable, _ := r.src.Killable(wid)
		if w.app.dummy || w.app.killable == killable {
			return true
		}
		w.app.killable = killable
		r.log.Debug("app hibernation capability changed",
			zap.String("class", w.app.Class()),
			zap.Bool("killable", killable),
		)
		r.notifyApp(w.app)

	case platform.PropIcon:
		w.icon, _ = r.src.Icon(wid)
		r.notifyEntries(Changed, r.leaves(w))

	case platform.PropNoInitialFocus:
		w.noInitialFocus, _ = r.src.NoInitialFocus(wid)

	case platform.PropUrgency:
		urgent, _ := r.src.Urgent(wid)
		r.SetUrgent(w, urgent)

	case platform.PropRole:
		role, _ := r.src.Role(wid)
		w.role = role
		w.key = HibernationKey(w.app.Class(), role)
	}
	return true
}
