package window

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Created     []*Window
	Resurrected []*Window
	Hibernated  []*Window
	Destroyed   []*Window
	Ignored     int
}

// Changed reports whether the pass added or removed anything.
func (res Result) Changed() bool {
	return len(res.Created)+len(res.Resurrected)+len(res.Hibernated)+len(res.Destroyed) > 0
}

// Reconcile brings the registry in line with the ordered list of mapped
// top-level windows. Windows that left the list are hibernated or
// destroyed before new ids are classified, so a hibernation key freed in
// this pass can be reclaimed in the same pass.
func (r *Registry) Reconcile(ids []platform.WindowID) Result {
	var res Result

	present := make(map[platform.WindowID]struct{}, len(ids))
	for _, wid := range ids {
		present[wid] = struct{}{}
	}

	for _, w := range r.Windows() {
		if w.hibernating || w.app == nil {
			continue
		}
		if _, ok := present[w.id]; ok {
			continue
		}
		if r.evict(w) {
			res.Hibernated = append(res.Hibernated, w)
		} else {
			res.Destroyed = append(res.Destroyed, w)
		}
	}

	for wid := range r.ignored {
		if _, ok := present[wid]; !ok {
			delete(r.ignored, wid)
		}
	}

	for _, wid := range ids {
		if !wid.Valid() {
			continue
		}
		if _, ok := r.live[wid]; ok {
			continue
		}
		if _, ok := r.ignored[wid]; ok {
			continue
		}

		w, resurrected := r.adopt(wid)
		switch {
		case w == nil:
			res.Ignored++
		case resurrected:
			res.Resurrected = append(res.Resurrected, w)
		default:
			res.Created = append(res.Created, w)
		}
	}

	return res
}

// evict handles a live window that left the client list. It reports
// whether the window was hibernated rather than destroyed.
func (r *Registry) evict(w *Window) bool {
	if w.app.CanHibernate() {
		wid := w.id
		if err := r.Relocate(w, Hibernating, platform.InvalidWindow); err != nil {
			r.log.Warn("failed to hibernate window", logging.Window(wid), zap.Error(err))
			r.destroy(w)
			return false
		}
		r.log.Info("window hibernated",
			logging.Window(wid),
			zap.String("key", w.key),
		)
		if r.active == w {
			r.active = nil
		}
		r.transition(Hibernated, w)
		r.notifyEntries(Changed, r.leaves(w))
		return true
	}

	r.log.Debug("window destroyed", logging.Window(w.id), zap.String("class", w.app.Class()))
	r.destroy(w)
	return false
}

// accepted reports whether an uncataloged window of this kind is shown as an
// application. A missing type property defaults to normal.
func accepted(kind platform.Kind) bool {
	return kind == platform.KindNormal || kind == platform.KindUnknown
}

// adopt classifies a new protocol id and either reclaims a hibernating
// window or creates a new one. It returns nil for ignored ids.
func (r *Registry) adopt(wid platform.WindowID) (*Window, bool) {
	class, err := r.src.Class(wid)
	if err != nil {
		r.log.Debug("class unavailable", logging.Window(wid), zap.Error(err))
		r.ignored[wid] = struct{}{}
		return nil, false
	}

	var app *App
	if desc, ok := r.catalog.Lookup(class); ok && class != "" {
		app = r.appFor(desc)
	} else {
		kind, _ := r.src.Kind(wid)
		if !accepted(kind) {
			r.ignored[wid] = struct{}{}
			return nil, false
		}
		if class == "" {
			app = r.anonymousApp(wid)
		} else {
			app = r.dummyApp(class)
		}
	}

	role, _ := r.src.Role(wid)
	key := HibernationKey(app.Class(), role)

	if w, ok := r.hibernating[key]; ok && w.app == app {
		if err := r.Relocate(w, Live, wid); err != nil {
			r.log.Warn("failed to resurrect window", zap.String("key", key), zap.Error(err))
			return nil, false
		}
		w.role = role
		r.readAttributes(w)
		app.launching = false
		r.log.Info("window resurrected", logging.Window(wid), zap.String("key", key))

		r.setActive(w)
		r.transition(Resurrected, w)
		r.notifyEntries(Changed, r.leaves(w))
		return w, true
	}

	w := &Window{id: wid, key: key, app: app, role: role}
	r.live[wid] = w
	r.order = append(r.order, w)
	app.addWindow(w)

	r.readAttributes(w)
	if killable, err := r.src.Killable(wid); err == nil && killable {
		app.killable = true
	}
	w.urgent, _ = r.src.Urgent(wid)
	r.createViews(w)

	r.log.Debug("window created",
		logging.Window(wid),
		zap.String("class", app.Class()),
		zap.Bool("dummy", app.dummy),
	)

	r.setActive(w)
	r.transition(Created, w)
	r.notifyEntries(Added, r.leaves(w))
	return w, false
}

// readAttributes refreshes the plain attributes of a live window. View set
// and urgency are not touched so a resurrected window keeps its state.
func (r *Registry) readAttributes(w *Window) {
	w.name, w.subname, _ = r.src.Name(w.id)
	w.noInitialFocus, _ = r.src.NoInitialFocus(w.id)
	w.icon, _ = r.src.Icon(w.id)
}

func (r *Registry) setActive(w *Window) {
	r.active = w
	w.app.active = w
}
