package window

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/shared/id"
)

var (
	// ErrNotTracked is returned for windows or entries the registry does
	// not hold.
	ErrNotTracked = errors.New("window not tracked")
	// ErrInvalidMove is returned by Relocate for moves that would break the
	// live/hibernating invariant.
	ErrInvalidMove = errors.New("invalid relocation")
)

// Table names one of the two window tables.
type Table int

const (
	Live Table = iota
	Hibernating
)

// String returns the string representation of the table
func (t Table) String() string {
	if t == Hibernating {
		return "hibernating"
	}
	return "live"
}

// Registry is the authoritative model of tracked apps and windows. It is
// not safe for concurrent use; every call happens on the event loop.
type Registry struct {
	log     *zap.Logger
	catalog *catalog.Catalog
	src     platform.PropertySource

	apps        map[string]*App
	live        map[platform.WindowID]*Window
	hibernating map[string]*Window
	// order is the app-list traversal order: window creation order.
	order   []*Window
	ignored map[platform.WindowID]struct{}

	active  *Window
	desktop *Entry
	entries map[id.EntryID]*Entry

	desktopShown bool
	fullscreen   bool

	observers []Observer
	hooks     []TransitionHook
}

// NewRegistry creates an empty registry.
func NewRegistry(cat *catalog.Catalog, src platform.PropertySource, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		log:         log,
		catalog:     cat,
		src:         src,
		apps:        make(map[string]*App),
		live:        make(map[platform.WindowID]*Window),
		hibernating: make(map[string]*Window),
		ignored:     make(map[platform.WindowID]struct{}),
		entries:     make(map[id.EntryID]*Entry),
	}
	r.desktop = r.newEntry(EntryDesktop, id.DesktopPrefix)
	return r
}

// Catalog returns the catalog windows are classified against.
func (r *Registry) Catalog() *catalog.Catalog { return r.catalog }

// Source returns the property source.
func (r *Registry) Source() platform.PropertySource { return r.src }

// Window returns the live window with the given protocol id.
func (r *Registry) Window(wid platform.WindowID) (*Window, bool) {
	w, ok := r.live[wid]
	return w, ok
}

// Hibernated returns the hibernating window with the given key.
func (r *Registry) Hibernated(key string) (*Window, bool) {
	w, ok := r.hibernating[key]
	return w, ok
}

// Windows returns every tracked window in traversal order.
func (r *Registry) Windows() []*Window {
	return append([]*Window(nil), r.order...)
}

// LiveCount returns the number of live windows.
func (r *Registry) LiveCount() int { return len(r.live) }

// HibernatingCount returns the number of hibernating windows.
func (r *Registry) HibernatingCount() int { return len(r.hibernating) }

// Ignored reports whether a protocol id was classified as not trackable.
func (r *Registry) Ignored(wid platform.WindowID) bool {
	_, ok := r.ignored[wid]
	return ok
}

// App returns the app with the given class-name.
func (r *Registry) App(class string) (*App, bool) {
	a, ok := r.apps[class]
	return a, ok
}

// Apps returns every app in traversal order of their first window.
func (r *Registry) Apps() []*App {
	seen := make(map[*App]bool, len(r.apps))
	out := make([]*App, 0, len(r.apps))
	for _, w := range r.order {
		if w.app != nil && !seen[w.app] {
			seen[w.app] = true
			out = append(out, w.app)
		}
	}
	return out
}

// AppsByService returns the apps bound to a launch-service identifier.
func (r *Registry) AppsByService(service string) []*App {
	var out []*App
	for _, a := range r.Apps() {
		if service != "" && a.Service() == service {
			out = append(out, a)
		}
	}
	return out
}

// Active returns the active window, or nil.
func (r *Registry) Active() *Window { return r.active }

// DesktopShown reports the desktop-shown flag.
func (r *Registry) DesktopShown() bool { return r.desktopShown }

// Fullscreen reports whether the active window is fullscreen.
func (r *Registry) Fullscreen() bool { return r.fullscreen }

// Desktop returns the desktop entry.
func (r *Registry) Desktop() *Entry { return r.desktop }

// Entry returns the live entry with the given id.
func (r *Registry) Entry(eid id.EntryID) (*Entry, bool) {
	e, ok := r.entries[eid]
	return e, ok
}

// AppEntry returns the app's entry, creating it on first request.
func (r *Registry) AppEntry(a *App) *Entry {
	if a.entry == nil {
		a.entry = r.newEntry(EntryApp, id.AppPrefix)
		a.entry.app = a
	}
	return a.entry
}

// WindowEntry returns the window-level entry of a window without views,
// creating it on first request. Windows with views have no window-level
// entry and return nil.
func (r *Registry) WindowEntry(w *Window) *Entry {
	if len(w.views) > 0 {
		return nil
	}
	if w.entry == nil {
		w.entry = r.newEntry(EntryWindow, id.WindowPrefix)
		w.entry.window = w
	}
	return w.entry
}

// leaves returns the entries that stand for w in the app list.
func (r *Registry) leaves(w *Window) []*Entry {
	if len(w.views) == 0 {
		return []*Entry{r.WindowEntry(w)}
	}
	out := make([]*Entry, 0, len(w.views))
	for _, v := range w.views {
		out = append(out, v.entry)
	}
	return out
}

// Leaves returns the entries that stand for w in the app list.
func (r *Registry) Leaves(w *Window) []*Entry {
	return r.leaves(w)
}

func (r *Registry) newEntry(kind EntryKind, prefix string) *Entry {
	e := &Entry{id: id.NewEntryID(prefix), kind: kind, reg: r}
	r.entries[e.id] = e
	return e
}

func (r *Registry) dropEntry(e *Entry) {
	if e == nil {
		return
	}
	if got, ok := r.entries[e.id]; ok && got == e {
		delete(r.entries, e.id)
	}
}

// Relocate moves w into the table to. Moving into Live assigns the protocol
// id wid; moving into Hibernating clears the id and files w under its key.
// It is the only code path that changes a window's identity.
func (r *Registry) Relocate(w *Window, to Table, wid platform.WindowID) error {
	switch to {
	case Hibernating:
		if w.hibernating {
			return fmt.Errorf("%w: window already hibernating", ErrInvalidMove)
		}
		if got, ok := r.live[w.id]; !ok || got != w {
			return fmt.Errorf("%w: window %d", ErrNotTracked, w.id)
		}
		if prev, ok := r.hibernating[w.key]; ok && prev != w {
			// Hibernation keys are assumed unique. The map slot is
			// overwritten and the earlier window dropped.
			r.log.Warn("hibernation key collision",
				zap.String("key", w.key),
				logging.Window(w.id),
			)
			r.destroy(prev)
		}
		delete(r.live, w.id)
		w.id = platform.InvalidWindow
		w.hibernating = true
		r.hibernating[w.key] = w

	case Live:
		if !wid.Valid() {
			return fmt.Errorf("%w: invalid window id", ErrInvalidMove)
		}
		if !w.hibernating {
			return fmt.Errorf("%w: window already live", ErrInvalidMove)
		}
		if got, ok := r.hibernating[w.key]; !ok || got != w {
			return fmt.Errorf("%w: key %q", ErrNotTracked, w.key)
		}
		if _, taken := r.live[wid]; taken {
			return fmt.Errorf("%w: window %d already live", ErrInvalidMove, wid)
		}
		delete(r.hibernating, w.key)
		w.hibernating = false
		w.id = wid
		r.live[wid] = w

	default:
		return fmt.Errorf("%w: unknown table %d", ErrInvalidMove, to)
	}
	return nil
}

// Destroy removes a window (live or hibernating) with its views and entries.
func (r *Registry) Destroy(w *Window) error {
	if !r.tracked(w) {
		return ErrNotTracked
	}
	r.destroy(w)
	return nil
}

// DestroyHibernating destroys every hibernating window of an app and
// returns how many were dropped.
func (r *Registry) DestroyHibernating(a *App) int {
	n := 0
	for _, w := range a.Windows() {
		if w.hibernating {
			r.destroy(w)
			n++
		}
	}
	return n
}

func (r *Registry) tracked(w *Window) bool {
	if w == nil || w.app == nil {
		return false
	}
	if w.hibernating {
		got, ok := r.hibernating[w.key]
		return ok && got == w
	}
	got, ok := r.live[w.id]
	return ok && got == w
}

// destroy releases w. Views and their entries go first; the app is released
// once no window references it.
func (r *Registry) destroy(w *Window) {
	app := w.app
	if app == nil {
		return
	}

	if w.hibernating {
		if got, ok := r.hibernating[w.key]; ok && got == w {
			delete(r.hibernating, w.key)
		}
	} else if got, ok := r.live[w.id]; ok && got == w {
		delete(r.live, w.id)
	}
	for i, cand := range r.order {
		if cand == w {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.active == w {
		r.active = nil
	}
	app.removeWindow(w)

	var leaves []*Entry
	for _, v := range w.views {
		leaves = append(leaves, v.entry)
	}
	if w.entry != nil {
		leaves = append(leaves, w.entry)
	}

	for i, e := range leaves {
		r.dropEntry(e)
		r.Notify(Notification{
			Kind:     Removed,
			Entry:    e,
			WholeApp: i == len(leaves)-1 && len(app.windows) == 0,
		})
	}

	r.transition(Destroyed, w)

	for _, v := range w.views {
		v.parent = nil
	}
	w.views = nil
	w.activeView = nil
	w.entry = nil
	w.app = nil

	if len(app.windows) == 0 {
		r.releaseApp(app)
	}
}

func (r *Registry) releaseApp(a *App) {
	if got, ok := r.apps[a.Class()]; ok && got == a {
		delete(r.apps, a.Class())
	}
	r.dropEntry(a.entry)
	a.entry = nil
	a.active = nil
	a.launching = false
}

// appFor returns the app for a cataloged descriptor, creating it on demand.
func (r *Registry) appFor(desc catalog.Descriptor) *App {
	if a, ok := r.apps[desc.Class]; ok {
		if a.dummy {
			a.update(desc)
		}
		return a
	}
	a := newApp(desc, false)
	r.apps[desc.Class] = a
	return a
}

// dummyApp returns the per-class app standing in for an uncataloged window.
func (r *Registry) dummyApp(class string) *App {
	if a, ok := r.apps[class]; ok {
		return a
	}
	a := newApp(catalog.Descriptor{Class: class}, true)
	r.apps[class] = a
	return a
}

// anonymousApp returns a dummy app for a window without a class-name. It is
// keyed by the window id, so each such window gets its own slot, titled
// with the window's name.
func (r *Registry) anonymousApp(wid platform.WindowID) *App {
	class := fmt.Sprintf("window:0x%x", uint32(wid))
	if a, ok := r.apps[class]; ok {
		return a
	}
	name, _, _ := r.src.Name(wid)
	a := newApp(catalog.Descriptor{Class: class, Name: name}, true)
	r.apps[class] = a
	return a
}

// ApplyCatalog updates apps in place after a catalog reload. Apps whose
// descriptor disappeared keep their last descriptor until their windows go.
func (r *Registry) ApplyCatalog(diff catalog.Diff) {
	updated := append(append([]catalog.Descriptor(nil), diff.Added...), diff.Changed...)
	for _, desc := range updated {
		a, ok := r.apps[desc.Class]
		if !ok || !a.update(desc) {
			continue
		}
		r.log.Debug("app descriptor updated", zap.String("class", desc.Class))
		r.notifyApp(a)
	}
}

// notifyApp emits Changed for the app entry and every leaf of the app.
func (r *Registry) notifyApp(a *App) {
	r.Notify(Notification{Kind: Changed, Entry: r.AppEntry(a)})
	for _, w := range a.windows {
		r.notifyEntries(Changed, r.leaves(w))
	}
}

// SetDesktopShown records the desktop-shown flag. Showing the desktop brings
// the desktop entry to the top.
func (r *Registry) SetDesktopShown(shown bool) bool {
	if r.desktopShown == shown {
		return false
	}
	r.desktopShown = shown
	r.Notify(Notification{Kind: Changed})
	if shown {
		r.Notify(Notification{Kind: StackChanged, Entry: r.desktop})
	}
	return true
}

// SetFullscreen records whether the active window is fullscreen.
func (r *Registry) SetFullscreen(fullscreen bool) bool {
	if r.fullscreen == fullscreen {
		return false
	}
	r.fullscreen = fullscreen
	r.Notify(Notification{Kind: Changed})
	return true
}
