package window

import "github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/catalog"

// App is a running (or hibernating) application: a catalog descriptor plus
// the windows that currently reference it.
type App struct {
	desc  catalog.Descriptor
	dummy bool

	// killable mirrors the killable marker of the app's windows.
	killable  bool
	launching bool

	windows []*Window
	active  *Window
	entry   *Entry
}

func newApp(desc catalog.Descriptor, dummy bool) *App {
	return &App{desc: desc, dummy: dummy, killable: desc.CanHibernate}
}

// Class returns the class-name identifying the app.
func (a *App) Class() string { return a.desc.Class }

// Name returns the display name. Dummy apps fall back to their class-name.
func (a *App) Name() string {
	if a.desc.Name == "" {
		return a.desc.Class
	}
	return a.desc.Name
}

// Service returns the launch-service identifier.
func (a *App) Service() string { return a.desc.Service }

// Exec returns the executable name.
func (a *App) Exec() string { return a.desc.Exec }

// Icon returns the icon name, preferring the extra-icon override.
func (a *App) Icon() string {
	if a.desc.ExtraIcon != "" {
		return a.desc.ExtraIcon
	}
	return a.desc.Icon
}

// StartupNotify reports whether the app wants a launch banner.
func (a *App) StartupNotify() bool { return a.desc.StartupNotify }

// Descriptor returns the catalog descriptor the app was built from.
func (a *App) Descriptor() catalog.Descriptor { return a.desc }

// Dummy reports whether the app was synthesized for an uncataloged window.
func (a *App) Dummy() bool { return a.dummy }

// CanHibernate reports whether the app may be killed and kept as hibernating.
// Dummy apps have no launch service to resume them and never hibernate.
func (a *App) CanHibernate() bool {
	return !a.dummy && a.killable
}

// Launching reports whether a resume request is pending.
func (a *App) Launching() bool { return a.launching }

// SetLaunching marks or clears a pending resume request.
func (a *App) SetLaunching(v bool) { a.launching = v }

// ActiveWindow returns the app's most recently activated window, or nil.
func (a *App) ActiveWindow() *Window { return a.active }

// Windows returns the app's windows, live and hibernating, in creation order.
func (a *App) Windows() []*Window {
	return append([]*Window(nil), a.windows...)
}

// Hibernating reports whether every window of the app is hibernating.
func (a *App) Hibernating() bool {
	if len(a.windows) == 0 {
		return false
	}
	for _, w := range a.windows {
		if !w.hibernating {
			return false
		}
	}
	return true
}

func (a *App) addWindow(w *Window) {
	a.windows = append(a.windows, w)
}

func (a *App) removeWindow(w *Window) {
	for i, cand := range a.windows {
		if cand == w {
			a.windows = append(a.windows[:i], a.windows[i+1:]...)
			break
		}
	}
	if a.active == w {
		a.active = nil
	}
}

// update swaps in a new descriptor, keeping runtime state.
func (a *App) update(desc catalog.Descriptor) bool {
	if a.desc == desc && !a.dummy {
		return false
	}
	canChanged := a.desc.CanHibernate != desc.CanHibernate
	a.desc = desc
	a.dummy = false
	if canChanged {
		a.killable = desc.CanHibernate
	}
	return true
}
