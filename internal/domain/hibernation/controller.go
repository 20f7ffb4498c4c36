package hibernation

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

var (
	// ErrNoProcess is returned when a window's owning pid cannot be read.
	ErrNoProcess = errors.New("no owning process")
	// ErrNotLive is returned when terminating a window that is not live.
	ErrNotLive = errors.New("window not live")
	// ErrNoService is returned when waking an app without a launch service.
	ErrNoService = errors.New("app has no launch service")
	// ErrNoTarget is returned for entries that resolve to no window.
	ErrNoTarget = errors.New("entry has no window")
	// ErrNoLauncher is reported when no launch service bus is available.
	ErrNoLauncher = errors.New("no launcher available")
	// ErrKillPending is returned when a window's process was already sent
	// SIGTERM and its kill-confirmation timer is still armed.
	ErrKillPending = errors.New("kill already pending")
)

// Default timeouts.
const (
	DefaultKillTimeout   = 3 * time.Second
	DefaultLaunchTimeout = 20 * time.Second
)

// Launcher asks the launch service to resume a hibernated application.
// done may be called from any goroutine.
type Launcher interface {
	Resume(service string, done func(error))
}

// Recorder receives controller metrics.
type Recorder interface {
	RecordSignal(signal string, ok bool)
	RecordEscalation()
	RecordResume(result string)
}

// Options configures a Controller.
type Options struct {
	WindowManager platform.WindowManager
	Source        platform.PropertySource
	Signaler      platform.Signaler
	Launcher      Launcher
	Scheduler     loop.Scheduler
	// Post runs a closure on the event loop; launcher replies go through it.
	Post          func(func())
	KillTimeout   time.Duration
	LaunchTimeout time.Duration
	Logger        *zap.Logger
	Metrics       Recorder
}

type noLauncher struct{}

func (noLauncher) Resume(service string, done func(error)) {
	done(ErrNoLauncher)
}

type pendingKill struct {
	pid   int
	timer loop.Timer
}

// Controller moves windows through Live, Hibernating and Destroyed: it wakes
// hibernating apps, closes windows and terminates processes with a
// confirmation deadline.
type Controller struct {
	reg  *window.Registry
	opts Options
	log  *zap.Logger

	kills    map[*window.Window]*pendingKill
	launches map[*window.App]loop.Timer
	// pendingView is the view to select once a woken window is back.
	pendingView map[*window.Window]uint32
}

// New creates a controller and hooks it into the registry's lifecycle.
func New(reg *window.Registry, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KillTimeout <= 0 {
		opts.KillTimeout = DefaultKillTimeout
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = DefaultLaunchTimeout
	}
	if opts.Source == nil {
		opts.Source = reg.Source()
	}
	if opts.Post == nil {
		opts.Post = func(fn func()) { fn() }
	}
	if opts.Launcher == nil {
		opts.Launcher = noLauncher{}
	}

	c := &Controller{
		reg:         reg,
		opts:        opts,
		log:         opts.Logger.Named("hibernation"),
		kills:       make(map[*window.Window]*pendingKill),
		launches:    make(map[*window.App]loop.Timer),
		pendingView: make(map[*window.Window]uint32),
	}
	reg.OnTransition(c.onTransition)
	return c
}

// target resolves the window and view an entry stands for.
func target(e *window.Entry) (*window.Window, uint32) {
	switch e.Kind() {
	case window.EntryView:
		if v := e.View(); v != nil {
			return v.Window(), v.ID()
		}
	case window.EntryWindow:
		return e.Window(), 0
	case window.EntryApp:
		app := e.App()
		if app == nil {
			return nil, 0
		}
		if w := app.ActiveWindow(); w != nil {
			return w, 0
		}
		if ws := app.Windows(); len(ws) > 0 {
			return ws[0], 0
		}
	}
	return nil, 0
}

// Activate brings an entry to the front. Live windows are raised through the
// window manager; hibernating ones are woken through the launch service and
// come back through reconciliation. The desktop entry shows the desktop.
func (c *Controller) Activate(e *window.Entry) error {
	if e.Kind() == window.EntryDesktop {
		return c.opts.WindowManager.ShowDesktop(true)
	}

	w, view := target(e)
	if w == nil || w.App() == nil {
		return ErrNoTarget
	}
	if !w.Hibernating() {
		if err := c.opts.WindowManager.Activate(w.ID(), view); err != nil {
			return fmt.Errorf("failed to activate window %d: %w", w.ID(), err)
		}
		return nil
	}

	if view != 0 {
		c.pendingView[w] = view
	}
	return c.wake(w.App())
}

// wake issues a resume request for a hibernating app.
func (c *Controller) wake(app *window.App) error {
	if app.Launching() {
		return nil
	}
	if app.Service() == "" {
		return fmt.Errorf("%w: %s", ErrNoService, app.Class())
	}

	app.SetLaunching(true)
	c.notifyApp(app)
	c.launches[app] = c.opts.Scheduler.AfterFunc(c.opts.LaunchTimeout, func() {
		c.launchTimedOut(app)
	})

	c.log.Info("resuming application", logging.Service(app.Service()))
	service := app.Service()
	c.opts.Launcher.Resume(service, func(err error) {
		if err == nil {
			c.record("requested")
			return
		}
		c.opts.Post(func() { c.wakeFailed(app, err) })
	})
	return nil
}

func (c *Controller) launchTimedOut(app *window.App) {
	delete(c.launches, app)
	if !app.Launching() {
		return
	}
	c.log.Warn("application did not come back", zap.String("class", app.Class()), zap.Duration("timeout", c.opts.LaunchTimeout))
	app.SetLaunching(false)
	c.record("timeout")
	c.notifyApp(app)
}

// wakeFailed drops the hibernating windows of an app that cannot be resumed.
func (c *Controller) wakeFailed(app *window.App, err error) {
	c.log.Warn("failed to resume application",
		zap.String("class", app.Class()),
		logging.Service(app.Service()),
		zap.Error(err),
	)
	c.record("failed")
	c.cancelLaunch(app)
	app.SetLaunching(false)
	c.reg.DestroyHibernating(app)
}

// Close closes an entry. Live windows get a close request; hibernating state
// is dropped immediately. An app entry closes every window of the app.
func (c *Controller) Close(e *window.Entry) error {
	var windows []*window.Window
	switch e.Kind() {
	case window.EntryApp:
		if app := e.App(); app != nil {
			windows = app.Windows()
		}
	case window.EntryWindow, window.EntryView:
		if w := e.Window(); w != nil {
			windows = []*window.Window{w}
		}
	}
	if len(windows) == 0 {
		return ErrNoTarget
	}

	var errs []error
	for _, w := range windows {
		if w.Hibernating() {
			if err := c.reg.Destroy(w); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := c.opts.WindowManager.Close(w.ID()); err != nil {
			errs = append(errs, fmt.Errorf("failed to close window %d: %w", w.ID(), err))
		}
	}
	return errors.Join(errs...)
}

// Terminate sends SIGTERM to the process owning a live window and arms the
// kill-confirmation timer. If the process is still alive when it fires it
// receives SIGKILL, once. Signal failures are logged and not retried. A
// window whose kill is already pending is not signalled again.
func (c *Controller) Terminate(w *window.Window) error {
	if w.Hibernating() || !w.ID().Valid() {
		return ErrNotLive
	}
	if _, pending := c.kills[w]; pending {
		return ErrKillPending
	}

	wid := w.ID()
	pid, err := c.opts.Source.PID(wid)
	if err != nil || pid <= 0 {
		c.log.Warn("no pid for window", logging.Window(wid), zap.Error(err))
		return fmt.Errorf("%w: window %d", ErrNoProcess, wid)
	}

	if err := c.opts.Signaler.Signal(pid, syscall.SIGTERM); err != nil {
		c.recordSignal("SIGTERM", false)
		c.log.Warn("failed to terminate process", logging.PID(pid), zap.Error(err))
		return fmt.Errorf("failed to signal pid %d: %w", pid, err)
	}
	c.recordSignal("SIGTERM", true)
	c.log.Info("process terminated",
		logging.PID(pid),
		logging.Window(wid),
		zap.String("class", w.App().Class()),
	)

	pk := &pendingKill{pid: pid}
	pk.timer = c.opts.Scheduler.AfterFunc(c.opts.KillTimeout, func() {
		c.confirmKill(w, pk)
	})
	c.kills[w] = pk
	return nil
}

func (c *Controller) confirmKill(w *window.Window, pk *pendingKill) {
	if c.kills[w] != pk {
		return
	}
	delete(c.kills, w)

	if !c.opts.Signaler.Alive(pk.pid) {
		return
	}
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordEscalation()
	}
	if err := c.opts.Signaler.Signal(pk.pid, syscall.SIGKILL); err != nil {
		c.recordSignal("SIGKILL", false)
		c.log.Warn("failed to kill process", logging.PID(pk.pid), zap.Error(err))
		return
	}
	c.recordSignal("SIGKILL", true)
	c.log.Info("process killed after timeout", logging.PID(pk.pid), zap.Duration("timeout", c.opts.KillTimeout))
}

// PendingKill reports whether w has an armed kill-confirmation timer.
func (c *Controller) PendingKill(w *window.Window) bool {
	_, ok := c.kills[w]
	return ok
}

// ProcessDied handles the death of a launch service. Kill timers of its
// windows are cancelled; an app that was being woken up is dropped.
func (c *Controller) ProcessDied(service string) {
	for _, app := range c.reg.AppsByService(service) {
		for _, w := range app.Windows() {
			c.cancelKill(w)
		}
		if app.Launching() {
			c.wakeFailed(app, fmt.Errorf("service %s exited", service))
		}
	}
}

func (c *Controller) onTransition(t window.Transition, w *window.Window) {
	switch t {
	case window.Resurrected:
		c.cancelKill(w)
		if app := w.App(); app != nil && c.cancelLaunch(app) {
			c.record("resumed")
		}
		if view, ok := c.pendingView[w]; ok {
			delete(c.pendingView, w)
			if err := c.opts.WindowManager.Activate(w.ID(), view); err != nil {
				c.log.Warn("failed to select view", zap.Uint32("view", view), zap.Error(err))
			}
		}
	case window.Destroyed:
		c.cancelKill(w)
		delete(c.pendingView, w)
		if app := w.App(); app != nil && len(app.Windows()) == 0 {
			c.cancelLaunch(app)
		}
	}
}

func (c *Controller) cancelKill(w *window.Window) {
	if pk, ok := c.kills[w]; ok {
		pk.timer.Stop()
		delete(c.kills, w)
	}
}

func (c *Controller) cancelLaunch(app *window.App) bool {
	t, ok := c.launches[app]
	if ok {
		t.Stop()
		delete(c.launches, app)
	}
	return ok
}

func (c *Controller) notifyApp(app *window.App) {
	if len(app.Windows()) == 0 {
		return
	}
	c.reg.Notify(window.Notification{Kind: window.Changed, Entry: c.reg.AppEntry(app)})
}

func (c *Controller) record(result string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordResume(result)
	}
}

func (c *Controller) recordSignal(signal string, ok bool) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordSignal(signal, ok)
	}
}
