package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/bus"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/hibernation"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/memory"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// ErrUnknownEntry is returned for entry ids the registry does not hold.
var ErrUnknownEntry = errors.New("unknown entry")

// Options wires an Engine to its collaborators. Source and WindowManager are
// required; everything else has a working default.
type Options struct {
	Config        config.SwitcherConfig
	Catalog       *catalog.Catalog
	Scanner       *catalog.Scanner
	Source        platform.PropertySource
	WindowManager platform.WindowManager
	Signaler      platform.Signaler
	Launcher      hibernation.Launcher
	Bus           bus.Source
	// Scheduler overrides the loop's wall-clock timers.
	Scheduler loop.Scheduler
	Logger    *zap.Logger
	Metrics   *monitoring.Metrics
}

// Engine is the context object of the tracker. It owns the event loop and
// every domain component; all of their state is touched only on the loop.
type Engine struct {
	opts Options
	log  *zap.Logger

	loop    *loop.Loop
	catalog *catalog.Catalog
	reg     *window.Registry
	hib     *hibernation.Controller
	mem     *memory.Controller
	refresh *loop.Debouncer
	bus     bus.Source

	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int

	stop     chan struct{}
	stopOnce sync.Once
}

// New builds the registry, controllers and loop.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.New()
	}
	if opts.Bus == nil {
		opts.Bus = bus.NewLocal()
	}
	if opts.Config.RefreshDebounce <= 0 {
		opts.Config.RefreshDebounce = 150 * time.Millisecond
	}

	e := &Engine{
		opts:    opts,
		log:     opts.Logger.Named("engine"),
		loop:    loop.New(),
		catalog: opts.Catalog,
		bus:     opts.Bus,
		subs:    make(map[int]func(Event)),
		stop:    make(chan struct{}),
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = e.loop
	}

	e.reg = window.NewRegistry(opts.Catalog, opts.Source, opts.Logger)

	hibOpts := hibernation.Options{
		WindowManager: opts.WindowManager,
		Source:        opts.Source,
		Signaler:      opts.Signaler,
		Launcher:      opts.Launcher,
		Scheduler:     sched,
		Post:          e.loop.Post,
		KillTimeout:   opts.Config.KillTimeout,
		LaunchTimeout: opts.Config.LaunchTimeout,
		Logger:        opts.Logger,
	}
	memOpts := memory.Options{
		AutoBackgroundKill: opts.Config.BgKillAuto,
		Logger:             opts.Logger,
	}
	if opts.Metrics != nil {
		hibOpts.Metrics = opts.Metrics
		memOpts.Metrics = opts.Metrics
	}
	e.hib = hibernation.New(e.reg, hibOpts)
	e.mem = memory.New(e.reg, e.hib, memOpts)

	e.refresh = loop.NewDebouncer(sched, opts.Config.RefreshDebounce, func() {
		e.reg.Notify(window.Notification{Kind: window.Refresh})
	})

	e.reg.Subscribe(e.observe)
	e.reg.OnTransition(func(t window.Transition, w *window.Window) {
		if e.opts.Metrics != nil {
			e.opts.Metrics.RecordTransition(t.String())
		}
	})
	return e
}

// Registry exposes the window registry. Only touch it on the loop.
func (e *Engine) Registry() *window.Registry { return e.reg }

// Hibernation exposes the hibernation controller. Only touch it on the loop.
func (e *Engine) Hibernation() *hibernation.Controller { return e.hib }

// Memory exposes the memory-pressure controller. Only touch it on the loop.
func (e *Engine) Memory() *memory.Controller { return e.mem }

// Loop exposes the event loop.
func (e *Engine) Loop() *loop.Loop { return e.loop }

// Run reads the initial state and serves events until ctx is done or a
// shutdown signal arrives.
func (e *Engine) Run(ctx context.Context) error {
	e.loop.Post(e.Sync)
	e.log.Info("event loop started")
	defer e.log.Info("event loop stopped")

	events := e.opts.Source.Events()
	signals := e.bus.Signals()
	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil
		case <-e.stop:
			e.shutdown()
			return nil
		case ev := <-events:
			e.HandleEvent(ev)
		case sig := <-signals:
			e.HandleSignal(sig)
		case <-e.loop.Wake():
		}
		e.loop.Drain()
	}
}

// Stop asks Run to return.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
}

func (e *Engine) shutdown() {
	e.refresh.Stop()
}

// Sync reads every root property and reconciles against it.
func (e *Engine) Sync() {
	e.reconcile()
	e.syncActive()
	if shown, err := e.opts.Source.DesktopShown(); err == nil {
		e.reg.SetDesktopShown(shown)
	}
}

// HandleEvent dispatches one property-source event. Call it on the loop.
func (e *Engine) HandleEvent(ev platform.Event) {
	switch ev.Type {
	case platform.EventRoot:
		e.handleRoot(ev)
	case platform.EventProperty:
		e.reg.HandleProperty(ev.Window, ev.Property)
	case platform.EventClientMessage:
		if ev.Message != platform.MessageActivate {
			return
		}
		if _, ok := e.reg.Window(ev.Window); !ok {
			return
		}
		if err := e.opts.WindowManager.Activate(ev.Window, 0); err != nil {
			e.log.Warn("failed to activate window", logging.Window(ev.Window), zap.Error(err))
		}
	}
}

func (e *Engine) handleRoot(ev platform.Event) {
	switch ev.Root {
	case platform.RootClientList:
		e.reconcile()
	case platform.RootActiveWindow:
		e.syncActive()
	case platform.RootDesktopShown:
		shown, err := e.opts.Source.DesktopShown()
		if err != nil {
			e.log.Debug("failed to read desktop state", zap.Error(err))
			return
		}
		e.reg.SetDesktopShown(shown)
	case platform.RootFullscreen:
		active := e.reg.Active()
		if ev.Window.Valid() && (active == nil || active.ID() != ev.Window) {
			return
		}
		e.syncFullscreen()
	}
}

func (e *Engine) reconcile() {
	ids, err := e.opts.Source.ClientList()
	if err != nil {
		e.log.Warn("failed to read client list", zap.Error(err))
		return
	}
	start := time.Now()
	res := e.reg.Reconcile(ids)
	if res.Changed() {
		e.log.Debug("reconciled",
			zap.Int("created", len(res.Created)),
			zap.Int("resurrected", len(res.Resurrected)),
			zap.Int("hibernated", len(res.Hibernated)),
			zap.Int("destroyed", len(res.Destroyed)))
	}
	if m := e.opts.Metrics; m != nil {
		m.RecordReconcile(time.Since(start))
		m.SetWindows(e.reg.LiveCount(), e.reg.HibernatingCount(), len(e.reg.Apps()))
	}
}

func (e *Engine) syncActive() {
	wid, err := e.opts.Source.ActiveWindow()
	if err != nil {
		e.log.Debug("failed to read active window", zap.Error(err))
		return
	}
	e.reg.SetActiveWindow(wid)
	e.syncFullscreen()
}

func (e *Engine) syncFullscreen() {
	active := e.reg.Active()
	if active == nil {
		e.reg.SetFullscreen(false)
		return
	}
	fs, err := e.opts.Source.Fullscreen(active.ID())
	if err != nil {
		fs = false
	}
	e.reg.SetFullscreen(fs)
}

// HandleSignal dispatches one inbound bus signal. Call it on the loop.
func (e *Engine) HandleSignal(sig bus.Signal) {
	e.log.Debug("signal", zap.Stringer("kind", sig.Kind), logging.Service(sig.Service))
	switch sig.Kind {
	case bus.ProcessDied:
		e.hib.ProcessDied(sig.Service)
	case bus.LowMemoryOn:
		e.mem.SetLowMemory(true)
	case bus.LowMemoryOff:
		e.mem.SetLowMemory(false)
	case bus.BackgroundKillOn:
		e.mem.SetBackgroundKill(true)
	case bus.BackgroundKillOff:
		e.mem.SetBackgroundKill(false)
	case bus.HomeShort:
		if err := e.opts.WindowManager.ShowDesktop(!e.reg.DesktopShown()); err != nil {
			e.log.Warn("failed to toggle desktop", zap.Error(err))
		}
	case bus.HomeLong:
		e.reg.Notify(window.Notification{Kind: window.MenuRequested})
	case bus.Shutdown:
		e.log.Info("shutdown requested")
		e.Stop()
	}
}

// observe feeds metrics, the refresh debounce and subscribers.
func (e *Engine) observe(n window.Notification) {
	if m := e.opts.Metrics; m != nil {
		m.RecordNotification(n.Kind.String())
	}
	if n.Kind == window.Added || n.Kind == window.Removed {
		e.refresh.Trigger()
	}

	e.mu.Lock()
	subs := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	if len(subs) == 0 {
		return
	}

	ev := newEvent(n)
	for _, fn := range subs {
		fn(ev)
	}
}

// Subscribe registers fn for every outward notification. fn runs on the
// loop and must not block. The returned func unsubscribes.
func (e *Engine) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.subs[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}
