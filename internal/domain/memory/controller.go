package memory

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
)

// ErrUnknownKillMode is returned for kill modes other than lru, all and
// app:<service>.
var ErrUnknownKillMode = errors.New("unknown kill mode")

// ModeKind selects the victims of a kill request.
type ModeKind int

const (
	// ModeLRU terminates the oldest hibernation-capable live window.
	ModeLRU ModeKind = iota
	// ModeAll terminates every hibernation-capable live window.
	ModeAll
	// ModeApp terminates the windows bound to one launch service.
	ModeApp
)

const appPrefix = "app:"

// Mode is a parsed kill request.
type Mode struct {
	Kind    ModeKind
	Service string
}

// String returns the wire form of the mode.
func (m Mode) String() string {
	switch m.Kind {
	case ModeLRU:
		return "lru"
	case ModeAll:
		return "all"
	case ModeApp:
		return appPrefix + m.Service
	default:
		return "unknown"
	}
}

// ParseMode parses "lru", "all" or "app:<service>".
func ParseMode(s string) (Mode, error) {
	switch {
	case s == "lru":
		return Mode{Kind: ModeLRU}, nil
	case s == "all":
		return Mode{Kind: ModeAll}, nil
	case strings.HasPrefix(s, appPrefix) && len(s) > len(appPrefix):
		return Mode{Kind: ModeApp, Service: s[len(appPrefix):]}, nil
	}
	return Mode{}, fmt.Errorf("%w: %q", ErrUnknownKillMode, s)
}

// Terminator ends the process behind a live window.
type Terminator interface {
	Terminate(w *window.Window) error
	// PendingKill reports whether w was already signalled and is waiting
	// for its process to exit.
	PendingKill(w *window.Window) bool
}

// Recorder receives kill metrics.
type Recorder interface {
	RecordKill(mode string, victims int)
}

// Options configures a Controller.
type Options struct {
	// AutoBackgroundKill terminates background windows when the
	// background-kill situation starts.
	AutoBackgroundKill bool
	Logger             *zap.Logger
	Metrics            Recorder
}

// Controller tracks the low-memory and background-kill situations and
// selects victims for kill requests.
type Controller struct {
	reg  *window.Registry
	term Terminator
	opts Options
	log  *zap.Logger

	lowMemory      bool
	backgroundKill bool
}

// New creates a memory-pressure controller.
func New(reg *window.Registry, term Terminator, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		reg:  reg,
		term: term,
		opts: opts,
		log:  opts.Logger.Named("memory"),
	}
}

// LowMemory reports the low-memory flag.
func (c *Controller) LowMemory() bool { return c.lowMemory }

// BackgroundKill reports the background-kill flag.
func (c *Controller) BackgroundKill() bool { return c.backgroundKill }

// SetLowMemory records the low-memory situation. It reports whether the
// flag changed.
func (c *Controller) SetLowMemory(on bool) bool {
	if c.lowMemory == on {
		return false
	}
	c.lowMemory = on
	c.log.Info("low memory situation changed", zap.Bool("on", on))
	c.reg.Notify(window.Notification{Kind: window.Changed})
	return true
}

// SetBackgroundKill records the background-kill situation. When it starts
// and automatic background kill is enabled, every hibernation-capable live
// window except the active one is terminated.
func (c *Controller) SetBackgroundKill(on bool) bool {
	if c.backgroundKill == on {
		return false
	}
	c.backgroundKill = on
	c.log.Info("background kill situation changed", zap.Bool("on", on))
	c.reg.Notify(window.Notification{Kind: window.Changed})

	if on && c.opts.AutoBackgroundKill {
		var victims []*window.Window
		for _, w := range c.candidates() {
			if w != c.reg.Active() {
				victims = append(victims, w)
			}
		}
		n, err := c.terminate(victims)
		c.record("bgkill", n)
		if err != nil {
			c.log.Warn("background kill incomplete", zap.Error(err))
		}
	}
	return true
}

// Kill terminates the windows selected by mode and returns how many were
// signalled.
func (c *Controller) Kill(mode string) (int, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return 0, err
	}

	var victims []*window.Window
	switch m.Kind {
	case ModeLRU:
		if cands := c.candidates(); len(cands) > 0 {
			victims = cands[:1]
		}
	case ModeAll:
		victims = c.candidates()
	case ModeApp:
		apps := c.reg.AppsByService(m.Service)
		if len(apps) == 0 {
			return 0, fmt.Errorf("%w: service %s", window.ErrNotTracked, m.Service)
		}
		for _, w := range c.candidates() {
			if w.App().Service() == m.Service {
				victims = append(victims, w)
			}
		}
	}

	c.log.Info("kill requested", zap.Stringer("mode", m), zap.Int("victims", len(victims)))
	n, err := c.terminate(victims)
	c.record(m.Kind.label(), n)
	return n, err
}

func (k ModeKind) label() string {
	switch k {
	case ModeLRU:
		return "lru"
	case ModeAll:
		return "all"
	default:
		return "app"
	}
}

// candidates returns the hibernation-capable live windows in traversal
// order, oldest first. Windows already being killed are skipped.
func (c *Controller) candidates() []*window.Window {
	var out []*window.Window
	for _, w := range c.reg.Windows() {
		if w.Hibernating() || w.App() == nil || !w.App().CanHibernate() {
			continue
		}
		if c.term.PendingKill(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (c *Controller) terminate(victims []*window.Window) (int, error) {
	var (
		n    int
		errs []error
	)
	for _, w := range victims {
		if err := c.term.Terminate(w); err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

func (c *Controller) record(mode string, victims int) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.RecordKill(mode, victims)
	}
}
