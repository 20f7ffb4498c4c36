package x11

import (
	"errors"
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// Conn is the X11 PropertySource and WindowManager.
type Conn struct {
	xu  *xgbutil.XUtil
	log *zap.Logger

	events chan platform.Event
	done   chan struct{}
	once   sync.Once

	mu       sync.Mutex
	watching map[xproto.Window]bool
}

// Open connects to display (empty means $DISPLAY), selects root-window
// events and starts the event pump.
func Open(display string, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	xu, err := xgbutil.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to display %q: %w", display, err)
	}

	c := &Conn{
		xu:       xu,
		log:      log.Named("x11"),
		events:   make(chan platform.Event, 256),
		done:     make(chan struct{}),
		watching: make(map[xproto.Window]bool),
	}

	root := xu.RootWin()
	if err := xwindow.New(xu, root).Listen(xproto.EventMaskPropertyChange, xproto.EventMaskSubstructureNotify); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("failed to select root events: %w", err)
	}
	xevent.PropertyNotifyFun(c.onRootProperty).Connect(xu, root)
	xevent.ClientMessageFun(c.onClientMessage).Connect(xu, root)

	go func() {
		xevent.Main(xu)
		c.log.Debug("event pump stopped")
	}()
	return c, nil
}

func (c *Conn) onRootProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	c.dispatch(true, ev.Window, ev.Atom)
}

func (c *Conn) onWindowProperty(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
	c.dispatch(false, ev.Window, ev.Atom)
}

func (c *Conn) dispatch(root bool, win xproto.Window, atom xproto.Atom) {
	name, err := xprop.AtomName(c.xu, atom)
	if err != nil {
		return
	}
	if ev, ok := eventFor(root, platform.WindowID(win), name); ok {
		c.emit(ev)
	}
}

func (c *Conn) onClientMessage(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
	name, err := xprop.AtomName(xu, ev.Type)
	if err != nil || name != platform.MessageActivate {
		return
	}
	// Our own activation requests come back here as pager requests.
	if len(ev.Data.Data32) == 0 || ev.Data.Data32[0] != sourceApplication {
		return
	}
	c.emit(platform.Event{Type: platform.EventClientMessage, Window: platform.WindowID(ev.Window), Message: name})
}

func (c *Conn) emit(ev platform.Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// watch selects property events on newly listed clients and forgets
// windows that left the list.
func (c *Conn) watch(ids []xproto.Window) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[xproto.Window]bool, len(ids))
	for _, w := range ids {
		seen[w] = true
		if c.watching[w] {
			continue
		}
		if err := xwindow.New(c.xu, w).Listen(xproto.EventMaskPropertyChange); err != nil {
			c.log.Debug("failed to select window events", logging.Window(w), zap.Error(err))
			continue
		}
		xevent.PropertyNotifyFun(c.onWindowProperty).Connect(c.xu, w)
		c.watching[w] = true
	}
	for w := range c.watching {
		if !seen[w] {
			xevent.Detach(c.xu, w)
			delete(c.watching, w)
		}
	}
}

// Events implements platform.PropertySource.
func (c *Conn) Events() <-chan platform.Event {
	return c.events
}

// ClientList implements platform.PropertySource.
func (c *Conn) ClientList() ([]platform.WindowID, error) {
	wins, err := ewmh.ClientListGet(c.xu)
	if err != nil {
		return nil, err
	}
	c.watch(wins)
	ids := make([]platform.WindowID, len(wins))
	for i, w := range wins {
		ids[i] = platform.WindowID(w)
	}
	return ids, nil
}

// ActiveWindow implements platform.PropertySource.
func (c *Conn) ActiveWindow() (platform.WindowID, error) {
	w, err := ewmh.ActiveWindowGet(c.xu)
	if err != nil {
		return platform.InvalidWindow, err
	}
	return platform.WindowID(w), nil
}

// DesktopShown implements platform.PropertySource.
func (c *Conn) DesktopShown() (bool, error) {
	return ewmh.ShowingDesktopGet(c.xu)
}

// Fullscreen implements platform.PropertySource.
func (c *Conn) Fullscreen(id platform.WindowID) (bool, error) {
	states, err := ewmh.WmStateGet(c.xu, xproto.Window(id))
	if err != nil {
		return false, err
	}
	return hasState(states, stateFullscreen), nil
}

// Class implements platform.PropertySource.
func (c *Conn) Class(id platform.WindowID) (string, error) {
	wc, err := icccm.WmClassGet(c.xu, xproto.Window(id))
	if err != nil {
		return "", err
	}
	return wc.Class, nil
}

// Role implements platform.PropertySource.
func (c *Conn) Role(id platform.WindowID) (string, error) {
	return xprop.PropValStr(xprop.GetProperty(c.xu, xproto.Window(id), atomRole))
}

// Kind implements platform.PropertySource.
func (c *Conn) Kind(id platform.WindowID) (platform.Kind, error) {
	types, err := ewmh.WmWindowTypeGet(c.xu, xproto.Window(id))
	if err != nil {
		return platform.KindUnknown, err
	}
	return kindOf(types), nil
}

// Name implements platform.PropertySource. The EWMH name wins over the
// ICCCM one.
func (c *Conn) Name(id platform.WindowID) (string, string, error) {
	win := xproto.Window(id)
	name, err := ewmh.WmNameGet(c.xu, win)
	if err != nil || name == "" {
		if name, err = icccm.WmNameGet(c.xu, win); err != nil {
			return "", "", err
		}
	}
	sub, _ := xprop.PropValStr(xprop.GetProperty(c.xu, win, atomSubtitle))
	return name, sub, nil
}

// ViewList implements platform.PropertySource.
func (c *Conn) ViewList(id platform.WindowID) ([]uint32, error) {
	nums, err := xprop.PropValNums(xprop.GetProperty(c.xu, xproto.Window(id), atomViewList))
	if err != nil {
		return nil, err
	}
	views := make([]uint32, len(nums))
	for i, n := range nums {
		views[i] = uint32(n)
	}
	return views, nil
}

// ActiveView implements platform.PropertySource.
func (c *Conn) ActiveView(id platform.WindowID) (uint32, error) {
	n, err := xprop.PropValNum(xprop.GetProperty(c.xu, xproto.Window(id), atomActiveView))
	return uint32(n), err
}

// Killable implements platform.PropertySource.
func (c *Conn) Killable(id platform.WindowID) (bool, error) {
	return c.flag(id, atomKillable)
}

// NoInitialFocus implements platform.PropertySource.
func (c *Conn) NoInitialFocus(id platform.WindowID) (bool, error) {
	return c.flag(id, atomNoInitialFocus)
}

func (c *Conn) flag(id platform.WindowID, atom string) (bool, error) {
	n, err := xprop.PropValNum(xprop.GetProperty(c.xu, xproto.Window(id), atom))
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// Urgent implements platform.PropertySource.
func (c *Conn) Urgent(id platform.WindowID) (bool, error) {
	hints, err := icccm.WmHintsGet(c.xu, xproto.Window(id))
	if err != nil {
		return false, err
	}
	return hints.Flags&icccm.HintUrgency != 0, nil
}

// Icon implements platform.PropertySource.
func (c *Conn) Icon(id platform.WindowID) (*platform.Icon, error) {
	icons, err := ewmh.WmIconGet(c.xu, xproto.Window(id))
	if err != nil {
		return nil, err
	}
	icon := largestIcon(icons)
	if icon == nil {
		return nil, errors.New("no usable icon")
	}
	return icon, nil
}

// PID implements platform.PropertySource.
func (c *Conn) PID(id platform.WindowID) (int, error) {
	pid, err := ewmh.WmPidGet(c.xu, xproto.Window(id))
	if err != nil {
		return 0, err
	}
	return int(pid), nil
}

// Activate implements platform.WindowManager. The view switch is sent to the
// application before the window is raised.
func (c *Conn) Activate(id platform.WindowID, view uint32) error {
	win := xproto.Window(id)
	if view != 0 {
		if err := c.sendToWindow(win, atomActiveView, int(view)); err != nil {
			return fmt.Errorf("failed to select view %d: %w", view, err)
		}
	}
	return ewmh.ActiveWindowReq(c.xu, win)
}

func (c *Conn) sendToWindow(win xproto.Window, message string, data ...interface{}) error {
	atom, err := xprop.Atm(c.xu, message)
	if err != nil {
		return err
	}
	cm, err := xevent.NewClientMessage(32, win, atom, data...)
	if err != nil {
		return err
	}
	return xproto.SendEventChecked(c.xu.Conn(), false, win, xproto.EventMaskNoEvent, string(cm.Bytes())).Check()
}

// Close implements platform.WindowManager.
func (c *Conn) Close(id platform.WindowID) error {
	return ewmh.CloseWindow(c.xu, xproto.Window(id))
}

// ShowDesktop implements platform.WindowManager.
func (c *Conn) ShowDesktop(show bool) error {
	return ewmh.ShowingDesktopReq(c.xu, show)
}

// Shutdown stops the event pump and closes the display connection.
func (c *Conn) Shutdown() {
	c.once.Do(func() {
		close(c.done)
		xevent.Quit(c.xu)
		c.xu.Conn().Close()
	})
}
