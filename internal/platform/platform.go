package platform

import "syscall"

// WindowID is a protocol window identifier. Zero is never a valid window.
type WindowID uint32

// InvalidWindow marks a window that has no protocol id (hibernating).
const InvalidWindow WindowID = 0

// Valid reports whether the id refers to a protocol window.
func (id WindowID) Valid() bool {
	return id != InvalidWindow
}

// Kind is the window-manager type of a top-level window.
type Kind int

const (
	KindUnknown Kind = iota
	KindNormal
	KindDialog
	KindDesktop
	KindDock
	KindMenu
	KindSplash
	KindUtility
	KindNotification
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNormal:
		return "normal"
	case KindDialog:
		return "dialog"
	case KindDesktop:
		return "desktop"
	case KindDock:
		return "dock"
	case KindMenu:
		return "menu"
	case KindSplash:
		return "splash"
	case KindUtility:
		return "utility"
	case KindNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// Property names a per-window property the tracker reacts to.
type Property int

const (
	PropUnknown Property = iota
	PropName
	PropViewList
	PropActiveView
	PropKillable
	PropIcon
	PropNoInitialFocus
	PropUrgency
	PropRole
	PropKind
	PropPID
)

// RootProperty names a root-window property.
type RootProperty int

const (
	RootUnknown RootProperty = iota
	RootClientList
	RootActiveWindow
	RootDesktopShown
	RootFullscreen
)

// EventType distinguishes the three event families a PropertySource delivers.
type EventType int

const (
	EventProperty EventType = iota
	EventClientMessage
	EventRoot
)

// MessageActivate is the client message an application sends to ask for
// its window to be raised.
const MessageActivate = "_NET_ACTIVE_WINDOW"

// Event is a single notification from the windowing protocol.
type Event struct {
	Type     EventType
	Window   WindowID
	Property Property
	Root     RootProperty
	Message  string
}

// Icon is a raw ARGB bitmap read from a window.
type Icon struct {
	Width  int
	Height int
	Data   []uint32
}

// PropertySource abstracts the OS windowing protocol. Query errors are
// transient and callers treat them as "value absent".
type PropertySource interface {
	Events() <-chan Event

	ClientList() ([]WindowID, error)
	ActiveWindow() (WindowID, error)
	DesktopShown() (bool, error)
	Fullscreen(id WindowID) (bool, error)

	Class(id WindowID) (string, error)
	Role(id WindowID) (string, error)
	Kind(id WindowID) (Kind, error)
	Name(id WindowID) (name, subname string, err error)
	ViewList(id WindowID) ([]uint32, error)
	ActiveView(id WindowID) (uint32, error)
	Killable(id WindowID) (bool, error)
	NoInitialFocus(id WindowID) (bool, error)
	Urgent(id WindowID) (bool, error)
	Icon(id WindowID) (*Icon, error)
	PID(id WindowID) (int, error)
}

// WindowManager carries requests from the tracker back to the window manager.
type WindowManager interface {
	// Activate raises a window. A non-zero view asks the application to
	// switch to that view as well.
	Activate(id WindowID, view uint32) error
	Close(id WindowID) error
	ShowDesktop(show bool) error
}

// Signaler delivers process signals.
type Signaler interface {
	Signal(pid int, sig syscall.Signal) error
	Alive(pid int) bool
}
