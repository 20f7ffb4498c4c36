package window

// NotificationKind tags an outward notification.
type NotificationKind int

const (
	// Added announces a new entry.
	Added NotificationKind = iota
	// Removed announces that an entry is gone. WholeApp is set on the
	// last leaf of an app.
	Removed
	// Changed announces new attributes of an entry, or global state when
	// Entry is nil.
	Changed
	// StackChanged announces that an entry came to the top.
	StackChanged
	// Refresh is the debounced summary of a burst of additions and removals.
	Refresh
	// MenuRequested asks the UI to open its menu.
	MenuRequested
)

// String returns the string representation of the kind
func (k NotificationKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	case StackChanged:
		return "stack-changed"
	case Refresh:
		return "refresh"
	case MenuRequested:
		return "menu-requested"
	default:
		return "unknown"
	}
}

// Notification is one outward change notification.
type Notification struct {
	Kind     NotificationKind
	Entry    *Entry
	WholeApp bool
}

// Observer receives notifications on the event loop. It must not block.
type Observer func(Notification)

// Transition is a lifecycle step of a window.
type Transition int

const (
	Created Transition = iota
	Hibernated
	Resurrected
	Destroyed
)

// String returns the string representation of the transition
func (t Transition) String() string {
	switch t {
	case Created:
		return "created"
	case Hibernated:
		return "hibernated"
	case Resurrected:
		return "resurrected"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// TransitionHook is called after a window changed lifecycle state.
type TransitionHook func(Transition, *Window)

// Subscribe adds an observer.
func (r *Registry) Subscribe(o Observer) {
	r.observers = append(r.observers, o)
}

// OnTransition adds a lifecycle hook.
func (r *Registry) OnTransition(h TransitionHook) {
	r.hooks = append(r.hooks, h)
}

// Notify delivers n to every observer.
func (r *Registry) Notify(n Notification) {
	for _, o := range r.observers {
		o(n)
	}
}

func (r *Registry) transition(t Transition, w *Window) {
	for _, h := range r.hooks {
		h(t, w)
	}
}

func (r *Registry) notifyEntries(kind NotificationKind, entries []*Entry) {
	for _, e := range entries {
		r.Notify(Notification{Kind: kind, Entry: e})
	}
}
