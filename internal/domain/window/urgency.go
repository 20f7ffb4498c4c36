package window

// Urgent reports whether the entry, or any leaf under it, is urgent. The
// urgency hint of a window applies to every one of its views.
func (e *Entry) Urgent() bool {
	if e.Leaf() {
		w := e.Window()
		return w != nil && w.urgent
	}
	for _, leaf := range e.Children() {
		if leaf.Urgent() {
			return true
		}
	}
	return false
}

// IgnoreUrgent reports whether urgency of this leaf has been consumed.
func (e *Entry) IgnoreUrgent() bool { return e.ignoreUrgent }

// Blinking reports whether the entry's slot should blink: at least one
// urgent leaf under it has not been consumed.
func (e *Entry) Blinking() bool {
	if e.Leaf() {
		return e.Urgent() && !e.ignoreUrgent
	}
	for _, child := range e.Children() {
		if child.Blinking() {
			return true
		}
	}
	return false
}

// Blinking reports whether anything in the app list blinks.
func (r *Registry) Blinking() bool {
	return r.desktop.Blinking()
}

// SetUrgent records a window's urgency hint. Clearing it re-arms blinking
// on every leaf of the window. It reports whether the flag changed.
func (r *Registry) SetUrgent(w *Window, urgent bool) bool {
	if w.urgent == urgent || w.app == nil {
		return false
	}
	w.urgent = urgent

	leaves := r.leaves(w)
	if !urgent {
		for _, e := range leaves {
			e.ignoreUrgent = false
		}
	}
	r.notifyEntries(Changed, leaves)
	return true
}

// ConsumeUrgency marks every currently urgent leaf under e as seen so it
// stops blinking. It returns the number of leaves affected.
func (r *Registry) ConsumeUrgency(e *Entry) int {
	var leaves []*Entry
	switch {
	case e.Leaf():
		leaves = []*Entry{e}
	case e.kind == EntryApp:
		leaves = e.Children()
	case e.kind == EntryDesktop:
		for _, app := range e.Children() {
			leaves = append(leaves, app.Children()...)
		}
	}

	n := 0
	for _, leaf := range leaves {
		if leaf.Urgent() && !leaf.ignoreUrgent {
			leaf.ignoreUrgent = true
			n++
		}
	}
	if n > 0 {
		r.Notify(Notification{Kind: Changed, Entry: e})
	}
	return n
}
