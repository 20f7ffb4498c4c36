package catalog

import (
	"sort"
	"sync"
)

// Descriptor is the static description of an application eligible for
// tracking.
type Descriptor struct {
	// Class is the window class-name windows of this app carry.
	Class string `yaml:"class" toml:"class"`
	// Name is the display name.
	Name string `yaml:"name" toml:"name"`
	// Service is the launch-service identifier used to resume the app.
	Service string `yaml:"service" toml:"service"`
	// Exec is the executable name.
	Exec string `yaml:"exec" toml:"exec"`
	// Icon is the icon name.
	Icon string `yaml:"icon" toml:"icon"`
	// ExtraIcon overrides Icon in the task switcher when set.
	ExtraIcon string `yaml:"extra_icon,omitempty" toml:"extra_icon,omitempty"`
	// CanHibernate allows the app to be killed and represented as running.
	CanHibernate bool `yaml:"can_hibernate" toml:"can_hibernate"`
	// StartupNotify asks for a launch banner while the app starts.
	StartupNotify bool `yaml:"startup_notify" toml:"startup_notify"`

	// Source is the file the descriptor was read from.
	Source string `yaml:"-" toml:"-"`
}

// Catalog maps window class-names to descriptors. It is replaced wholesale
// on reload; readers always observe a consistent snapshot.
type Catalog struct {
	mu      sync.RWMutex
	byClass map[string]Descriptor
}

// New creates a catalog holding the given descriptors.
func New(descs ...Descriptor) *Catalog {
	c := &Catalog{byClass: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		c.byClass[d.Class] = d
	}
	return c
}

// Lookup returns the descriptor for a class-name.
func (c *Catalog) Lookup(class string) (Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byClass[class]
	return d, ok
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byClass)
}

// All returns every descriptor ordered by class-name.
func (c *Catalog) All() []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Descriptor, 0, len(c.byClass))
	for _, d := range c.byClass {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Class < out[j].Class })
	return out
}

// Diff describes what a Replace changed.
type Diff struct {
	Added   []Descriptor
	Changed []Descriptor
	Removed []string
}

// Empty reports whether nothing changed.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// Replace swaps in a new descriptor set and reports the difference.
func (c *Catalog) Replace(descs []Descriptor) Diff {
	next := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		next[d.Class] = d
	}

	c.mu.Lock()
	prev := c.byClass
	c.byClass = next
	c.mu.Unlock()

	var diff Diff
	for class, d := range next {
		old, ok := prev[class]
		switch {
		case !ok:
			diff.Added = append(diff.Added, d)
		case old != d:
			diff.Changed = append(diff.Changed, d)
		}
	}
	for class := range prev {
		if _, ok := next[class]; !ok {
			diff.Removed = append(diff.Removed, class)
		}
	}

	sort.Slice(diff.Added, func(i, j int) bool { return diff.Added[i].Class < diff.Added[j].Class })
	sort.Slice(diff.Changed, func(i, j int) bool { return diff.Changed[i].Class < diff.Changed[j].Class })
	sort.Strings(diff.Removed)
	return diff
}
