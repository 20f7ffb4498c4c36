package x11

import (
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform"
)

// Private window properties set by applications.
const (
	atomViewList       = "_HILDON_VIEW_LIST"
	atomActiveView     = "_HILDON_VIEW_ACTIVE"
	atomKillable       = "_HILDON_APP_KILLABLE"
	atomNoInitialFocus = "_HILDON_NO_INITIAL_FOCUS"
	atomSubtitle       = "_HILDON_WM_NAME_SUBTITLE"
	atomRole           = "WM_WINDOW_ROLE"
)

const stateFullscreen = "_NET_WM_STATE_FULLSCREEN"

// sourceApplication marks a _NET_ACTIVE_WINDOW request sent by an
// application rather than a pager.
const sourceApplication = 1

var windowProperties = map[string]platform.Property{
	"_NET_WM_NAME":        platform.PropName,
	"WM_NAME":             platform.PropName,
	atomSubtitle:          platform.PropName,
	atomViewList:          platform.PropViewList,
	atomActiveView:        platform.PropActiveView,
	atomKillable:          platform.PropKillable,
	"_NET_WM_ICON":        platform.PropIcon,
	atomNoInitialFocus:    platform.PropNoInitialFocus,
	"WM_HINTS":            platform.PropUrgency,
	atomRole:              platform.PropRole,
	"_NET_WM_WINDOW_TYPE": platform.PropKind,
	"_NET_WM_PID":         platform.PropPID,
}

var rootProperties = map[string]platform.RootProperty{
	"_NET_CLIENT_LIST":     platform.RootClientList,
	"_NET_ACTIVE_WINDOW":   platform.RootActiveWindow,
	"_NET_SHOWING_DESKTOP": platform.RootDesktopShown,
}

var windowKinds = map[string]platform.Kind{
	"_NET_WM_WINDOW_TYPE_NORMAL":        platform.KindNormal,
	"_NET_WM_WINDOW_TYPE_DIALOG":        platform.KindDialog,
	"_NET_WM_WINDOW_TYPE_DESKTOP":       platform.KindDesktop,
	"_NET_WM_WINDOW_TYPE_DOCK":          platform.KindDock,
	"_NET_WM_WINDOW_TYPE_MENU":          platform.KindMenu,
	"_NET_WM_WINDOW_TYPE_DROPDOWN_MENU": platform.KindMenu,
	"_NET_WM_WINDOW_TYPE_POPUP_MENU":    platform.KindMenu,
	"_NET_WM_WINDOW_TYPE_SPLASH":        platform.KindSplash,
	"_NET_WM_WINDOW_TYPE_UTILITY":       platform.KindUtility,
	"_NET_WM_WINDOW_TYPE_NOTIFICATION":  platform.KindNotification,
}

// eventFor maps a property change on win to a tracker event. _NET_WM_STATE
// changes are reported as a fullscreen root change.
func eventFor(root bool, win platform.WindowID, atom string) (platform.Event, bool) {
	if root {
		rp, ok := rootProperties[atom]
		if !ok {
			return platform.Event{}, false
		}
		return platform.Event{Type: platform.EventRoot, Root: rp}, true
	}
	if atom == "_NET_WM_STATE" {
		return platform.Event{Type: platform.EventRoot, Root: platform.RootFullscreen, Window: win}, true
	}
	p, ok := windowProperties[atom]
	if !ok {
		return platform.Event{}, false
	}
	return platform.Event{Type: platform.EventProperty, Window: win, Property: p}, true
}

// kindOf returns the first window type the tracker knows. EWMH lists types
// in order of preference.
func kindOf(types []string) platform.Kind {
	for _, t := range types {
		if k, ok := windowKinds[t]; ok {
			return k
		}
	}
	return platform.KindUnknown
}

// largestIcon picks the biggest bitmap of a _NET_WM_ICON list.
func largestIcon(icons []ewmh.WmIcon) *platform.Icon {
	var best *ewmh.WmIcon
	for i := range icons {
		ic := &icons[i]
		if uint(len(ic.Data)) < ic.Width*ic.Height {
			continue
		}
		if best == nil || ic.Width*ic.Height > best.Width*best.Height {
			best = ic
		}
	}
	if best == nil {
		return nil
	}
	data := make([]uint32, best.Width*best.Height)
	for i := range data {
		data[i] = uint32(best.Data[i])
	}
	return &platform.Icon{Width: int(best.Width), Height: int(best.Height), Data: data}
}

func hasState(states []string, want string) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}
