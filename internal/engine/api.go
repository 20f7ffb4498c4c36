package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/shared/id"
)

// The methods below are safe to call from any goroutine. Each one runs on
// the loop and waits for it, bounded by ctx. When ctx ends first the queued
// closure may still run later, so results are only read after Do succeeds.

// Kill terminates the windows selected by mode ("lru", "all" or
// "app:<service>") and returns how many were signalled.
func (e *Engine) Kill(ctx context.Context, mode string) (int, error) {
	var (
		n   int
		err error
	)
	if derr := e.loop.Do(ctx, func() { n, err = e.mem.Kill(mode) }); derr != nil {
		return 0, derr
	}
	return n, err
}

// Entries returns the app entries with their leaves, in app-list order.
func (e *Engine) Entries(ctx context.Context) ([]EntrySnapshot, error) {
	var out []EntrySnapshot
	if err := e.loop.Do(ctx, func() {
		out = snapshot(e.reg.Desktop(), true).Children
	}); err != nil {
		return nil, err
	}
	if out == nil {
		out = []EntrySnapshot{}
	}
	return out, nil
}

// Entry returns one entry with its children.
func (e *Engine) Entry(ctx context.Context, eid string) (EntrySnapshot, error) {
	var (
		out   EntrySnapshot
		opErr error
	)
	err := e.loop.Do(ctx, func() {
		entry, err := e.lookup(eid)
		if err != nil {
			opErr = err
			return
		}
		out = snapshot(entry, true)
	})
	if err != nil {
		return EntrySnapshot{}, err
	}
	return out, opErr
}

// State returns the global flags and counts.
func (e *Engine) State(ctx context.Context) (State, error) {
	var s State
	if err := e.loop.Do(ctx, func() {
		s = State{
			DesktopShown:   e.reg.DesktopShown(),
			Fullscreen:     e.reg.Fullscreen(),
			LowMemory:      e.mem.LowMemory(),
			BackgroundKill: e.mem.BackgroundKill(),
			Blinking:       e.reg.Blinking(),
			Apps:           len(e.reg.Apps()),
			LiveWindows:    e.reg.LiveCount(),
			Hibernating:    e.reg.HibernatingCount(),
		}
	}); err != nil {
		return State{}, err
	}
	return s, nil
}

// Activate brings an entry to the front, waking it if it hibernates.
func (e *Engine) Activate(ctx context.Context, eid string) error {
	return e.withEntry(ctx, eid, e.hib.Activate)
}

// Close closes an entry. Hibernating windows are destroyed at once.
func (e *Engine) Close(ctx context.Context, eid string) error {
	return e.withEntry(ctx, eid, e.hib.Close)
}

// ConsumeUrgency stops an entry's slot from blinking and returns how many
// leaves were affected.
func (e *Engine) ConsumeUrgency(ctx context.Context, eid string) (int, error) {
	var n int
	err := e.withEntry(ctx, eid, func(entry *window.Entry) error {
		n = e.reg.ConsumeUrgency(entry)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (e *Engine) withEntry(ctx context.Context, eid string, fn func(*window.Entry) error) error {
	var opErr error
	if err := e.loop.Do(ctx, func() {
		entry, err := e.lookup(eid)
		if err != nil {
			opErr = err
			return
		}
		opErr = fn(entry)
	}); err != nil {
		return err
	}
	return opErr
}

func (e *Engine) lookup(eid string) (*window.Entry, error) {
	entry, ok := e.reg.Entry(id.EntryID(eid))
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, eid)
	}
	return entry, nil
}

// Reload rescans the descriptor directories and applies the result on the
// loop. The scan itself runs on the caller's goroutine.
func (e *Engine) Reload() error {
	if e.opts.Scanner == nil {
		return nil
	}
	descs, err := e.opts.Scanner.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan catalog: %w", err)
	}
	e.loop.Post(func() {
		diff := e.catalog.Replace(descs)
		if diff.Empty() {
			return
		}
		e.log.Info("catalog reloaded",
			zap.Int("added", len(diff.Added)),
			zap.Int("removed", len(diff.Removed)),
			zap.Int("changed", len(diff.Changed)),
			zap.Int("size", e.catalog.Len()))
		e.reg.ApplyCatalog(diff)
	})
	return nil
}
