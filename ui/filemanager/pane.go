// Package filemanager implements the FileManager layer from spec §4.7:
// the bottom of the UILayerStack, composing two PaneStates, a focus
// marker, a status bar, a log pane view, and the inline quick-edit /
// quick-choice / incremental-search modes checked before main-screen
// key dispatch.
package filemanager

import (
	"context"
	"time"

	"github.com/shimomut/tfm/filelist"
	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/state"
)

// Side identifies which pane.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// PaneState is the per-pane mutable state from spec §3: current Path,
// sorted-filtered entry list, cursor, scroll, selection set, filter,
// and sort config.
type PaneState struct {
	Path     pathvfs.Path
	Entries  []pathvfs.FileEntry
	Cursor   int
	Scroll   int
	Selected map[string]bool
	Config   filelist.Config
}

func NewPaneState(path pathvfs.Path) *PaneState {
	return &PaneState{Path: path, Selected: make(map[string]bool)}
}

// Refresh re-lists Path (spec §4.3: "refreshed on explicit invalidation
// or a file-operation completion event"). The cursor is reset to 0 only
// when it falls past the end of the new list; scroll and selection are
// left unchanged.
func (p *PaneState) Refresh(ctx context.Context) error {
	entries, err := filelist.List(ctx, p.Path, p.Config)
	if err != nil {
		return err
	}
	p.Entries = entries
	if p.Cursor >= len(entries) {
		p.Cursor = 0
	}
	return nil
}

// Focused returns the entry under the cursor, or false if the pane is
// empty.
func (p *PaneState) Focused() (pathvfs.FileEntry, bool) {
	if p.Cursor < 0 || p.Cursor >= len(p.Entries) {
		return pathvfs.FileEntry{}, false
	}
	return p.Entries[p.Cursor], true
}

// ToggleSelection flips name's membership in Selected (space key, spec
// §4.7).
func (p *PaneState) ToggleSelection(name string) {
	if p.Selected[name] {
		delete(p.Selected, name)
	} else {
		p.Selected[name] = true
	}
}

// HasSelection reports whether any name is selected.
func (p *PaneState) HasSelection() bool {
	return len(p.Selected) > 0
}

// SelectedOrFocused implements the "selected or focused" rule from spec
// §4.7: operate on the selection if nonempty, else on the focused entry
// alone.
func (p *PaneState) SelectedOrFocused() []string {
	if len(p.Selected) > 0 {
		names := make([]string, 0, len(p.Selected))
		for name := range p.Selected {
			names = append(names, name)
		}
		return names
	}
	if e, ok := p.Focused(); ok {
		return []string{e.Name}
	}
	return nil
}

// MoveCursor steps the cursor by delta, clamped to the entry range.
func (p *PaneState) MoveCursor(delta int) {
	p.Cursor += delta
	if p.Cursor < 0 {
		p.Cursor = 0
	}
	if max := len(p.Entries) - 1; p.Cursor > max {
		if max < 0 {
			max = 0
		}
		p.Cursor = max
	}
}

// indexOfName returns the index of the entry called name in the pane's
// current Entries, or -1 if there is none.
func (p *PaneState) indexOfName(name string) int {
	for i, e := range p.Entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// EnterDirectory changes Path to child, recording the pre-navigation
// position in hist for directory, then refreshing and restoring cursor
// per spec §4.7 cursor-history rules: "on returning to a previously
// visited directory, attempt to restore the cursor to that name; if
// absent, fall back to index 0."
func (p *PaneState) EnterDirectory(ctx context.Context, side Side, hist *state.Manager, target pathvfs.Path, now time.Time) error {
	prevName := ""
	if e, ok := p.Focused(); ok {
		prevName = e.Name
	}
	if hist != nil {
		hist.RecordCursor(side.String(), now, p.Path.Render(), prevName)
	}

	p.Path = target
	p.Selected = make(map[string]bool)
	if err := p.Refresh(ctx); err != nil {
		return err
	}

	restoreName := ""
	if hist != nil {
		snap := hist.Snapshot()
		for _, h := range snap.Panes[side.String()].History {
			if h.Dir == target.Render() {
				restoreName = h.LastCursorName
			}
		}
	}
	if idx := p.indexOfName(restoreName); idx >= 0 {
		p.Cursor = idx
	} else {
		p.Cursor = 0
	}
	return nil
}
