package filemanager

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/keybind"
	"github.com/shimomut/tfm/logmgr"
	"github.com/shimomut/tfm/state"
	"github.com/shimomut/tfm/ui"
)

// Mode selects which inline input mode (if any) is currently
// intercepting input ahead of main-screen key dispatch (spec §4.7).
type Mode int

const (
	ModeNormal Mode = iota
	ModeQuickEdit
	ModeQuickChoice
	ModeIncrementalSearch
)

// QuickEdit is the inline single-line input for filename-valued actions
// (rename, mkdir, ...).
type QuickEdit struct {
	Prompt   string
	Text     string
	OnSubmit func(text string)
	OnCancel func()
}

// QuickChoice is the inline yes/no confirm bar (e.g. overwrite
// confirmation).
type QuickChoice struct {
	Prompt  string
	OnYes   func()
	OnNo    func()
}

// ActionHandler performs a key-bound action not built into FileManager
// itself (file operations, dialogs); it returns true if it handled the
// action.
type ActionHandler func(fm *FileManager, action string) bool

// FileManager is the bottom layer of the UILayerStack (spec §4.7).
type FileManager struct {
	ui.Base

	Panes [2]*PaneState
	Focus Side

	Keys    *keybind.Table
	Log     *logmgr.PaneHandler
	State   *state.Manager
	Handler ActionHandler

	StatusText string

	mode        Mode
	quickEdit   *QuickEdit
	quickChoice *QuickChoice
	searchQuery string
}

var _ ui.Layer = (*FileManager)(nil)

// New builds a FileManager with full-screen = true: it fills the whole
// terminal whenever it alone occupies the top of the stack.
func New(left, right *PaneState, keys *keybind.Table) *FileManager {
	return &FileManager{
		Base:  ui.NewBase(true),
		Panes: [2]*PaneState{left, right},
		Focus: Left,
		Keys:  keys,
	}
}

// Pane returns the PaneState for side.
func (fm *FileManager) Pane(side Side) *PaneState { return fm.Panes[side] }

// FocusedPane returns the pane currently carrying keyboard focus.
func (fm *FileManager) FocusedPane() *PaneState { return fm.Panes[fm.Focus] }

// Mode reports the current inline-input mode.
func (fm *FileManager) Mode() Mode { return fm.mode }

// StartQuickEdit enters quick-edit mode with the given prompt/initial
// text and callbacks.
func (fm *FileManager) StartQuickEdit(qe QuickEdit) {
	fm.mode = ModeQuickEdit
	fm.quickEdit = &qe
	fm.SetDirty(true)
}

// StartQuickChoice enters the inline confirm-bar mode.
func (fm *FileManager) StartQuickChoice(qc QuickChoice) {
	fm.mode = ModeQuickChoice
	fm.quickChoice = &qc
	fm.SetDirty(true)
}

// StartIncrementalSearch enters type-to-jump mode within the focused
// pane.
func (fm *FileManager) StartIncrementalSearch() {
	fm.mode = ModeIncrementalSearch
	fm.searchQuery = ""
	fm.SetDirty(true)
}

func (fm *FileManager) exitInlineMode() {
	fm.mode = ModeNormal
	fm.quickEdit = nil
	fm.quickChoice = nil
	fm.searchQuery = ""
}

// HandleChar implements ui.Layer. Inline modes are checked first, per
// spec §4.7's unified handle_input; only when none is active does the
// char fall through to the key-binding table.
func (fm *FileManager) HandleChar(ev events.CharEvent) bool {
	switch fm.mode {
	case ModeQuickEdit:
		fm.quickEdit.Text += string(ev.Char)
		return fm.Consume()
	case ModeQuickChoice:
		switch ev.Char {
		case 'y', 'Y':
			cb := fm.quickChoice.OnYes
			fm.exitInlineMode()
			if cb != nil {
				cb()
			}
			return fm.Consume()
		case 'n', 'N':
			cb := fm.quickChoice.OnNo
			fm.exitInlineMode()
			if cb != nil {
				cb()
			}
			return fm.Consume()
		}
		return fm.Consume()
	case ModeIncrementalSearch:
		fm.searchQuery += string(ev.Char)
		fm.jumpToIncrementalMatch()
		return fm.Consume()
	}

	if ev.Char == ' ' {
		pane := fm.FocusedPane()
		if e, ok := pane.Focused(); ok {
			pane.ToggleSelection(e.Name)
		}
		return fm.Consume()
	}

	if action, ok := fm.Keys.ResolveCharEvent(ev, fm.FocusedPane().HasSelection()); ok {
		return fm.dispatch(action)
	}
	return false
}

func (fm *FileManager) jumpToIncrementalMatch() {
	pane := fm.FocusedPane()
	for i, e := range pane.Entries {
		if len(fm.searchQuery) <= len(e.Name) && equalFold(e.Name[:len(fm.searchQuery)], fm.searchQuery) {
			pane.Cursor = i
			return
		}
	}
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// HandleKey implements ui.Layer.
func (fm *FileManager) HandleKey(ev events.KeyEvent) bool {
	switch fm.mode {
	case ModeQuickEdit:
		switch ev.Key {
		case events.KeyEnter:
			cb := fm.quickEdit.OnSubmit
			text := fm.quickEdit.Text
			fm.exitInlineMode()
			if cb != nil {
				cb(text)
			}
			return fm.Consume()
		case events.KeyEsc:
			cb := fm.quickEdit.OnCancel
			fm.exitInlineMode()
			if cb != nil {
				cb()
			}
			return fm.Consume()
		case events.KeyBackspace:
			if n := len(fm.quickEdit.Text); n > 0 {
				fm.quickEdit.Text = fm.quickEdit.Text[:n-1]
			}
			return fm.Consume()
		}
		return fm.Consume()
	case ModeQuickChoice:
		if ev.Key == events.KeyEsc {
			cb := fm.quickChoice.OnNo
			fm.exitInlineMode()
			if cb != nil {
				cb()
			}
		}
		return fm.Consume()
	case ModeIncrementalSearch:
		switch ev.Key {
		case events.KeyEsc, events.KeyEnter:
			fm.exitInlineMode()
			return fm.Consume()
		case events.KeyBackspace:
			if n := len(fm.searchQuery); n > 0 {
				fm.searchQuery = fm.searchQuery[:n-1]
				fm.jumpToIncrementalMatch()
			}
			return fm.Consume()
		}
		return fm.Consume()
	}

	switch ev.Key {
	case events.KeyTab:
		fm.Focus = fm.Focus.Other()
		return fm.Consume()
	case events.KeyUp:
		fm.FocusedPane().MoveCursor(-1)
		return fm.Consume()
	case events.KeyDown:
		fm.FocusedPane().MoveCursor(1)
		return fm.Consume()
	case events.KeyPageUp:
		fm.FocusedPane().MoveCursor(-10)
		return fm.Consume()
	case events.KeyPageDown:
		fm.FocusedPane().MoveCursor(10)
		return fm.Consume()
	}

	if action, ok := fm.Keys.ResolveKeyEvent(ev, fm.FocusedPane().HasSelection()); ok {
		return fm.dispatch(action)
	}
	return false
}

func (fm *FileManager) dispatch(action string) bool {
	if fm.Handler != nil && fm.Handler(fm, action) {
		return fm.Consume()
	}
	return false
}

// HandleMouse implements ui.Layer. Mouse interaction with pane contents
// is left to the concrete rendering backend's coordinate mapping; the
// core consumes no mouse events, and a click does not move focus.
func (fm *FileManager) HandleMouse(ev events.MouseEvent) bool {
	return false
}

// HandleSystem implements ui.Layer.
func (fm *FileManager) HandleSystem(ev events.SystemEvent) {
	if ev.Kind == events.SystemResize {
		fm.SetDirty(true)
	}
}

// Render implements ui.Layer with a minimal text rendering suitable for
// the FakeSurface test double and as a reference for the real rendering
// backend (spec §1: the concrete backend owns the actual presentation).
func (fm *FileManager) Render(surface ui.RenderSurface) {
	surface.Clear()
	width := surface.Width()
	half := width / 2

	fm.renderPane(surface, Left, 0, half)
	fm.renderPane(surface, Right, half, width-half)

	statusY := surface.Height() - 2
	drawString(surface, 0, statusY, fm.StatusText, ui.Style{})

	bottomY := surface.Height() - 1
	switch fm.mode {
	case ModeQuickEdit:
		drawString(surface, 0, bottomY, fm.quickEdit.Prompt+fm.quickEdit.Text, ui.Style{})
	case ModeQuickChoice:
		drawString(surface, 0, bottomY, fm.quickChoice.Prompt+" [y/n]", ui.Style{})
	case ModeIncrementalSearch:
		drawString(surface, 0, bottomY, "/"+fm.searchQuery, ui.Style{})
	}
}

func (fm *FileManager) renderPane(surface ui.RenderSurface, side Side, x, width int) {
	pane := fm.Pane(side)
	style := ui.Style{}
	if side == fm.Focus {
		style.Bold = true
	}
	drawString(surface, x, 0, pane.Path.Render(), style)
	for i, e := range pane.Entries {
		y := i + 1
		if y >= surface.Height()-2 {
			break
		}
		rowStyle := style
		if i == pane.Cursor {
			rowStyle.Reverse = true
		}
		label := e.Name
		if pane.Selected[e.Name] {
			label = "*" + label
		}
		drawString(surface, x, y, truncate(label, width), rowStyle)
	}
}

// truncate cuts s to fit width terminal columns, accounting for
// double-width runes (CJK, emoji) via runewidth rather than rune count.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "")
}

// drawString writes s starting at column x, advancing by each rune's
// terminal column width rather than assuming width 1.
func drawString(surface ui.RenderSurface, x, y int, s string, style ui.Style) {
	col := x
	for _, ch := range s {
		surface.SetCell(col, y, ch, style)
		col += runewidth.RuneWidth(ch)
	}
}

// RefreshAll refreshes both panes and updates the status bar.
func (fm *FileManager) RefreshAll(ctx context.Context) error {
	for _, p := range fm.Panes {
		if err := p.Refresh(ctx); err != nil {
			return err
		}
	}
	fm.StatusText = fmt.Sprintf("%s | %s", fm.Panes[Left].Path.Render(), fm.Panes[Right].Path.Render())
	return nil
}
