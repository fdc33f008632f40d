// Package dialogs implements the dialog/viewer layers from spec §4.8:
// general input, filtered list, search, jump, batch-rename, and
// info/help, each a ui.Layer pushed above the FileManager layer. Common
// shape grounded on ui.Base (spec §4.6) for dirty-flag bookkeeping, the
// same pattern the FileManager layer uses.
package dialogs

import (
	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/ui"
)

// Input is the general input dialog: single-line prompt, optional
// initial text, optional help line, returning the entered text or a
// cancel result via OnSubmit/OnCancel.
type Input struct {
	ui.Base

	Prompt   string
	Help     string
	Text     string
	OnSubmit func(text string)
	OnCancel func()

	cancelled bool
}

var _ ui.Layer = (*Input)(nil)

// NewInput creates an Input dialog, full-screen per spec §4.8.
func NewInput(prompt, initial string, onSubmit func(string), onCancel func()) *Input {
	return &Input{
		Base:     ui.NewBase(true),
		Prompt:   prompt,
		Text:     initial,
		OnSubmit: onSubmit,
		OnCancel: onCancel,
	}
}

func (d *Input) HandleChar(ev events.CharEvent) bool {
	d.Text += string(ev.Char)
	return d.Consume()
}

func (d *Input) HandleKey(ev events.KeyEvent) bool {
	switch ev.Key {
	case events.KeyEnter:
		if d.OnSubmit != nil {
			d.OnSubmit(d.Text)
		}
		return d.Consume()
	case events.KeyEsc:
		d.cancelled = true
		if d.OnCancel != nil {
			d.OnCancel()
		}
		return d.Consume()
	case events.KeyBackspace:
		if n := len(d.Text); n > 0 {
			d.Text = d.Text[:n-1]
		}
		return d.Consume()
	}
	return d.Consume()
}

func (d *Input) HandleMouse(ev events.MouseEvent) bool { return false }
func (d *Input) HandleSystem(ev events.SystemEvent)    { d.SetDirty(true) }

// Cancelled reports whether the dialog was dismissed with Esc.
func (d *Input) Cancelled() bool { return d.cancelled }

func (d *Input) Render(surface ui.RenderSurface) {
	surface.Clear()
	drawLine(surface, 0, 0, d.Prompt+d.Text)
	if d.Help != "" {
		drawLine(surface, 0, 2, d.Help)
	}
}

func drawLine(surface ui.RenderSurface, x, y int, s string) {
	for i, ch := range s {
		surface.SetCell(x+i, y, ch, ui.Style{})
	}
}
