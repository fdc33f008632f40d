package dialogs

import (
	"strings"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/ui"
)

// Info is a scrollable text dialog used for help/about and similar
// read-only content (spec §4.8).
type Info struct {
	ui.Base

	lines  []string
	scroll int

	OnClose func()
}

var _ ui.Layer = (*Info)(nil)

func NewInfo(text string, onClose func()) *Info {
	return &Info{Base: ui.NewBase(true), lines: strings.Split(text, "\n"), OnClose: onClose}
}

func (d *Info) HandleChar(ev events.CharEvent) bool { return d.Consume() }

func (d *Info) HandleKey(ev events.KeyEvent) bool {
	switch ev.Key {
	case events.KeyUp:
		if d.scroll > 0 {
			d.scroll--
		}
		return d.Consume()
	case events.KeyDown:
		if d.scroll < len(d.lines)-1 {
			d.scroll++
		}
		return d.Consume()
	case events.KeyEsc, events.KeyEnter:
		if d.OnClose != nil {
			d.OnClose()
		}
		return d.Consume()
	}
	return d.Consume()
}

func (d *Info) HandleMouse(ev events.MouseEvent) bool { return false }
func (d *Info) HandleSystem(ev events.SystemEvent)    { d.SetDirty(true) }

func (d *Info) Render(surface ui.RenderSurface) {
	surface.Clear()
	for y := 0; y < surface.Height(); y++ {
		idx := d.scroll + y
		if idx >= len(d.lines) {
			break
		}
		drawLine(surface, 0, y, d.lines[idx])
	}
}
