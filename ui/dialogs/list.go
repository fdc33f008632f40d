package dialogs

import (
	"strings"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/ui"
)

// Item is one entry in a List dialog.
type Item struct {
	Label string
	Value interface{}
}

// List is the filtered list dialog with an embedded search field (spec
// §4.8): returns the chosen Item via OnChoose, or OnCancel on Esc.
type List struct {
	ui.Base

	Items    []Item
	OnChoose func(Item)
	OnCancel func()

	query    string
	filtered []int
	cursor   int
}

var _ ui.Layer = (*List)(nil)

func NewList(items []Item, onChoose func(Item), onCancel func()) *List {
	l := &List{Base: ui.NewBase(true), Items: items, OnChoose: onChoose, OnCancel: onCancel}
	l.refilter()
	return l
}

func (l *List) refilter() {
	l.filtered = l.filtered[:0]
	q := strings.ToLower(l.query)
	for i, item := range l.Items {
		if q == "" || strings.Contains(strings.ToLower(item.Label), q) {
			l.filtered = append(l.filtered, i)
		}
	}
	if l.cursor >= len(l.filtered) {
		l.cursor = 0
	}
}

// Visible returns the items surviving the current filter, in order.
func (l *List) Visible() []Item {
	out := make([]Item, len(l.filtered))
	for i, idx := range l.filtered {
		out[i] = l.Items[idx]
	}
	return out
}

func (l *List) HandleChar(ev events.CharEvent) bool {
	l.query += string(ev.Char)
	l.refilter()
	return l.Consume()
}

func (l *List) HandleKey(ev events.KeyEvent) bool {
	switch ev.Key {
	case events.KeyUp:
		if l.cursor > 0 {
			l.cursor--
		}
		return l.Consume()
	case events.KeyDown:
		if l.cursor < len(l.filtered)-1 {
			l.cursor++
		}
		return l.Consume()
	case events.KeyBackspace:
		if n := len(l.query); n > 0 {
			l.query = l.query[:n-1]
			l.refilter()
		}
		return l.Consume()
	case events.KeyEnter:
		if l.cursor >= 0 && l.cursor < len(l.filtered) && l.OnChoose != nil {
			l.OnChoose(l.Items[l.filtered[l.cursor]])
		}
		return l.Consume()
	case events.KeyEsc:
		if l.OnCancel != nil {
			l.OnCancel()
		}
		return l.Consume()
	}
	return l.Consume()
}

func (l *List) HandleMouse(ev events.MouseEvent) bool { return false }
func (l *List) HandleSystem(ev events.SystemEvent)    { l.SetDirty(true) }

func (l *List) Render(surface ui.RenderSurface) {
	surface.Clear()
	drawLine(surface, 0, 0, "/"+l.query)
	for i, item := range l.Visible() {
		y := i + 1
		if y >= surface.Height() {
			break
		}
		label := item.Label
		if i == l.cursor {
			label = "> " + label
		}
		drawLine(surface, 0, y, label)
	}
}
