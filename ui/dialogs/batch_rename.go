package dialogs

import (
	"regexp"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/ui"
)

// RenamePlan is one proposed (original, renamed) pair.
type RenamePlan struct {
	Original string
	Renamed  string
}

// BatchRename previews renames derived from applying a regex
// replacement to a set of selected names (spec §4.8). The pattern and
// replacement are edited as two stacked input fields; Tab switches
// between them.
type BatchRename struct {
	ui.Base

	names       []string
	pattern     string
	replacement string
	editingRepl bool

	plans    []RenamePlan
	patternErr error

	OnApply  func(plans []RenamePlan)
	OnCancel func()
}

var _ ui.Layer = (*BatchRename)(nil)

func NewBatchRename(names []string, onApply func([]RenamePlan), onCancel func()) *BatchRename {
	b := &BatchRename{Base: ui.NewBase(true), names: names, OnApply: onApply, OnCancel: onCancel}
	b.recompute()
	return b
}

func (b *BatchRename) recompute() {
	b.patternErr = nil
	if b.pattern == "" {
		b.plans = nil
		return
	}
	re, err := regexp.Compile(b.pattern)
	if err != nil {
		b.patternErr = err
		b.plans = nil
		return
	}
	plans := make([]RenamePlan, len(b.names))
	for i, name := range b.names {
		plans[i] = RenamePlan{Original: name, Renamed: re.ReplaceAllString(name, b.replacement)}
	}
	b.plans = plans
}

// Plans returns the currently previewed renames.
func (b *BatchRename) Plans() []RenamePlan { return b.plans }

func (b *BatchRename) HandleChar(ev events.CharEvent) bool {
	if b.editingRepl {
		b.replacement += string(ev.Char)
	} else {
		b.pattern += string(ev.Char)
	}
	b.recompute()
	return b.Consume()
}

func (b *BatchRename) HandleKey(ev events.KeyEvent) bool {
	switch ev.Key {
	case events.KeyTab:
		b.editingRepl = !b.editingRepl
		return b.Consume()
	case events.KeyBackspace:
		if b.editingRepl {
			if n := len(b.replacement); n > 0 {
				b.replacement = b.replacement[:n-1]
			}
		} else if n := len(b.pattern); n > 0 {
			b.pattern = b.pattern[:n-1]
		}
		b.recompute()
		return b.Consume()
	case events.KeyEnter:
		if b.patternErr == nil && b.OnApply != nil {
			b.OnApply(b.plans)
		}
		return b.Consume()
	case events.KeyEsc:
		if b.OnCancel != nil {
			b.OnCancel()
		}
		return b.Consume()
	}
	return b.Consume()
}

func (b *BatchRename) HandleMouse(ev events.MouseEvent) bool { return false }
func (b *BatchRename) HandleSystem(ev events.SystemEvent)    { b.SetDirty(true) }

func (b *BatchRename) Render(surface ui.RenderSurface) {
	surface.Clear()
	drawLine(surface, 0, 0, "pattern: "+b.pattern)
	drawLine(surface, 0, 1, "replace: "+b.replacement)
	if b.patternErr != nil {
		drawLine(surface, 0, 2, "error: "+b.patternErr.Error())
		return
	}
	for i, p := range b.plans {
		y := i + 3
		if y >= surface.Height() {
			break
		}
		drawLine(surface, 0, y, p.Original+" -> "+p.Renamed)
	}
}
