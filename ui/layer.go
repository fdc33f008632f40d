package ui

import "github.com/shimomut/tfm/events"

// Layer is a UILayer (spec §3, §4.6): it has a dirty flag, a render
// method, event handlers, and a full-screen flag. Layers are managed
// only by reference from Stack.
type Layer interface {
	HandleKey(ev events.KeyEvent) bool
	HandleChar(ev events.CharEvent) bool
	HandleMouse(ev events.MouseEvent) bool
	HandleSystem(ev events.SystemEvent)

	Render(surface RenderSurface)

	Dirty() bool
	SetDirty(dirty bool)

	// FullScreen reports whether the layer occludes everything below it
	// when it is the top of the stack and dirty.
	FullScreen() bool

	// NeedsRedraw reports true while the layer is animating (e.g. a
	// progress spinner) even with no state change, so the stack keeps
	// scheduling renders for it (spec §4.8).
	NeedsRedraw() bool
}

// Base is embedded by concrete layers to get the dirty-flag bookkeeping
// and the Consume helper for free, the way spec §9 describes encoding
// "always set dirty on consumed event" as a Base/trait method rather
// than a convention every handler has to remember.
type Base struct {
	dirty      bool
	fullScreen bool
}

func NewBase(fullScreen bool) Base {
	return Base{dirty: true, fullScreen: fullScreen}
}

func (b *Base) Dirty() bool          { return b.dirty }
func (b *Base) SetDirty(dirty bool)  { b.dirty = dirty }
func (b *Base) FullScreen() bool     { return b.fullScreen }
func (b *Base) NeedsRedraw() bool    { return false }

// Consume marks the layer dirty and returns true. Every handler that
// consumes an event — even one with no outwardly visible effect this
// frame — must route through Consume, per the fail-safe in spec §4.6.
func (b *Base) Consume() bool {
	b.dirty = true
	return true
}
