package ui

import "github.com/shimomut/tfm/events"

// RendererBackend is the entire contract between core and the concrete
// rendering backend (spec §1 places the renderer itself out of scope).
// An implementation invokes the On* callbacks on the UI thread as input
// arrives, and GetEvent blocks until either an event is ready or
// timeoutMs elapses — the event-loop cadence from spec §5.
type RendererBackend interface {
	OnKey(func(events.KeyEvent) bool)
	OnChar(func(events.CharEvent) bool)
	OnMouse(func(events.MouseEvent) bool)
	OnSystem(func(events.SystemEvent))
	OnMenu(func(events.MenuEvent) bool)

	// GetEvent blocks for up to timeoutMs delivering at most one event
	// through the registered callbacks, then returns. A deadline-exceeded
	// return with no event delivered is not an error.
	GetEvent(timeoutMs int) error

	Render(surface RenderSurface)
	Close() error
}
