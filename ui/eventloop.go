package ui

import (
	"sync"
	"time"

	"github.com/shimomut/tfm/events"
)

// Activity tracks the timestamp AdaptiveFPS needs: the last time an
// input event was delivered or a render drew a dirty layer (spec §4.9).
type Activity struct {
	mu   sync.Mutex
	last time.Time
}

func NewActivity() *Activity {
	return &Activity{last: time.Now()}
}

func (a *Activity) Touch() {
	a.mu.Lock()
	a.last = time.Now()
	a.mu.Unlock()
}

func (a *Activity) Last() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// EventLoop wires a RendererBackend's callbacks into a Stack and drives
// the cooperative single-threaded loop from spec §5: the backend's
// GetEvent(timeout_ms) is called with a timeout from AdaptiveFPS, and on
// timeout the loop still checks for dirty layers because background
// threads may have mutated state.
type EventLoop struct {
	backend  RendererBackend
	stack    *Stack
	surface  RenderSurface
	activity *Activity
	closing  bool
}

// NewEventLoop registers the stack's routing as the backend's callbacks
// and returns a ready-to-run EventLoop.
func NewEventLoop(backend RendererBackend, stack *Stack, surface RenderSurface) *EventLoop {
	el := &EventLoop{backend: backend, stack: stack, surface: surface, activity: NewActivity()}

	backend.OnKey(func(ev events.KeyEvent) bool {
		el.activity.Touch()
		return stack.DeliverKey(ev)
	})
	backend.OnChar(func(ev events.CharEvent) bool {
		el.activity.Touch()
		return stack.DeliverChar(ev)
	})
	backend.OnMouse(func(ev events.MouseEvent) bool {
		el.activity.Touch()
		return stack.DeliverMouse(ev)
	})
	backend.OnSystem(func(ev events.SystemEvent) {
		el.activity.Touch()
		stack.DeliverSystem(ev)
		if ev.Kind == events.SystemClose {
			el.closing = true
		}
	})
	backend.OnMenu(func(ev events.MenuEvent) bool {
		el.activity.Touch()
		return false // core has no menu surface of its own; external collaborator may extend
	})

	return el
}

// RunOnce performs one iteration: block for the AdaptiveFPS timeout,
// then render any dirty layers. Returns false once a SystemClose has
// been observed, telling the caller to stop looping.
func (el *EventLoop) RunOnce() (keepRunning bool, err error) {
	timeout := TimeoutMillis(el.activity.Last(), time.Now())
	if err := el.backend.GetEvent(timeout); err != nil {
		return false, err
	}
	if el.closing {
		return false, nil
	}
	if el.stack.AnyNeedsRedraw() {
		el.stack.Render(el.surface)
		el.activity.Touch()
	}
	return true, nil
}

// Run drives RunOnce until SystemClose or an error.
func (el *EventLoop) Run() error {
	for {
		keepRunning, err := el.RunOnce()
		if err != nil {
			return err
		}
		if !keepRunning {
			return nil
		}
	}
}
