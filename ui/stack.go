// Package ui implements the UILayerStack (spec §4.6), the AdaptiveFPS
// scheduler (spec §4.9), and the narrow RendererBackend/RenderSurface
// contract the external rendering backend must satisfy (spec §1 places
// the concrete renderer out of core scope).
package ui

import (
	"sync"

	"github.com/shimomut/tfm/events"
)

// Stack is an ordered stack of Layers with a bottom layer present at all
// times (spec §4.6). It is safe for concurrent use: background workers
// may call MarkDirty-equivalent mutations on a layer they own while the
// UI thread drives Render/Deliver*.
type Stack struct {
	mu     sync.Mutex
	layers []Layer
}

// New creates a Stack with bottom as its permanent bottom layer.
func New(bottom Layer) *Stack {
	return &Stack{layers: []Layer{bottom}}
}

// Push adds layer to the top of the stack.
func (s *Stack) Push(layer Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, layer)
}

// Pop removes and returns the top layer. The bottom (file-manager) layer
// is never popped; Pop on a one-layer stack is a no-op and returns nil.
func (s *Stack) Pop() Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.layers) <= 1 {
		return nil
	}
	top := s.layers[len(s.layers)-1]
	s.layers = s.layers[:len(s.layers)-1]
	return top
}

// Peek returns the top layer without removing it.
func (s *Stack) Peek() Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.top()
}

func (s *Stack) top() Layer {
	if len(s.layers) == 0 {
		return nil
	}
	return s.layers[len(s.layers)-1]
}

// Len reports the current depth of the stack.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layers)
}

// Layers returns a snapshot slice, bottom-to-top, for iteration.
func (s *Stack) Layers() []Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Layer, len(s.layers))
	copy(out, s.layers)
	return out
}

// DeliverKey routes a KeyEvent to the top layer only (spec §4.6). If not
// consumed, the event is discarded — layers below never see it.
func (s *Stack) DeliverKey(ev events.KeyEvent) bool {
	top := s.Peek()
	if top == nil {
		return false
	}
	return top.HandleKey(ev)
}

// DeliverChar routes a CharEvent to the top layer only.
func (s *Stack) DeliverChar(ev events.CharEvent) bool {
	top := s.Peek()
	if top == nil {
		return false
	}
	return top.HandleChar(ev)
}

// DeliverMouse delivers a MouseEvent top-down until one layer consumes it.
func (s *Stack) DeliverMouse(ev events.MouseEvent) bool {
	for _, l := range reverse(s.Layers()) {
		if l.HandleMouse(ev) {
			return true
		}
	}
	return false
}

// DeliverSystem broadcasts a SystemEvent to every layer (spec §4.6).
func (s *Stack) DeliverSystem(ev events.SystemEvent) {
	for _, l := range s.Layers() {
		l.HandleSystem(ev)
	}
}

func reverse(in []Layer) []Layer {
	out := make([]Layer, len(in))
	for i, l := range in {
		out[len(in)-1-i] = l
	}
	return out
}

// Render queries each layer's dirty flag and the top layer's full-screen
// flag. If the top layer is full-screen and dirty, only it renders;
// otherwise every dirty layer renders bottom-up, and is then marked
// clean (spec §4.6).
func (s *Stack) Render(surface RenderSurface) {
	layers := s.Layers()
	if len(layers) == 0 {
		return
	}
	top := layers[len(layers)-1]

	if top.FullScreen() && top.Dirty() {
		top.Render(surface)
		top.SetDirty(false)
		return
	}

	for _, l := range layers {
		if l.Dirty() {
			l.Render(surface)
			l.SetDirty(false)
		}
	}
}

// AnyNeedsRedraw reports whether any layer wants to keep being scheduled
// for render even without new activity (animating dialogs, spec §4.8).
func (s *Stack) AnyNeedsRedraw() bool {
	for _, l := range s.Layers() {
		if l.Dirty() || l.NeedsRedraw() {
			return true
		}
	}
	return false
}
