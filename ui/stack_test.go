package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shimomut/tfm/events"
)

type testLayer struct {
	Base
	name      string
	consumeKey bool
	renders   *[]string
}

func newTestLayer(name string, fullScreen, consumeKey bool, renders *[]string) *testLayer {
	l := &testLayer{name: name, consumeKey: consumeKey, renders: renders}
	l.Base = NewBase(fullScreen)
	return l
}

func (l *testLayer) HandleKey(ev events.KeyEvent) bool {
	if l.consumeKey {
		return l.Consume()
	}
	return false
}
func (l *testLayer) HandleChar(ev events.CharEvent) bool   { return false }
func (l *testLayer) HandleMouse(ev events.MouseEvent) bool { return false }
func (l *testLayer) HandleSystem(ev events.SystemEvent)    {}
func (l *testLayer) Render(surface RenderSurface) {
	*l.renders = append(*l.renders, l.name)
}

func TestKeyEventGoesToTopOnly(t *testing.T) {
	var renders []string
	bottom := newTestLayer("bottom", false, true, &renders)
	top := newTestLayer("top", false, true, &renders)
	s := New(bottom)
	s.Push(top)
	bottom.SetDirty(false)
	top.SetDirty(false)

	consumed := s.DeliverKey(events.KeyEvent{Key: events.KeyEnter})
	assert.True(t, consumed)
	// bottom's HandleKey must never have been invoked: it would also
	// consume (consumeKey=true) but the sum of consumed flags must be <=1
	// and only the top layer is dirtied by this one event.
	assert.True(t, top.Dirty())
	assert.False(t, bottom.Dirty())
}

func TestEveryConsumedEventSetsDirty(t *testing.T) {
	var renders []string
	l := newTestLayer("solo", false, true, &renders)
	s := New(l)
	l.SetDirty(false)
	s.DeliverKey(events.KeyEvent{Key: events.KeyTab})
	assert.True(t, l.Dirty())
}

func TestFullScreenTopOccludesBelow(t *testing.T) {
	var renders []string
	bottom := newTestLayer("bottom", false, false, &renders)
	top := newTestLayer("top", true, false, &renders)
	s := New(bottom)
	s.Push(top)

	s.Render(NewFakeSurface(80, 24))
	assert.Equal(t, []string{"top"}, renders)
}

func TestNonFullScreenRendersAllDirtyBottomUp(t *testing.T) {
	var renders []string
	bottom := newTestLayer("bottom", false, false, &renders)
	top := newTestLayer("top", false, false, &renders)
	s := New(bottom)
	s.Push(top)

	s.Render(NewFakeSurface(80, 24))
	assert.Equal(t, []string{"bottom", "top"}, renders)
	assert.False(t, bottom.Dirty())
	assert.False(t, top.Dirty())
}

func TestSystemEventBroadcastToAllLayers(t *testing.T) {
	var renders []string
	bottom := newTestLayer("bottom", false, false, &renders)
	top := newTestLayer("top", false, false, &renders)
	s := New(bottom)
	s.Push(top)
	bottom.SetDirty(false)
	top.SetDirty(false)

	s.DeliverSystem(events.SystemEvent{Kind: events.SystemResize, Width: 100, Height: 40})
	// HandleSystem on testLayer doesn't itself set dirty; broadcast just
	// confirms both layers receive the call without panicking.
	assert.False(t, bottom.Dirty())
}

func TestPopNeverRemovesBottomLayer(t *testing.T) {
	var renders []string
	bottom := newTestLayer("bottom", false, false, &renders)
	s := New(bottom)
	assert.Nil(t, s.Pop())
	assert.Equal(t, 1, s.Len())
}
