package filemanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/keybind"
	"github.com/shimomut/tfm/ui"
)

func newTestFM(t *testing.T) (*FileManager, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))

	left := NewPaneState(localPath(dir))
	right := NewPaneState(localPath(dir))
	require.NoError(t, left.Refresh(context.Background()))
	require.NoError(t, right.Refresh(context.Background()))

	keys := keybind.New()
	require.NoError(t, keys.Bind("quit", keybind.Any, "q"))

	fm := New(left, right, keys)
	return fm, dir
}

func TestTabSwitchesFocus(t *testing.T) {
	fm, _ := newTestFM(t)
	assert.Equal(t, Left, fm.Focus)
	assert.True(t, fm.HandleKey(events.KeyEvent{Key: events.KeyTab}))
	assert.Equal(t, Right, fm.Focus)
}

func TestSpaceTogglesSelection(t *testing.T) {
	fm, _ := newTestFM(t)
	assert.True(t, fm.HandleChar(events.CharEvent{Char: ' '}))
	assert.True(t, fm.FocusedPane().HasSelection())
}

func TestUnboundKeyNotConsumed(t *testing.T) {
	fm, _ := newTestFM(t)
	assert.False(t, fm.HandleChar(events.CharEvent{Char: 'z'}))
}

func TestBoundKeyDispatchesToHandler(t *testing.T) {
	fm, _ := newTestFM(t)
	var gotAction string
	fm.Handler = func(fm *FileManager, action string) bool {
		gotAction = action
		return true
	}
	assert.True(t, fm.HandleChar(events.CharEvent{Char: 'q'}))
	assert.Equal(t, "quit", gotAction)
}

func TestQuickEditCapturesTextAndSubmits(t *testing.T) {
	fm, _ := newTestFM(t)
	var submitted string
	fm.StartQuickEdit(QuickEdit{Prompt: "name: ", OnSubmit: func(text string) { submitted = text }})

	fm.HandleChar(events.CharEvent{Char: 'h'})
	fm.HandleChar(events.CharEvent{Char: 'i'})
	fm.HandleKey(events.KeyEvent{Key: events.KeyEnter})

	assert.Equal(t, "hi", submitted)
	assert.Equal(t, ModeNormal, fm.Mode())
}

func TestQuickEditCancelDoesNotSubmit(t *testing.T) {
	fm, _ := newTestFM(t)
	called := false
	fm.StartQuickEdit(QuickEdit{OnSubmit: func(string) { called = true }, OnCancel: func() {}})
	fm.HandleChar(events.CharEvent{Char: 'x'})
	fm.HandleKey(events.KeyEvent{Key: events.KeyEsc})

	assert.False(t, called)
	assert.Equal(t, ModeNormal, fm.Mode())
}

func TestQuickChoiceYesNo(t *testing.T) {
	fm, _ := newTestFM(t)
	yes := false
	fm.StartQuickChoice(QuickChoice{OnYes: func() { yes = true }})
	fm.HandleChar(events.CharEvent{Char: 'y'})
	assert.True(t, yes)
	assert.Equal(t, ModeNormal, fm.Mode())
}

func TestIncrementalSearchJumpsToMatch(t *testing.T) {
	fm, _ := newTestFM(t)
	fm.StartIncrementalSearch()
	fm.HandleChar(events.CharEvent{Char: 'b'})
	assert.Equal(t, "b.txt", fm.FocusedPane().Entries[fm.FocusedPane().Cursor].Name)
}

func TestRenderDoesNotPanic(t *testing.T) {
	fm, _ := newTestFM(t)
	surface := ui.NewFakeSurface(80, 24)
	require.NoError(t, fm.RefreshAll(context.Background()))
	fm.Render(surface)
	assert.NotEmpty(t, surface.Cells)
}
