package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimomut/tfm/keybind"
	"github.com/shimomut/tfm/pathvfs"
	_ "github.com/shimomut/tfm/pathvfs/localbackend"
	"github.com/shimomut/tfm/ui/filemanager"
)

func TestResolvePanePathPrefersFlag(t *testing.T) {
	dir := t.TempDir()
	p, err := resolvePanePath(dir, "/some/saved/path")
	require.NoError(t, err)
	assert.Equal(t, dir, p.Render())
}

func TestResolvePanePathFallsBackToSaved(t *testing.T) {
	dir := t.TempDir()
	p, err := resolvePanePath("", dir)
	require.NoError(t, err)
	assert.Equal(t, dir, p.Render())
}

func TestResolvePanePathFallsBackToCwd(t *testing.T) {
	cwd, err := os.Getwd()
	require.NoError(t, err)
	p, err := resolvePanePath("", "")
	require.NoError(t, err)
	assert.Equal(t, cwd, p.Render())
}

func TestDefaultKeybindTableBindsQuit(t *testing.T) {
	table := defaultKeybindTable()
	main, mods, err := keybind.Parse("Ctrl-q")
	require.NoError(t, err)
	action, ok := table.Resolve(main, mods, false)
	assert.True(t, ok)
	assert.Equal(t, "quit", action)
}

func TestDefaultKeybindTableRequiresSelectionForCopy(t *testing.T) {
	table := defaultKeybindTable()
	main, mods, err := keybind.Parse("F5")
	require.NoError(t, err)

	_, ok := table.Resolve(main, mods, false)
	assert.False(t, ok)

	action, ok := table.Resolve(main, mods, true)
	assert.True(t, ok)
	assert.Equal(t, "copy", action)
}

func TestDefaultKeybindTableBindsCreateArchive(t *testing.T) {
	table := defaultKeybindTable()
	main, mods, err := keybind.Parse("Ctrl-a")
	require.NoError(t, err)

	_, ok := table.Resolve(main, mods, false)
	assert.False(t, ok)

	action, ok := table.Resolve(main, mods, true)
	assert.True(t, ok)
	assert.Equal(t, "create-archive", action)
}

func TestDefaultKeybindTableBindsExtractArchive(t *testing.T) {
	table := defaultKeybindTable()
	main, mods, err := keybind.Parse("Ctrl-e")
	require.NoError(t, err)

	action, ok := table.Resolve(main, mods, false)
	assert.True(t, ok)
	assert.Equal(t, "extract-archive", action)
}

func paneCursorOn(t *testing.T, p *filemanager.PaneState, name string) {
	t.Helper()
	for i, e := range p.Entries {
		if e.Name == name {
			p.Cursor = i
			return
		}
	}
	t.Fatalf("entry %q not found", name)
}

func TestBuiltinActionHandlerCreatesAndExtractsArchive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	path := pathvfs.New(pathvfs.SchemeLocal, "", dir)
	left := filemanager.NewPaneState(path)
	right := filemanager.NewPaneState(path)
	ctx := context.Background()
	require.NoError(t, left.Refresh(ctx))
	require.NoError(t, right.Refresh(ctx))

	fm := filemanager.New(left, right, keybind.New())

	paneCursorOn(t, left, "a.txt")
	assert.True(t, builtinActionHandler(fm, "create-archive"))

	archivePath := filepath.Join(dir, "a.txt.zip")
	_, err := os.Stat(archivePath)
	require.NoError(t, err, "create-archive should write a.txt.zip next to a.txt")

	// The stem directory a.txt would collide with the original file.
	require.NoError(t, os.Remove(filepath.Join(dir, "a.txt")))
	require.NoError(t, left.Refresh(ctx))
	paneCursorOn(t, left, "a.txt.zip")
	assert.True(t, builtinActionHandler(fm, "extract-archive"))

	got, err := os.ReadFile(filepath.Join(dir, "a.txt", "a.txt"))
	require.NoError(t, err, "extract-archive should expand into a stem-named directory")
	assert.Equal(t, "hello", string(got))
}

func TestBuiltinActionHandlerExtractArchiveIgnoresNonArchiveEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	path := pathvfs.New(pathvfs.SchemeLocal, "", dir)
	left := filemanager.NewPaneState(path)
	right := filemanager.NewPaneState(path)
	ctx := context.Background()
	require.NoError(t, left.Refresh(ctx))
	require.NoError(t, right.Refresh(ctx))

	fm := filemanager.New(left, right, keybind.New())
	paneCursorOn(t, left, "a.txt")

	assert.True(t, builtinActionHandler(fm, "extract-archive"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a non-archive focused entry should leave the directory untouched")
}

func TestRunColorTestModeSkipsCoreInit(t *testing.T) {
	flags.colorTest = "rgb"
	defer func() { flags.colorTest = "" }()

	err := run(nil, &discardWriter{})
	assert.NoError(t, err)
}

func TestNewRootCmdRegistersFlags(t *testing.T) {
	cmd := newRootCmd()
	f := cmd.Flags()
	assert.NotNil(t, f.Lookup("left"))
	assert.NotNil(t, f.Lookup("right"))
	assert.NotNil(t, f.Lookup("debug"))
	assert.NotNil(t, f.Lookup("remote-log-port"))
	assert.NotNil(t, f.Lookup("color-test"))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
