package dialogs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/pathvfs"
	_ "github.com/shimomut/tfm/pathvfs/localbackend"
	"github.com/shimomut/tfm/search"
)

func localPath(p string) pathvfs.Path {
	return pathvfs.New(pathvfs.SchemeLocal, "", p)
}

func TestInputSubmitAndCancel(t *testing.T) {
	var submitted string
	d := NewInput("name: ", "", func(s string) { submitted = s }, nil)
	d.HandleChar(events.CharEvent{Char: 'h'})
	d.HandleChar(events.CharEvent{Char: 'i'})
	d.HandleKey(events.KeyEvent{Key: events.KeyEnter})
	assert.Equal(t, "hi", submitted)

	d2 := NewInput("", "", nil, nil)
	d2.HandleKey(events.KeyEvent{Key: events.KeyEsc})
	assert.True(t, d2.Cancelled())
}

func TestListFiltersAndChooses(t *testing.T) {
	var chosen Item
	items := []Item{{Label: "apple"}, {Label: "banana"}, {Label: "grape"}}
	l := NewList(items, func(i Item) { chosen = i }, nil)

	l.HandleChar(events.CharEvent{Char: 'a'})
	visible := l.Visible()
	for _, v := range visible {
		assert.Contains(t, v.Label, "a")
	}

	l.HandleKey(events.KeyEvent{Key: events.KeyEnter})
	assert.Contains(t, chosen.Label, "a")
}

func TestListCancel(t *testing.T) {
	cancelled := false
	l := NewList(nil, nil, func() { cancelled = true })
	l.HandleKey(events.KeyEvent{Key: events.KeyEsc})
	assert.True(t, cancelled)
}

func TestBatchRenamePreviewsPlans(t *testing.T) {
	b := NewBatchRename([]string{"foo.txt", "foobar.txt"}, nil, nil)
	for _, c := range "foo" {
		b.HandleChar(events.CharEvent{Char: c})
	}
	b.HandleKey(events.KeyEvent{Key: events.KeyTab})
	for _, c := range "baz" {
		b.HandleChar(events.CharEvent{Char: c})
	}

	plans := b.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, "baz.txt", plans[0].Renamed)
	assert.Equal(t, "bazbar.txt", plans[1].Renamed)
}

func TestBatchRenameInvalidPatternReportsError(t *testing.T) {
	b := NewBatchRename([]string{"a"}, nil, nil)
	for _, c := range "[" {
		b.HandleChar(events.CharEvent{Char: c})
	}
	assert.Nil(t, b.Plans())
	assert.Error(t, b.patternErr)
}

func TestInfoScrolls(t *testing.T) {
	closed := false
	d := NewInfo("line1\nline2\nline3", func() { closed = true })
	d.HandleKey(events.KeyEvent{Key: events.KeyDown})
	d.HandleKey(events.KeyEvent{Key: events.KeyEsc})
	assert.True(t, closed)
}

func TestScanDirectoriesFindsNested(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))

	dirs, err := ScanDirectories(context.Background(), localPath(dir))
	require.NoError(t, err)

	var rendered []string
	for _, d := range dirs {
		rendered = append(rendered, d.Render())
	}
	assert.Contains(t, rendered, dir)
	assert.Contains(t, rendered, filepath.Join(dir, "a"))
	assert.Contains(t, rendered, filepath.Join(dir, "a", "b"))
}

func TestSearchDialogSupersedesPriorThread(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boto.txt"), []byte("x"), 0o644))

	d := NewSearch(localPath(dir), search.Kind(search.Filename))
	d.HandleChar(events.CharEvent{Char: 'b'})
	d.HandleChar(events.CharEvent{Char: 'o'})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		_, searching := d.Results()
		if !searching {
			break
		}
		time.Sleep(time.Millisecond)
	}

	results, _ := d.Results()
	require.NotEmpty(t, results)
	assert.Equal(t, "boto.txt", results[0].Path.Name())
}
