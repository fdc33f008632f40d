package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimomut/tfm/pathvfs"
	_ "github.com/shimomut/tfm/pathvfs/localbackend"
)

func localPath(p string) pathvfs.Path {
	return pathvfs.New(pathvfs.SchemeLocal, "", p)
}

func TestFilenameSearchFindsMatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "boto_client.go"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.go"), []byte("x"), 0o644))

	th := New(localPath(dir), "boto", Filename)
	th.Run(context.Background())

	results, done, err := th.Results()
	require.True(t, done)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "boto_client.go", results[0].Path.Name())
}

func TestContentSearchFindsLineAndSkipsBinary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("line one\nneedle here\nline three\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.dat"), []byte{0, 1, 2, 'n', 'e', 'e', 'd', 'l', 'e'}, 0o644))

	th := New(localPath(dir), "needle", Content)
	th.Run(context.Background())

	results, done, err := th.Results()
	require.True(t, done)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Line)
	assert.Equal(t, "a.txt", results[0].Path.Name())
}

func TestCancelStopsWalkWithoutAffectingOtherThreads(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 50; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f"+string(rune('a'+i%26))+".txt"), []byte("x"), 0o644))
	}

	t1 := New(localPath(dir), "f", Filename)
	t2 := New(localPath(dir), "f", Filename)

	t1.Cancel()
	t1.Run(context.Background())
	_, done1, err1 := t1.Results()
	assert.True(t, done1)
	assert.NoError(t, err1)

	t2.Run(context.Background())
	results2, done2, err2 := t2.Results()
	assert.True(t, done2)
	assert.NoError(t, err2)
	assert.NotEmpty(t, results2)
}

func TestSupersedeClearsAuthoritativeOnlyForThatThread(t *testing.T) {
	t1 := New(localPath("."), "x", Filename)
	t2 := New(localPath("."), "x", Filename)

	assert.True(t, t1.IsAuthoritative())
	assert.True(t, t2.IsAuthoritative())

	t1.Supersede()
	assert.False(t, t1.IsAuthoritative())
	assert.True(t, t2.IsAuthoritative())
}

func TestCancelGraceIsBounded(t *testing.T) {
	assert.LessOrEqual(t, CancelGrace, 100*time.Millisecond)
}

func TestIsText(t *testing.T) {
	assert.True(t, IsText([]byte("hello world")))
	assert.False(t, IsText([]byte{0, 1, 2}))
	assert.True(t, IsText(nil))
}
