package localbackend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimomut/tfm/pathvfs"
)

func TestIterdirEmptyDir(t *testing.T) {
	dir := t.TempDir()
	b := &Backend{}
	p := pathvfs.New(pathvfs.SchemeLocal, "", dir)

	it, err := b.Iterdir(context.Background(), p)
	require.NoError(t, err)
	_, ok, err := it.Next()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestStatAndBulkIterdir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	b := &Backend{}
	p := pathvfs.New(pathvfs.SchemeLocal, "", dir)
	it, err := b.Iterdir(context.Background(), p)
	require.NoError(t, err)

	var names []string
	for {
		e, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"a.txt", "sub"}, names)
}

func TestRenameCrossDirectoryCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	b := &Backend{}
	srcPath := pathvfs.New(pathvfs.SchemeLocal, "", src)
	destPath := pathvfs.New(pathvfs.SchemeLocal, "", filepath.Join(dir, "nested", "b.txt"))

	require.NoError(t, b.Rename(context.Background(), srcPath, destPath))
	_, err := os.Stat(destPath.Key())
	assert.NoError(t, err)
}

func TestUnlinkNotFound(t *testing.T) {
	b := &Backend{}
	p := pathvfs.New(pathvfs.SchemeLocal, "", filepath.Join(t.TempDir(), "missing"))
	err := b.Unlink(context.Background(), p)
	assert.Error(t, err)
}
