package archive

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimomut/tfm/pathvfs"
	_ "github.com/shimomut/tfm/pathvfs/localbackend"
	"github.com/shimomut/tfm/tfmerr"
)

func localPath(p string) pathvfs.Path {
	return pathvfs.New(pathvfs.SchemeLocal, "", p)
}

func TestLookupPrefersLongestExtension(t *testing.T) {
	codec, ext, ok := Lookup("backup.tar.gz")
	require.True(t, ok)
	assert.Equal(t, "tar.gz", ext)
	assert.Contains(t, codec.Extensions(), "tar.gz")
}

func TestLookupUnknownExtension(t *testing.T) {
	_, _, ok := Lookup("file.rar")
	assert.False(t, ok)
}

func TestIsPathTraversal(t *testing.T) {
	assert.True(t, IsPathTraversal("../etc/passwd"))
	assert.True(t, IsPathTraversal("a/../../b"))
	assert.True(t, IsPathTraversal("/etc/passwd"))
	assert.False(t, IsPathTraversal("a/b/c.txt"))
}

func TestZipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	codec, _, ok := Lookup("x.zip")
	require.True(t, ok)

	w, err := codec.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(Header{Name: "hello.txt", Size: 5}))
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := codec.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	h, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", h.Name)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestTarGzRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	codec, _, ok := Lookup("x.tar.gz")
	require.True(t, ok)

	w, err := codec.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(Header{Name: "a.txt", Size: 3}))
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := codec.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	h, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "a.txt", h.Name)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(content))
}

func TestTarBz2WriteUnsupported(t *testing.T) {
	codec, _, ok := Lookup("x.tar.bz2")
	require.True(t, ok)
	_, err := codec.NewWriter(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestCreateAndExtractArchiveThroughPathvfs(t *testing.T) {
	dir := t.TempDir()
	srcDir := filepath.Join(dir, "srcdir")
	require.NoError(t, os.MkdirAll(filepath.Join(srcDir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "a.txt"), []byte("A"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "nested", "b.txt"), []byte("B"), 0o644))

	archivePath := localPath(filepath.Join(dir, "out.zip"))
	ctx := context.Background()
	err := CreateArchive(ctx, archivePath, localPath(dir), []pathvfs.Path{localPath(srcDir)})
	require.NoError(t, err)

	destDir := filepath.Join(dir, "extracted")
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	require.NoError(t, ExtractArchive(ctx, archivePath, localPath(destDir)))

	// ExtractArchive creates a new directory named after the archive's
	// stem ("out.zip" -> "out") rather than spilling entries directly
	// into destDir.
	got, err := os.ReadFile(filepath.Join(destDir, "out", "srcdir", "nested", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(got))
}

func TestExtractArchivePathTraversalRemovesStemDir(t *testing.T) {
	dir := t.TempDir()
	archivePath := localPath(filepath.Join(dir, "evil.zip"))

	var buf bytes.Buffer
	codec, _, ok := Lookup("evil.zip")
	require.True(t, ok)
	w, err := codec.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(Header{Name: "safe.txt", Size: 2}))
	_, err = w.Write([]byte("ok"))
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(Header{Name: "../../etc/passwd", Size: 0}))
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evil.zip"), buf.Bytes(), 0o644))

	destDir := filepath.Join(dir, "extracted")
	require.NoError(t, os.MkdirAll(destDir, 0o755))

	ctx := context.Background()
	err = ExtractArchive(ctx, archivePath, localPath(destDir))
	require.Error(t, err)
	assert.Equal(t, tfmerr.BadFormat, tfmerr.KindOf(err))

	_, statErr := os.Stat(filepath.Join(destDir, "evil"))
	assert.True(t, os.IsNotExist(statErr), "partially-extracted stem directory should be removed on failure")
}
