// Package localbackend provides the Local PathImpl backend: direct OS
// calls, no cache (local stat/readdir is cheap enough that the spec's
// cache subsystem applies only to S3 and SSH). Rename within the same
// filesystem is atomic via os.Rename (spec §4.1).
package localbackend

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/tfmerr"
)

func init() {
	pathvfs.RegisterScheme(pathvfs.SchemeLocal, func(authority string) (pathvfs.Backend, error) {
		return &Backend{}, nil
	})
}

// Backend is the singleton local-disk backend. Authority is always empty
// for local paths, so there is exactly one instance for the whole process.
type Backend struct{}

func wrapErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err):
		return tfmerr.New(tfmerr.NotFound, op, path, err)
	case os.IsExist(err):
		return tfmerr.New(tfmerr.AlreadyExists, op, path, err)
	case os.IsPermission(err):
		return tfmerr.New(tfmerr.PermissionDenied, op, path, err)
	default:
		return tfmerr.New(tfmerr.IO, op, path, err)
	}
}

func toEntry(fi os.FileInfo) pathvfs.FileEntry {
	hint := pathvfs.TypePlain
	if fi.Mode()&os.ModeSymlink != 0 {
		hint = pathvfs.TypeSymlink
	}
	return pathvfs.FileEntry{
		Name:  fi.Name(),
		IsDir: fi.IsDir(),
		Size:  fi.Size(),
		MTime: fi.ModTime(),
		Mode:  uint32(fi.Mode().Perm()),
		Hint:  hint,
	}
}

func (b *Backend) stat(path pathvfs.Path) (os.FileInfo, error) {
	return os.Stat(path.Key())
}

func (b *Backend) Exists(ctx context.Context, p pathvfs.Path) (bool, error) {
	_, err := b.stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, wrapErr("exists", p.Render(), err)
}

func (b *Backend) IsDir(ctx context.Context, p pathvfs.Path) (bool, error) {
	fi, err := b.stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrapErr("is_dir", p.Render(), err)
	}
	return fi.IsDir(), nil
}

func (b *Backend) IsFile(ctx context.Context, p pathvfs.Path) (bool, error) {
	fi, err := b.stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrapErr("is_file", p.Render(), err)
	}
	return !fi.IsDir(), nil
}

func (b *Backend) Stat(ctx context.Context, p pathvfs.Path) (pathvfs.FileEntry, error) {
	fi, err := b.stat(p)
	if err != nil {
		return pathvfs.FileEntry{}, wrapErr("stat", p.Render(), err)
	}
	return toEntry(fi), nil
}

type dirIter struct {
	entries []os.DirEntry
	idx     int
}

func (d *dirIter) Next() (pathvfs.FileEntry, bool, error) {
	if d.idx >= len(d.entries) {
		return pathvfs.FileEntry{}, false, nil
	}
	de := d.entries[d.idx]
	d.idx++
	fi, err := de.Info()
	if err != nil {
		return pathvfs.FileEntry{}, false, wrapErr("iterdir", de.Name(), err)
	}
	return toEntry(fi), true, nil
}

func (b *Backend) Iterdir(ctx context.Context, p pathvfs.Path) (pathvfs.DirIter, error) {
	entries, err := os.ReadDir(p.Key())
	if err != nil {
		return nil, wrapErr("iterdir", p.Render(), err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return &dirIter{entries: entries}, nil
}

func (b *Backend) OpenRead(ctx context.Context, p pathvfs.Path) (io.ReadCloser, error) {
	f, err := os.Open(p.Key())
	if err != nil {
		return nil, wrapErr("open", p.Render(), err)
	}
	return f, nil
}

func (b *Backend) OpenWrite(ctx context.Context, p pathvfs.Path) (io.WriteCloser, error) {
	f, err := os.OpenFile(p.Key(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, wrapErr("open", p.Render(), err)
	}
	return f, nil
}

func (b *Backend) Mkdir(ctx context.Context, p pathvfs.Path, parents, existOk bool) error {
	var err error
	if parents {
		err = os.MkdirAll(p.Key(), 0o755)
	} else {
		err = os.Mkdir(p.Key(), 0o755)
	}
	if err != nil {
		if os.IsExist(err) && existOk {
			return nil
		}
		return wrapErr("mkdir", p.Render(), err)
	}
	return nil
}

func (b *Backend) Unlink(ctx context.Context, p pathvfs.Path) error {
	if err := os.Remove(p.Key()); err != nil {
		return wrapErr("unlink", p.Render(), err)
	}
	return nil
}

func (b *Backend) Rmdir(ctx context.Context, p pathvfs.Path) error {
	if err := os.Remove(p.Key()); err != nil {
		return wrapErr("rmdir", p.Render(), err)
	}
	return nil
}

func (b *Backend) Rename(ctx context.Context, p pathvfs.Path, dest pathvfs.Path) error {
	if err := os.MkdirAll(filepath.Dir(dest.Key()), 0o755); err != nil {
		return wrapErr("rename", dest.Render(), err)
	}
	if err := os.Rename(p.Key(), dest.Key()); err != nil {
		return wrapErr("rename", p.Render(), err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }

var _ pathvfs.Backend = (*Backend)(nil)
