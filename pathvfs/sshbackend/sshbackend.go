// Package sshbackend provides the SSH/SFTP PathImpl backend (spec
// §4.1). Authority is the host alias; sshconn owns the actual
// control-master connection singleton, this package owns the per-host
// TTL cache and translates sftp.Client errors into the shared taxonomy.
package sshbackend

import (
	"context"
	"io"
	"os"
	"sort"

	"github.com/pkg/sftp"

	"github.com/shimomut/tfm/pathcache"
	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/sshconn"
	"github.com/shimomut/tfm/tfmerr"
)

func init() {
	pathvfs.RegisterScheme(pathvfs.SchemeSSH, func(authority string) (pathvfs.Backend, error) {
		return New(authority)
	})
}

// Backend is the per-host-alias singleton.
type Backend struct {
	alias string
	conn  *sshconn.Conn
	cache *pathcache.Cache
}

func New(alias string) (*Backend, error) {
	conn, err := sshconn.Get(context.Background(), alias, nil)
	if err != nil {
		return nil, err
	}
	return &Backend{
		alias: alias,
		conn:  conn,
		cache: pathcache.New(alias, pathcache.DefaultTTL),
	}, nil
}

func wrapErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case os.IsNotExist(err), err == os.ErrNotExist:
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

func (b *Backend) statNetwork(path string) (pathvfs.FileEntry, error) {
	var entry pathvfs.FileEntry
	err := b.conn.WithClient(func(c *sftp.Client) error {
		fi, err := c.Stat(path)
		if err != nil {
			return err
		}
		entry = toEntry(fi)
		return nil
	})
	if err != nil {
		return pathvfs.FileEntry{}, wrapErr("stat", path, err)
	}
	return entry, nil
}

func (b *Backend) Stat(ctx context.Context, p pathvfs.Path) (pathvfs.FileEntry, error) {
	if entry, err, found := b.cache.GetStat(p.Key()); found {
		return entry, err
	}
	entry, err := b.statNetwork(p.Key())
	if tfmerr.KindOf(err) == tfmerr.NotFound || tfmerr.KindOf(err) == tfmerr.PermissionDenied {
		b.cache.PutStat(p.Key(), pathvfs.FileEntry{}, err)
		return entry, err
	}
	if err != nil {
		return entry, err
	}
	b.cache.PutStat(p.Key(), entry, nil)
	return entry, nil
}

func (b *Backend) Exists(ctx context.Context, p pathvfs.Path) (bool, error) {
	_, err := b.Stat(ctx, p)
	if err == nil {
		return true, nil
	}
	if tfmerr.KindOf(err) == tfmerr.NotFound {
		return false, nil
	}
	return false, err
}

func (b *Backend) IsDir(ctx context.Context, p pathvfs.Path) (bool, error) {
	e, err := b.Stat(ctx, p)
	if err != nil {
		if tfmerr.KindOf(err) == tfmerr.NotFound {
			return false, nil
		}
		return false, err
	}
	return e.IsDir, nil
}

func (b *Backend) IsFile(ctx context.Context, p pathvfs.Path) (bool, error) {
	e, err := b.Stat(ctx, p)
	if err != nil {
		if tfmerr.KindOf(err) == tfmerr.NotFound {
			return false, nil
		}
		return false, err
	}
	return !e.IsDir, nil
}

type dirIter struct {
	entries []pathvfs.FileEntry
	idx     int
}

func (d *dirIter) Next() (pathvfs.FileEntry, bool, error) {
	if d.idx >= len(d.entries) {
		return pathvfs.FileEntry{}, false, nil
	}
	e := d.entries[d.idx]
	d.idx++
	return e, true, nil
}

// Iterdir parses a directory listing into FileEntries and, as the
// bulk-stat optimization, populates per-file stat cache entries in the
// same pass (spec §4.1, §4.2): opening a directory with N entries
// performs exactly one network call, and the following N stat calls
// perform zero (spec §8).
func (b *Backend) Iterdir(ctx context.Context, p pathvfs.Path) (pathvfs.DirIter, error) {
	if entries, err, found := b.cache.GetListDir(p.Key()); found {
		if err != nil {
			return nil, err
		}
		return &dirIter{entries: entries}, nil
	}

	var infos []os.FileInfo
	err := b.conn.WithClient(func(c *sftp.Client) error {
		var err error
		infos, err = c.ReadDir(p.Key())
		return err
	})
	if err != nil {
		werr := wrapErr("iterdir", p.Key(), err)
		if tfmerr.KindOf(werr) == tfmerr.NotFound {
			b.cache.PutListDir(p.Key(), nil, werr)
		}
		return nil, werr
	}

	entries := make([]pathvfs.FileEntry, 0, len(infos))
	for _, fi := range infos {
		entries = append(entries, toEntry(fi))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	b.cache.PutListDir(p.Key(), entries, nil)
	return &dirIter{entries: entries}, nil
}

func (b *Backend) OpenRead(ctx context.Context, p pathvfs.Path) (io.ReadCloser, error) {
	var f *sftp.File
	err := b.conn.WithClient(func(c *sftp.Client) error {
		var err error
		f, err = c.Open(p.Key())
		return err
	})
	if err != nil {
		return nil, wrapErr("open", p.Key(), err)
	}
	return f, nil
}

func (b *Backend) OpenWrite(ctx context.Context, p pathvfs.Path) (io.WriteCloser, error) {
	var f *sftp.File
	err := b.conn.WithClient(func(c *sftp.Client) error {
		var err error
		f, err = c.Create(p.Key())
		return err
	})
	if err != nil {
		return nil, wrapErr("open", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return f, nil
}

func (b *Backend) Mkdir(ctx context.Context, p pathvfs.Path, parents, existOk bool) error {
	err := b.conn.WithClient(func(c *sftp.Client) error {
		if parents {
			return c.MkdirAll(p.Key())
		}
		return c.Mkdir(p.Key())
	})
	if err != nil {
		if os.IsExist(err) && existOk {
			return nil
		}
		return wrapErr("mkdir", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return nil
}

func (b *Backend) Unlink(ctx context.Context, p pathvfs.Path) error {
	err := b.conn.WithClient(func(c *sftp.Client) error {
		return c.Remove(p.Key())
	})
	if err != nil {
		return wrapErr("unlink", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return nil
}

func (b *Backend) Rmdir(ctx context.Context, p pathvfs.Path) error {
	err := b.conn.WithClient(func(c *sftp.Client) error {
		return c.RemoveDirectory(p.Key())
	})
	if err != nil {
		return wrapErr("rmdir", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	return nil
}

func (b *Backend) Rename(ctx context.Context, p pathvfs.Path, dest pathvfs.Path) error {
	err := b.conn.WithClient(func(c *sftp.Client) error {
		return c.Rename(p.Key(), dest.Key())
	})
	if err != nil {
		return wrapErr("rename", p.Key(), err)
	}
	b.cache.Invalidate(p.Parent().Key())
	b.cache.Invalidate(dest.Parent().Key())
	return nil
}

func (b *Backend) Close() error {
	return b.conn.Close()
}

var _ pathvfs.Backend = (*Backend)(nil)
