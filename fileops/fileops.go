package fileops

import (
	"context"
	"io"
	"time"

	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/tfmerr"
)

// Options controls conflict and retry behavior common to every
// operation in this package (spec §4.4).
type Options struct {
	// Overwrite allows Copy/Move to replace an existing destination
	// instead of failing with tfmerr.AlreadyExists.
	Overwrite bool
	// MaxRetries bounds retry attempts on tfmerr.NetworkTimeout. Zero
	// uses DefaultMaxRetries.
	MaxRetries int
}

// DefaultMaxRetries is the retry budget for a single file transfer that
// keeps failing with a network timeout (spec §4.4, §7).
const DefaultMaxRetries = 3

const retryBackoff = 200 * time.Millisecond

func (o Options) maxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return DefaultMaxRetries
}

// Copy copies src to dest, recursing into directories, reporting byte
// progress under src.Render() on pm (spec §4.4). A plain-file copy that
// fails with tfmerr.NetworkTimeout is retried up to opts.MaxRetries
// times with a short backoff; context cancellation aborts immediately
// with tfmerr.Cancelled.
func Copy(ctx context.Context, src, dest pathvfs.Path, pm *ProgressManager, opts Options) error {
	isDir, err := src.IsDir(ctx)
	if err != nil {
		return err
	}
	if isDir {
		return copyDir(ctx, src, dest, pm, opts)
	}
	return copyFile(ctx, src, dest, pm, opts)
}

func copyDir(ctx context.Context, src, dest pathvfs.Path, pm *ProgressManager, opts Options) error {
	if err := checkConflict(ctx, dest, opts); err != nil {
		return err
	}
	if err := dest.Mkdir(ctx, true, true); err != nil {
		return err
	}

	it, err := src.Iterdir(ctx)
	if err != nil {
		return err
	}
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return tfmerr.New(tfmerr.Cancelled, "copy", src.Render(), err)
		}
		childSrc := src.Join(entry.Name)
		childDest := dest.Join(entry.Name)
		if err := Copy(ctx, childSrc, childDest, pm, opts); err != nil {
			return err
		}
	}
	return nil
}

func checkConflict(ctx context.Context, dest pathvfs.Path, opts Options) error {
	if opts.Overwrite {
		return nil
	}
	exists, err := dest.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return tfmerr.New(tfmerr.AlreadyExists, "copy", dest.Render(), nil)
	}
	return nil
}

func copyFile(ctx context.Context, src, dest pathvfs.Path, pm *ProgressManager, opts Options) error {
	if err := checkConflict(ctx, dest, opts); err != nil {
		return err
	}

	total := int64(-1)
	if entry, err := src.Stat(ctx); err == nil {
		total = entry.Size
	}

	name := src.Render()
	var lastErr error
	for attempt := 0; attempt <= opts.maxRetries(); attempt++ {
		if err := ctx.Err(); err != nil {
			return tfmerr.New(tfmerr.Cancelled, "copy", name, err)
		}
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return tfmerr.New(tfmerr.Cancelled, "copy", name, ctx.Err())
			}
		}

		if pm != nil {
			pm.Start(name, total)
		}
		err := copyFileOnce(ctx, src, dest, pm, name)
		if pm != nil {
			pm.Finish(name, err)
		}
		if err == nil {
			return nil
		}
		lastErr = err
		if tfmerr.KindOf(err) != tfmerr.NetworkTimeout {
			return err
		}
	}
	return lastErr
}

func copyFileOnce(ctx context.Context, src, dest pathvfs.Path, pm *ProgressManager, name string) error {
	r, _, err := src.Open(ctx, pathvfs.ReadBinary)
	if err != nil {
		return err
	}
	defer r.Close()

	_, w, err := dest.Open(ctx, pathvfs.WriteBinary)
	if err != nil {
		return err
	}

	var dst io.Writer = w
	if pm != nil {
		dst = &countingWriter{w: w, pm: pm, name: name}
	}

	if _, err := io.Copy(dst, r); err != nil {
		_ = w.Close()
		_ = dest.Unlink(ctx)
		return err
	}
	return w.Close()
}

// Move relocates src to dest. When both share scheme and authority this
// is a single Rename call; otherwise (spec §4.4 cross-storage fallback)
// it copies then deletes the source.
func Move(ctx context.Context, src, dest pathvfs.Path, pm *ProgressManager, opts Options) error {
	if err := checkConflict(ctx, dest, opts); err != nil {
		return err
	}
	err := src.Rename(ctx, dest)
	if err == nil {
		return nil
	}
	if tfmerr.KindOf(err) != tfmerr.CrossStorage {
		return err
	}
	if err := Copy(ctx, src, dest, pm, opts); err != nil {
		return err
	}
	return Delete(ctx, src)
}

// Delete removes path, recursing into directories depth-first.
func Delete(ctx context.Context, p pathvfs.Path) error {
	isDir, err := p.IsDir(ctx)
	if err != nil {
		return err
	}
	if !isDir {
		return p.Unlink(ctx)
	}

	it, err := p.Iterdir(ctx)
	if err != nil {
		return err
	}
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return tfmerr.New(tfmerr.Cancelled, "delete", p.Render(), err)
		}
		if err := Delete(ctx, p.Join(entry.Name)); err != nil {
			return err
		}
	}
	return p.Rmdir(ctx)
}
