package archive

import (
	"context"
	"io"
	"strings"

	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/tfmerr"
)

// CreateArchive writes an archive at dest containing every path in
// sources, with entry names relative to baseDir (so archiving
// "/a/b/c.txt" with baseDir "/a" produces the entry "b/c.txt"). The
// codec is chosen from dest's name via Lookup.
func CreateArchive(ctx context.Context, dest pathvfs.Path, baseDir pathvfs.Path, sources []pathvfs.Path) error {
	codec, _, ok := Lookup(dest.Name())
	if !ok {
		return tfmerr.New(tfmerr.Unsupported, "create_archive", dest.Render(), nil)
	}

	_, w, err := dest.Open(ctx, pathvfs.WriteBinary)
	if err != nil {
		return err
	}
	aw, err := codec.NewWriter(w)
	if err != nil {
		_ = w.Close()
		return err
	}

	for _, src := range sources {
		if err := addToArchive(ctx, aw, src, baseDir); err != nil {
			_ = aw.Close()
			_ = w.Close()
			return err
		}
	}

	if err := aw.Close(); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func addToArchive(ctx context.Context, aw Writer, src, baseDir pathvfs.Path) error {
	if err := ctx.Err(); err != nil {
		return tfmerr.New(tfmerr.Cancelled, "create_archive", src.Render(), err)
	}

	entry, err := src.Stat(ctx)
	if err != nil {
		return err
	}
	name := relativeEntryName(baseDir, src)

	if entry.IsDir {
		if err := aw.WriteHeader(Header{Name: name, IsDir: true, ModTime: entry.MTime, Mode: entry.Mode}); err != nil {
			return err
		}
		it, err := src.Iterdir(ctx)
		if err != nil {
			return err
		}
		for {
			child, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			if err := addToArchive(ctx, aw, src.Join(child.Name), baseDir); err != nil {
				return err
			}
		}
		return nil
	}

	if err := aw.WriteHeader(Header{Name: name, Size: entry.Size, ModTime: entry.MTime, Mode: entry.Mode}); err != nil {
		return err
	}
	r, _, err := src.Open(ctx, pathvfs.ReadBinary)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(aw, r)
	return err
}

func relativeEntryName(baseDir, p pathvfs.Path) string {
	base := baseDir.Render()
	full := p.Render()
	rel := strings.TrimPrefix(full, base)
	return strings.TrimPrefix(rel, "/")
}

// ExtractArchive reads the archive at src (codec chosen by Lookup on
// src's name) and writes every entry into a new directory under destDir
// named after the archive's stem (spec §4.5: "extract into a new
// directory whose name is the archive's stem"). Entries whose name
// would escape that directory (absolute paths or ".." segments) are
// rejected with tfmerr.BadFormat rather than written, guarding against
// zip-slip. On any failure the partially-extracted stem directory is
// removed (spec §4.5, §8 scenario 5); the source archive is untouched.
func ExtractArchive(ctx context.Context, src pathvfs.Path, destDir pathvfs.Path) error {
	codec, ext, ok := Lookup(src.Name())
	if !ok {
		return tfmerr.New(tfmerr.Unsupported, "extract_archive", src.Render(), nil)
	}
	stem := strings.TrimSuffix(src.Name(), "."+ext)
	root := destDir.Join(stem)

	if err := root.Mkdir(ctx, true, true); err != nil {
		return err
	}
	if err := extractInto(ctx, src, codec, root); err != nil {
		_ = removeAll(ctx, root)
		return err
	}
	return nil
}

func extractInto(ctx context.Context, src pathvfs.Path, codec Codec, root pathvfs.Path) error {
	r, _, err := src.Open(ctx, pathvfs.ReadBinary)
	if err != nil {
		return err
	}
	defer r.Close()

	ar, err := codec.NewReader(r)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return tfmerr.New(tfmerr.Cancelled, "extract_archive", src.Render(), err)
		}
		h, err := ar.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if IsPathTraversal(h.Name) {
			return tfmerr.New(tfmerr.BadFormat, "extract_archive", h.Name, nil)
		}

		dest := root.Join(h.Name)
		if h.IsDir {
			if err := dest.Mkdir(ctx, true, true); err != nil {
				return err
			}
			continue
		}

		if err := dest.Parent().Mkdir(ctx, true, true); err != nil {
			return err
		}
		_, w, err := dest.Open(ctx, pathvfs.WriteBinary)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, ar); err != nil {
			_ = w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}
}

// removeAll recursively deletes p depth-first, unwinding a
// partially-extracted archive directory on failure. Best-effort: it
// does not bail out on ctx cancellation, since cleanup should still run
// when the caller's context is the reason extraction stopped.
func removeAll(ctx context.Context, p pathvfs.Path) error {
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
		if err := removeAll(ctx, p.Join(entry.Name)); err != nil {
			return err
		}
	}
	return p.Rmdir(ctx)
}
