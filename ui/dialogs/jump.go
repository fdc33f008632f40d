package dialogs

import (
	"context"

	"github.com/shimomut/tfm/pathvfs"
)

// ScanDirectories walks root depth-first collecting every directory
// path beneath it (including root), for the jump dialog's item list
// (spec §4.8 "scans directories under a root, supports filtering" — the
// filtering itself is List's embedded search field).
func ScanDirectories(ctx context.Context, root pathvfs.Path) ([]pathvfs.Path, error) {
	var out []pathvfs.Path
	if err := scanDirectoriesInto(ctx, root, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func scanDirectoriesInto(ctx context.Context, dir pathvfs.Path, out *[]pathvfs.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	*out = append(*out, dir)

	it, err := dir.Iterdir(ctx)
	if err != nil {
		return err
	}
	for {
		entry, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if entry.IsDir {
			if err := scanDirectoriesInto(ctx, dir.Join(entry.Name), out); err != nil {
				return err
			}
		}
	}
}

// NewJump builds the jump dialog: a List dialog over every directory
// found beneath root.
func NewJump(ctx context.Context, root pathvfs.Path, onChoose func(pathvfs.Path), onCancel func()) (*List, error) {
	dirs, err := ScanDirectories(ctx, root)
	if err != nil {
		return nil, err
	}
	items := make([]Item, len(dirs))
	for i, d := range dirs {
		items[i] = Item{Label: d.Render(), Value: d}
	}
	return NewList(items, func(item Item) {
		if onChoose != nil {
			onChoose(item.Value.(pathvfs.Path))
		}
	}, onCancel), nil
}
