// Package filelist implements the FileListManager (spec §4.3): given a
// Path directory and a filter/sort configuration, produce a
// deterministic FileEntry sequence. Results are meant to be cached by
// the owning PaneState and refreshed on explicit invalidation or a
// file-operation completion event.
package filelist

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shimomut/tfm/pathvfs"
)

// SortKey selects the primary ordering.
type SortKey int

const (
	SortByName SortKey = iota
	SortBySize
	SortByMTime
	SortByType // directories first, then files
)

// Config controls one List call.
type Config struct {
	SortKey     SortKey
	Reverse     bool
	GlobPattern string // fnmatch-style; empty means no filtering
	ShowHidden  bool
}

// List reads dir via the Path facade and returns a sorted, filtered
// slice of FileEntry. Tie-break is always case-insensitive name
// ascending, regardless of SortKey (spec §4.3).
func List(ctx context.Context, dir pathvfs.Path, cfg Config) ([]pathvfs.FileEntry, error) {
	it, err := dir.Iterdir(ctx)
	if err != nil {
		return nil, err
	}

	var entries []pathvfs.FileEntry
	for {
		e, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if !cfg.ShowHidden && isHidden(e.Name) {
			continue
		}
		if cfg.GlobPattern != "" {
			matched, err := filepath.Match(cfg.GlobPattern, e.Name)
			if err != nil || !matched {
				continue
			}
		}
		entries = append(entries, e)
	}

	sortEntries(entries, cfg)
	return entries, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// primaryCompare reports -1/0/+1 for the configured sort key only, with
// no tie-break, so Reverse can flip just this part of the ordering while
// the name tie-break always stays ascending (spec §4.3).
func primaryCompare(a, b pathvfs.FileEntry, key SortKey) int {
	switch key {
	case SortBySize:
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
	case SortByMTime:
		switch {
		case a.MTime.Before(b.MTime):
			return -1
		case a.MTime.After(b.MTime):
			return 1
		}
	case SortByType:
		switch {
		case a.IsDir && !b.IsDir:
			return -1
		case !a.IsDir && b.IsDir:
			return 1
		}
	}
	return 0
}

func sortEntries(entries []pathvfs.FileEntry, cfg Config) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		c := primaryCompare(a, b, cfg.SortKey)
		if cfg.Reverse {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return nameLess(a.Name, b.Name)
	})
}

// nameLess implements the mandatory case-insensitive, locale-agnostic
// tie-break (spec §4.3): compare byte-wise after strings.ToLower
// (Unicode lower-casing), so behavior never depends on the host's locale
// tables.
func nameLess(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
