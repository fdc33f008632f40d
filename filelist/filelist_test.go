package filelist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shimomut/tfm/pathvfs"
)

func TestSortByNameCaseInsensitiveTieBreak(t *testing.T) {
	entries := []pathvfs.FileEntry{
		{Name: "banana"},
		{Name: "Apple"},
		{Name: "cherry"},
	}
	sortEntries(entries, Config{SortKey: SortByName})
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, names(entries))
}

func TestSortByTypeDirsFirst(t *testing.T) {
	entries := []pathvfs.FileEntry{
		{Name: "b.txt", IsDir: false},
		{Name: "a_dir", IsDir: true},
	}
	sortEntries(entries, Config{SortKey: SortByType})
	assert.Equal(t, []string{"a_dir", "b.txt"}, names(entries))
}

func TestReverseFlipsPrimaryNotTieBreak(t *testing.T) {
	now := time.Now()
	entries := []pathvfs.FileEntry{
		{Name: "old.txt", MTime: now.Add(-time.Hour)},
		{Name: "new.txt", MTime: now},
		{Name: "same_a", MTime: now.Add(time.Minute)},
		{Name: "same_b", MTime: now.Add(time.Minute)},
	}
	sortEntries(entries, Config{SortKey: SortByMTime, Reverse: true})
	// newest first (reversed), but the two equal-mtime entries still
	// tie-break ascending by name, not reversed.
	assert.Equal(t, []string{"same_a", "same_b", "new.txt", "old.txt"}, names(entries))
}

func TestHiddenFilePredicate(t *testing.T) {
	// dot-prefixed names are hidden; "." and ".." are not.
	assert.True(t, isHidden(".git"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
	assert.False(t, isHidden("visible"))
}

func names(entries []pathvfs.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
