package s3backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shimomut/tfm/pathvfs"
)

func TestDirPrefix(t *testing.T) {
	assert.Equal(t, "", dirPrefix(""))
	assert.Equal(t, "inbox/", dirPrefix("inbox"))
	assert.Equal(t, "inbox/", dirPrefix("inbox/"))
}

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "data.csv", lastSegment("inbox/data.csv"))
	assert.Equal(t, "inbox", lastSegment("inbox/"))
	assert.Equal(t, "data.csv", lastSegment("data.csv"))
}

func TestSortEntriesAscending(t *testing.T) {
	entries := []pathvfs.FileEntry{
		{Name: "cherry"},
		{Name: "apple"},
		{Name: "banana"},
	}
	sortEntries(entries)
	assert.Equal(t, "apple", entries[0].Name)
	assert.Equal(t, "banana", entries[1].Name)
	assert.Equal(t, "cherry", entries[2].Name)
}
