package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	snap := m.Snapshot()
	assert.Equal(t, CurrentVersion, snap.Version)
	assert.Equal(t, ".", snap.Panes["left"].Path)
	assert.Equal(t, ".", snap.Panes["right"].Path)
	assert.Equal(t, "name", snap.Preferences.SortBy)
}

func TestLoadCorruptFileBacksUpAndContinues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, m.Snapshot().Version)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "corrupt file should be moved aside")

	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestFlushWritesAtomicallyAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	m, err := Load(path)
	require.NoError(t, err)

	m.Update(func(s *Snapshot) {
		p := s.Panes["left"]
		p.Path = "/tmp/foo"
		p.Cursor = 3
		s.Panes["left"] = p
	})

	require.NoError(t, m.Flush())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not remain after rename")

	m2, err := Load(path)
	require.NoError(t, err)
	snap := m2.Snapshot()
	assert.Equal(t, "/tmp/foo", snap.Panes["left"].Path)
	assert.Equal(t, 3, snap.Panes["left"].Cursor)
}

func TestFlushIsNoopWhenNotDirty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	m, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, m.Flush())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "Flush with nothing dirty should not create a file")
}

func TestRecordCursorAppendsAndCapsHistory(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	base := time.Unix(1700000000, 0)
	for i := 0; i < MaxHistoryEntries+10; i++ {
		m.RecordCursor("left", base.Add(time.Duration(i)*time.Second), "/some/dir", "file.txt")
	}

	history := m.Snapshot().Panes["left"].History
	assert.Len(t, history, MaxHistoryEntries)
	assert.Equal(t, "/some/dir", history[len(history)-1].Dir)
}

func TestFillDefaultsFillsMissingPanesAndSortBy(t *testing.T) {
	snap := Snapshot{Version: 1}
	filled := fillDefaults(snap)
	assert.Equal(t, ".", filled.Panes["left"].Path)
	assert.Equal(t, ".", filled.Panes["right"].Path)
	assert.Equal(t, "name", filled.Preferences.SortBy)
}

func TestWindowMarshalsWithLowercaseSchemaKeys(t *testing.T) {
	data, err := json.Marshal(Window{X: 1, Y: 2, Width: 3, Height: 4, Maximized: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1,"y":2,"width":3,"height":4,"maximized":true}`, string(data))
}

func TestHistoryEntryMarshalsAsTripleArray(t *testing.T) {
	data, err := json.Marshal(HistoryEntry{Timestamp: 1700000000, Dir: "/a", LastCursorName: "f.txt"})
	require.NoError(t, err)
	assert.JSONEq(t, `[1700000000,"/a","f.txt"]`, string(data))

	var back HistoryEntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, int64(1700000000), back.Timestamp)
	assert.Equal(t, "/a", back.Dir)
	assert.Equal(t, "f.txt", back.LastCursorName)
}

func TestPaneStateHistoryRoundTripsAsListOfTriples(t *testing.T) {
	p := PaneState{Path: "/x", History: []HistoryEntry{{Timestamp: 1, Dir: "/a", LastCursorName: "a.txt"}}}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"/x","cursor":0,"scroll":0,"history":[[1,"/a","a.txt"]]}`, string(data))

	var back PaneState
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p.History, back.History)
}

func TestPaneStateMigratesLegacyDictHistory(t *testing.T) {
	raw := []byte(`{"path":"/x","cursor":0,"scroll":0,"history":{"/a":"a.txt","/b":"b.txt"}}`)
	var p PaneState
	require.NoError(t, json.Unmarshal(raw, &p))

	require.Len(t, p.History, 2)
	assert.Equal(t, "/a", p.History[0].Dir)
	assert.Equal(t, "a.txt", p.History[0].LastCursorName)
	assert.Equal(t, "/b", p.History[1].Dir)
	assert.Equal(t, "b.txt", p.History[1].LastCursorName)
}

func TestLoadRoundTripsTripleArrayHistoryOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	m, err := Load(path)
	require.NoError(t, err)
	m.RecordCursor("left", time.Unix(1700000000, 0), "/a/b", "c.txt")
	require.NoError(t, m.Flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &onDisk))
	leftHistory := onDisk["panes"].(map[string]interface{})["left"].(map[string]interface{})["history"].([]interface{})
	require.Len(t, leftHistory, 1)
	entry := leftHistory[0].([]interface{})
	assert.Equal(t, float64(1700000000), entry[0])
	assert.Equal(t, "/a/b", entry[1])
	assert.Equal(t, "c.txt", entry[2])

	m2, err := Load(path)
	require.NoError(t, err)
	history := m2.Snapshot().Panes["left"].History
	require.Len(t, history, 1)
	assert.Equal(t, "/a/b", history[0].Dir)
	assert.Equal(t, "c.txt", history[0].LastCursorName)
}
