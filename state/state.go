// Package state implements the StateManager from spec §4.11: atomic
// JSON read/write of a versioned snapshot (window geometry, per-pane
// path+cursor, cursor history, preferences). Writes are debounced and
// atomic (write-temp-then-rename); cursor history is bounded.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

// CurrentVersion is the schema version this package writes, and the
// version Load assigns to a snapshot that has none.
const CurrentVersion = 1

// MaxHistoryEntries bounds each pane's cursor-history log.
const MaxHistoryEntries = 200

const debounceInterval = time.Second

// HistoryEntry is the (timestamp, dir, last_cursor_name) triple from
// spec §4.7, wire-encoded as the 3-element JSON array spec §6 specifies
// (`"history":[[ts,dir,name],...]`) via MarshalJSON/UnmarshalJSON below.
type HistoryEntry struct {
	Timestamp      int64
	Dir            string
	LastCursorName string
}

// MarshalJSON encodes the entry as the [ts, dir, name] array spec §6
// requires, not an object.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]interface{}{h.Timestamp, h.Dir, h.LastCursorName})
}

// UnmarshalJSON decodes a single [ts, dir, name] array entry.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var triple [3]interface{}
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	ts, _ := triple[0].(float64)
	dir, _ := triple[1].(string)
	name, _ := triple[2].(string)
	h.Timestamp = int64(ts)
	h.Dir = dir
	h.LastCursorName = name
	return nil
}

// PaneState is one pane's persisted slice of StateSnapshot.
type PaneState struct {
	Path    string
	Cursor  int
	Scroll  int
	History []HistoryEntry
}

// paneStateWire is PaneState's on-disk shape, kept separate so
// UnmarshalJSON can inspect History's raw form before committing to a
// shape.
type paneStateWire struct {
	Path    string          `json:"path"`
	Cursor  int             `json:"cursor"`
	Scroll  int             `json:"scroll"`
	History json.RawMessage `json:"history"`
}

// MarshalJSON writes the spec §6 shape: history as a list of
// HistoryEntry triples.
func (p PaneState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Path    string         `json:"path"`
		Cursor  int            `json:"cursor"`
		Scroll  int            `json:"scroll"`
		History []HistoryEntry `json:"history"`
	}{p.Path, p.Cursor, p.Scroll, p.History})
}

// UnmarshalJSON accepts the spec §6 list-of-triples history shape and
// tolerates the source's legacy dict-of-dir-to-name shape (spec §9 Open
// Question), migrating the latter once into the triple form with an
// unknown (zero) timestamp.
func (p *PaneState) UnmarshalJSON(data []byte) error {
	var wire paneStateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	p.Path = wire.Path
	p.Cursor = wire.Cursor
	p.Scroll = wire.Scroll
	p.History = nil

	if len(wire.History) == 0 || string(wire.History) == "null" {
		return nil
	}

	var triples []HistoryEntry
	if err := json.Unmarshal(wire.History, &triples); err == nil {
		p.History = triples
		return nil
	}

	var dict map[string]string
	if err := json.Unmarshal(wire.History, &dict); err != nil {
		return fmt.Errorf("state: history is neither a list of triples nor a dir->name map: %w", err)
	}
	dirs := make([]string, 0, len(dict))
	for dir := range dict {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		p.History = append(p.History, HistoryEntry{Dir: dir, LastCursorName: dict[dir]})
	}
	return nil
}

type Window struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Width     int  `json:"width"`
	Height    int  `json:"height"`
	Maximized bool `json:"maximized"`
}

type Preferences struct {
	ShowHidden  bool   `json:"show_hidden"`
	SortBy      string `json:"sort_by"`
	ColorScheme string `json:"color_scheme"`
}

// Snapshot is the versioned JSON schema from spec §6.
type Snapshot struct {
	Version     int                  `json:"version"`
	Window      Window               `json:"window"`
	Panes       map[string]PaneState `json:"panes"`
	Preferences Preferences          `json:"preferences"`
}

func defaultSnapshot() Snapshot {
	return Snapshot{
		Version: CurrentVersion,
		Panes: map[string]PaneState{
			"left":  {Path: "."},
			"right": {Path: "."},
		},
		Preferences: Preferences{SortBy: "name"},
	}
}

// Manager owns one Snapshot file, debouncing writes and guaranteeing no
// reader ever observes a partially-written file.
type Manager struct {
	path string

	mu       sync.Mutex
	snapshot Snapshot
	dirty    bool
	timer    *time.Timer
}

// DefaultPath resolves ~/.tfm/state.json.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tfm", "state.json"), nil
}

// Load reads path, filling defaults for missing fields. A missing or
// zero version is set to CurrentVersion; any other version value is kept
// as read and is not checked. If the file is missing, a fresh default
// Snapshot is used. If parsing fails, the corrupt file is backed up
// (suffix ".corrupt-<UTC time as 20060102T150405>") and defaults are used
// instead (spec §4.11).
func Load(path string) (*Manager, error) {
	m := &Manager{path: path, snapshot: defaultSnapshot()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		backupPath := path + ".corrupt-" + time.Now().UTC().Format("20060102T150405")
		_ = os.Rename(path, backupPath)
		return m, nil
	}

	m.snapshot = fillDefaults(snap)
	return m, nil
}

func fillDefaults(snap Snapshot) Snapshot {
	if snap.Version < 1 {
		snap.Version = CurrentVersion
	}
	if snap.Panes == nil {
		snap.Panes = map[string]PaneState{}
	}
	for _, side := range []string{"left", "right"} {
		p, ok := snap.Panes[side]
		if !ok {
			p = PaneState{Path: "."}
		}
		if p.Path == "" {
			p.Path = "."
		}
		if len(p.History) > MaxHistoryEntries {
			p.History = p.History[len(p.History)-MaxHistoryEntries:]
		}
		snap.Panes[side] = p
	}
	if snap.Preferences.SortBy == "" {
		snap.Preferences.SortBy = "name"
	}
	return snap
}

// Snapshot returns a copy of the current in-memory snapshot.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// Update replaces the in-memory snapshot via mutate and schedules a
// debounced write (1 s after the last change, spec §4.11).
func (m *Manager) Update(mutate func(*Snapshot)) {
	m.mu.Lock()
	mutate(&m.snapshot)
	m.scheduleWriteLocked()
	m.mu.Unlock()
}

// RecordCursor appends a bounded cursor-history entry for side's pane.
func (m *Manager) RecordCursor(side string, ts time.Time, dir, cursorName string) {
	m.Update(func(s *Snapshot) {
		p := s.Panes[side]
		p.History = append(p.History, HistoryEntry{Timestamp: ts.Unix(), Dir: dir, LastCursorName: cursorName})
		if len(p.History) > MaxHistoryEntries {
			p.History = p.History[len(p.History)-MaxHistoryEntries:]
		}
		s.Panes[side] = p
	})
}

func (m *Manager) scheduleWriteLocked() {
	m.dirty = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(debounceInterval, func() {
		_ = m.Flush()
	})
}

// Flush writes the current snapshot immediately, atomically
// (write-temp-then-rename).
func (m *Manager) Flush() error {
	m.mu.Lock()
	if !m.dirty {
		m.mu.Unlock()
		return nil
	}
	snap := m.snapshot
	m.dirty = false
	m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, m.path)
}
