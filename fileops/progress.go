// Package fileops implements the copy/move/delete operations from spec
// §4.4: cross-storage transfers through the Path facade, progress
// reporting, overwrite-conflict handling, and retry on transient
// network errors. Grounded on the accounting.Account/Stats shape (one
// named in-progress entry per transfer, bytes counted as they flow
// through io.Copy) without rclone's bandwidth-limiting machinery, which
// is out of scope.
package fileops

import (
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Progress is a snapshot of one in-flight or finished transfer. ID is a
// fresh unique identifier assigned by each Start call; ProgressManager
// itself keys entries by Name, so it holds at most one entry per name.
type Progress struct {
	ID         string
	Name       string
	Bytes      int64
	TotalBytes int64 // -1 if unknown
	Done       bool
	Err        error
	StartedAt  time.Time
}

// ProgressManager tracks every active transfer by name so the UI layer
// can poll Snapshot() on its render tick (spec §4.4, §5).
type ProgressManager struct {
	mu      sync.Mutex
	entries map[string]*Progress
}

func NewProgressManager() *ProgressManager {
	return &ProgressManager{entries: make(map[string]*Progress)}
}

// Start registers a new transfer under name, replacing any existing
// entry of the same name (finished or not), and assigns it a fresh ID.
func (m *ProgressManager) Start(name string, total int64) *Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Progress{ID: uuid.NewString(), Name: name, TotalBytes: total, StartedAt: time.Now()}
	m.entries[name] = p
	return p
}

// Add increments the byte counter for name's transfer, if still tracked.
func (m *ProgressManager) Add(name string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.entries[name]; ok {
		p.Bytes += n
	}
}

// Finish marks name's transfer complete, recording err (nil on success).
func (m *ProgressManager) Finish(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.entries[name]; ok {
		p.Done = true
		p.Err = err
	}
}

// Snapshot returns a copy of every tracked transfer, for safe read-only
// access from the UI thread.
func (m *ProgressManager) Snapshot() []Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Progress, 0, len(m.entries))
	for _, p := range m.entries {
		out = append(out, *p)
	}
	return out
}

// Clear drops every finished entry, keeping in-progress ones.
func (m *ProgressManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, p := range m.entries {
		if p.Done {
			delete(m.entries, name)
		}
	}
}

// countingWriter wraps an io.Writer (via Write) to report bytes written
// to a ProgressManager as they flow through io.Copy.
type countingWriter struct {
	w    io.Writer
	pm   *ProgressManager
	name string
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.pm.Add(c.name, int64(n))
	}
	return n, err
}
