package dialogs

import (
	"context"
	"sync"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/search"
	"github.com/shimomut/tfm/ui"
)

// Search hosts a search.Thread and streams its results, superseding any
// prior thread on every keystroke (spec §4.5, §4.8, §5 "at most one
// authoritative search thread per dialog").
type Search struct {
	ui.Base

	root pathvfs.Path
	kind search.Kind

	mu       sync.Mutex
	query    string
	thread   *search.Thread
	searching bool

	OnCancel func()
}

var _ ui.Layer = (*Search)(nil)

func NewSearch(root pathvfs.Path, kind search.Kind) *Search {
	return &Search{Base: ui.NewBase(true), root: root, kind: kind}
}

// Results returns the current thread's streamed hits and whether a
// search is in flight.
func (d *Search) Results() ([]search.Result, bool) {
	d.mu.Lock()
	th := d.thread
	searching := d.searching
	d.mu.Unlock()
	if th == nil {
		return nil, searching
	}
	results, _, _ := th.Results()
	return results, searching
}

// startSearch supersedes any running thread and launches a fresh one
// for the current query, observing the per-thread authoritative-flag
// discipline from spec §4.5.
func (d *Search) startSearch(ctx context.Context) {
	d.mu.Lock()
	if d.thread != nil {
		d.thread.Supersede()
		d.thread.Cancel()
	}
	th := search.New(d.root, d.query, d.kind)
	d.thread = th
	d.searching = true
	d.mu.Unlock()

	go func() {
		th.Run(ctx)
		d.mu.Lock()
		if th.IsAuthoritative() {
			d.searching = false
		}
		d.mu.Unlock()
	}()
	d.SetDirty(true)
}

func (d *Search) HandleChar(ev events.CharEvent) bool {
	d.query += string(ev.Char)
	d.startSearch(context.Background())
	return d.Consume()
}

func (d *Search) HandleKey(ev events.KeyEvent) bool {
	switch ev.Key {
	case events.KeyBackspace:
		if n := len(d.query); n > 0 {
			d.query = d.query[:n-1]
			d.startSearch(context.Background())
		}
		return d.Consume()
	case events.KeyEsc:
		d.mu.Lock()
		if d.thread != nil {
			d.thread.Cancel()
		}
		d.mu.Unlock()
		if d.OnCancel != nil {
			d.OnCancel()
		}
		return d.Consume()
	}
	return d.Consume()
}

func (d *Search) HandleMouse(ev events.MouseEvent) bool { return false }
func (d *Search) HandleSystem(ev events.SystemEvent)    { d.SetDirty(true) }

// NeedsRedraw stays true while a search is in flight, matching the
// animated-dialog contract in spec §4.8.
func (d *Search) NeedsRedraw() bool {
	_, searching := d.Results()
	return searching
}

func (d *Search) Render(surface ui.RenderSurface) {
	surface.Clear()
	drawLine(surface, 0, 0, "search: "+d.query)
	results, searching := d.Results()
	if searching {
		drawLine(surface, 0, 1, "searching...")
	}
	for i, r := range results {
		y := i + 2
		if y >= surface.Height() {
			break
		}
		drawLine(surface, 0, y, r.Path.Render())
	}
}
