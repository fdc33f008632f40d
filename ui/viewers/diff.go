package viewers

import (
	"context"
	"sort"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/ui"
)

// DiffStatus classifies one entry's comparison result.
type DiffStatus int

const (
	Same DiffStatus = iota
	LeftOnly
	RightOnly
	Differ
)

// DiffEntry is one row of the directory-diff tree.
type DiffEntry struct {
	Name   string
	IsDir  bool
	Status DiffStatus
}

// DiffDirectories compares the immediate children of left and right,
// classifying each name by presence and (for files present on both
// sides) size/mtime equality.
func DiffDirectories(ctx context.Context, left, right pathvfs.Path) ([]DiffEntry, error) {
	leftEntries, err := listEntries(ctx, left)
	if err != nil {
		return nil, err
	}
	rightEntries, err := listEntries(ctx, right)
	if err != nil {
		return nil, err
	}

	names := map[string]bool{}
	for n := range leftEntries {
		names[n] = true
	}
	for n := range rightEntries {
		names[n] = true
	}

	var out []DiffEntry
	for name := range names {
		l, hasLeft := leftEntries[name]
		r, hasRight := rightEntries[name]
		switch {
		case hasLeft && !hasRight:
			out = append(out, DiffEntry{Name: name, IsDir: l.IsDir, Status: LeftOnly})
		case !hasLeft && hasRight:
			out = append(out, DiffEntry{Name: name, IsDir: r.IsDir, Status: RightOnly})
		default:
			status := Same
			if l.IsDir != r.IsDir || l.Size != r.Size || !l.MTime.Equal(r.MTime) {
				status = Differ
			}
			out = append(out, DiffEntry{Name: name, IsDir: l.IsDir, Status: status})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func listEntries(ctx context.Context, dir pathvfs.Path) (map[string]pathvfs.FileEntry, error) {
	it, err := dir.Iterdir(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]pathvfs.FileEntry)
	for {
		e, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out[e.Name] = e
	}
}

// Diff is the directory-diff viewer layer (spec §4.8): a dual-pane list
// of the immediate children of both directories, with arrow pane-switch.
// Shift-arrows are consumed without changing the view; directories are
// not expanded or collapsed.
type Diff struct {
	ui.Base

	left, right pathvfs.Path
	entries     []DiffEntry
	cursor      int
	onLeft      bool

	OnClose func()
}

var _ ui.Layer = (*Diff)(nil)

func NewDiff(ctx context.Context, left, right pathvfs.Path, onClose func()) (*Diff, error) {
	entries, err := DiffDirectories(ctx, left, right)
	if err != nil {
		return nil, err
	}
	return &Diff{Base: ui.NewBase(true), left: left, right: right, entries: entries, onLeft: true, OnClose: onClose}, nil
}

func (d *Diff) HandleChar(ev events.CharEvent) bool { return d.Consume() }

func (d *Diff) HandleKey(ev events.KeyEvent) bool {
	shifted := ev.Modifier&1 != 0 // events.ModShift == 1
	switch ev.Key {
	case events.KeyLeft:
		if shifted {
			return d.Consume() // consumed; no tree collapse
		}
		d.onLeft = true
		return d.Consume()
	case events.KeyRight:
		if shifted {
			return d.Consume() // consumed; no tree expand
		}
		d.onLeft = false
		return d.Consume()
	case events.KeyUp:
		if d.cursor > 0 {
			d.cursor--
		}
		return d.Consume()
	case events.KeyDown:
		if d.cursor < len(d.entries)-1 {
			d.cursor++
		}
		return d.Consume()
	case events.KeyEsc:
		if d.OnClose != nil {
			d.OnClose()
		}
		return d.Consume()
	}
	return d.Consume()
}

func (d *Diff) HandleMouse(ev events.MouseEvent) bool { return false }
func (d *Diff) HandleSystem(ev events.SystemEvent)    { d.SetDirty(true) }

func statusMarker(s DiffStatus) string {
	switch s {
	case LeftOnly:
		return "<"
	case RightOnly:
		return ">"
	case Differ:
		return "!"
	default:
		return "="
	}
}

func (d *Diff) Render(surface ui.RenderSurface) {
	surface.Clear()
	half := surface.Width() / 2
	drawLine(surface, 0, 0, d.left.Render())
	drawLine(surface, half, 0, d.right.Render())
	for i, e := range d.entries {
		y := i + 1
		if y >= surface.Height() {
			break
		}
		label := statusMarker(e.Status) + " " + e.Name
		if i == d.cursor {
			label = "*" + label
		}
		if d.onLeft {
			drawLine(surface, 0, y, label)
		} else {
			drawLine(surface, half, y, label)
		}
	}
}

func drawLine(surface ui.RenderSurface, x, y int, s string) {
	for i, ch := range s {
		surface.SetCell(x+i, y, ch, ui.Style{})
	}
}
