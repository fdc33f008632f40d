// Package viewers implements the text and directory-diff viewer layers
// from spec §4.8: scrollable single-file reading through the Path
// facade with UTF-8 -> Latin-1 -> CP1252 encoding auto-detect, and a
// dual-pane directory tree diff.
package viewers

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shimomut/tfm/events"
	"github.com/shimomut/tfm/pathvfs"
	"github.com/shimomut/tfm/ui"
)

// cp1252Table maps the 0x80-0x9F byte range to its CP1252 code points;
// bytes outside this range decode identically to Latin-1 (direct
// byte-to-rune mapping).
var cp1252Table = map[byte]rune{
	0x80: 0x20AC, 0x82: 0x201A, 0x83: 0x0192, 0x84: 0x201E, 0x85: 0x2026,
	0x86: 0x2020, 0x87: 0x2021, 0x88: 0x02C6, 0x89: 0x2030, 0x8A: 0x0160,
	0x8B: 0x2039, 0x8C: 0x0152, 0x8E: 0x017D, 0x91: 0x2018, 0x92: 0x2019,
	0x93: 0x201C, 0x94: 0x201D, 0x95: 0x2022, 0x96: 0x2013, 0x97: 0x2014,
	0x98: 0x02DC, 0x99: 0x2122, 0x9A: 0x0161, 0x9B: 0x203A, 0x9C: 0x0153,
	0x9E: 0x017E, 0x9F: 0x0178,
}

// DecodeText auto-detects the encoding of raw per spec §4.8: valid
// UTF-8 is used as-is; otherwise every byte is decoded as CP1252
// (which is a superset of Latin-1 outside 0x80-0x9F), so this step
// never fails.
func DecodeText(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if r, ok := cp1252Table[c]; ok {
			b.WriteRune(r)
		} else {
			b.WriteRune(rune(c))
		}
	}
	return b.String()
}

// Text is the scrollable text viewer (spec §4.8).
type Text struct {
	ui.Base

	path   pathvfs.Path
	lines  []string
	scroll int

	OnClose func()
}

var _ ui.Layer = (*Text)(nil)

// OpenText reads path in full through the Path facade and decodes it.
func OpenText(ctx context.Context, path pathvfs.Path, onClose func()) (*Text, error) {
	r, _, err := path.Open(ctx, pathvfs.ReadBinary)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	t := &Text{Base: ui.NewBase(true), path: path, OnClose: onClose}
	t.lines = strings.Split(DecodeText(raw), "\n")
	return t, nil
}

func (t *Text) HandleChar(ev events.CharEvent) bool { return t.Consume() }

func (t *Text) HandleKey(ev events.KeyEvent) bool {
	switch ev.Key {
	case events.KeyUp:
		if t.scroll > 0 {
			t.scroll--
		}
		return t.Consume()
	case events.KeyDown:
		if t.scroll < len(t.lines)-1 {
			t.scroll++
		}
		return t.Consume()
	case events.KeyPageUp:
		t.scroll -= 10
		if t.scroll < 0 {
			t.scroll = 0
		}
		return t.Consume()
	case events.KeyPageDown:
		t.scroll += 10
		if max := len(t.lines) - 1; t.scroll > max {
			t.scroll = max
		}
		return t.Consume()
	case events.KeyEsc:
		if t.OnClose != nil {
			t.OnClose()
		}
		return t.Consume()
	}
	return t.Consume()
}

func (t *Text) HandleMouse(ev events.MouseEvent) bool { return false }
func (t *Text) HandleSystem(ev events.SystemEvent)    { t.SetDirty(true) }

func (t *Text) Render(surface ui.RenderSurface) {
	surface.Clear()
	for y := 0; y < surface.Height(); y++ {
		idx := t.scroll + y
		if idx >= len(t.lines) {
			break
		}
		for x, ch := range t.lines[idx] {
			if x >= surface.Width() {
				break
			}
			surface.SetCell(x, y, ch, ui.Style{})
		}
	}
}
