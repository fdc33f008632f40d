package ui

// Style is a minimal cell attribute set; the concrete rendering backend
// (spec §1, out of core scope) is responsible for mapping it to real
// terminal attributes or native-graphics draw calls.
type Style struct {
	FG, BG uint32
	Bold   bool
	Reverse bool
}

// RenderSurface is the narrow drawing contract a UILayer's Render method
// needs. It is implemented by the external rendering backend; core ships
// only this interface plus a FakeSurface for tests.
type RenderSurface interface {
	Width() int
	Height() int
	SetCell(x, y int, ch rune, style Style)
	Clear()
}

// FakeSurface is an in-memory RenderSurface used by tests that exercise
// layer Render methods without a real terminal.
type FakeSurface struct {
	W, H  int
	Cells map[[2]int]rune
}

func NewFakeSurface(w, h int) *FakeSurface {
	return &FakeSurface{W: w, H: h, Cells: make(map[[2]int]rune)}
}

func (f *FakeSurface) Width() int  { return f.W }
func (f *FakeSurface) Height() int { return f.H }

func (f *FakeSurface) SetCell(x, y int, ch rune, style Style) {
	f.Cells[[2]int{x, y}] = ch
}

func (f *FakeSurface) Clear() {
	f.Cells = make(map[[2]int]rune)
}
