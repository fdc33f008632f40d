// Package events defines the typed input events delivered by the
// rendering backend's callbacks (spec §3, §5): key, char, mouse,
// system, and menu. The concrete renderer is an external collaborator
// (spec §1); this package is the entire contract between it and the
// UILayerStack.
package events

// Modifier is a bitmask of held modifier keys.
type Modifier int

const (
	ModNone Modifier = 0
	ModShift Modifier = 1 << (iota - 1)
	ModControl
	ModAlt
	ModCommand
)

// NamedKey enumerates the non-printable keys the key-binding grammar
// (spec §6) can reference.
type NamedKey int

const (
	KeyNone NamedKey = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyEnter
	KeyBackspace
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyTab
	KeyEsc
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// KeyEvent is a non-printable key press with modifiers.
type KeyEvent struct {
	Key      NamedKey
	Modifier Modifier
}

// CharEvent is a printable character, already modifier-decoded by the
// renderer backend (e.g. Shift-a arrives as 'A', not 'a'+ModShift).
type CharEvent struct {
	Char rune
	Modifier Modifier
}

// MouseButton identifies which mouse action occurred.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseRight
	MouseMiddle
	MouseWheelUp
	MouseWheelDown
)

// MouseEvent carries screen-relative coordinates.
type MouseEvent struct {
	X, Y   int
	Button MouseButton
}

// SystemEventKind distinguishes the broadcast system events.
type SystemEventKind int

const (
	SystemResize SystemEventKind = iota
	SystemClose
	SystemFocus
)

// SystemEvent is broadcast to every layer in the stack, not just the top
// (spec §4.6).
type SystemEvent struct {
	Kind          SystemEventKind
	Width, Height int // valid for SystemResize
	Focused       bool // valid for SystemFocus
}

// MenuEvent represents an out-of-band action triggered by a menu/command
// surface outside the normal key grammar (e.g. an OS-level menu bar item
// delegated by the renderer backend).
type MenuEvent struct {
	Action string
}
