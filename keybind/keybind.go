// Package keybind implements the key-binding grammar and O(1) reverse
// lookup table from spec §6: `expr := single-char | modifier("-"modifier)*
// "-" key`, each action bound to one or more expressions plus a
// selection predicate that gates whether the binding is eligible given
// the current pane's selection state.
package keybind

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shimomut/tfm/events"
)

// Predicate restricts when a binding's action is eligible against the
// current pane's selection state (spec §6).
type Predicate int

const (
	// Any means the binding applies regardless of selection state.
	Any Predicate = iota
	// Required means the binding applies only when one or more items
	// are selected or focused.
	Required
	// None means the binding applies only when nothing is selected.
	None
)

// Satisfied reports whether hasSelection ("selected or focused",
// spec §4.7) satisfies p.
func (p Predicate) Satisfied(hasSelection bool) bool {
	switch p {
	case Required:
		return hasSelection
	case None:
		return !hasSelection
	default:
		return true
	}
}

// MainKey identifies the non-modifier part of a key expression: either
// a printable character or a named key, never both.
type MainKey struct {
	Char  rune
	Named events.NamedKey
}

func charKey(r rune) MainKey               { return MainKey{Char: r} }
func namedKey(n events.NamedKey) MainKey   { return MainKey{Named: n} }

var namedKeyAliases = map[string]events.NamedKey{
	"UP": events.KeyUp, "DOWN": events.KeyDown, "LEFT": events.KeyLeft, "RIGHT": events.KeyRight,
	"ENTER": events.KeyEnter, "RETURN": events.KeyEnter,
	"BACKSPACE": events.KeyBackspace, "DELETE": events.KeyDelete, "DEL": events.KeyDelete,
	"HOME": events.KeyHome, "END": events.KeyEnd,
	"PAGE_UP": events.KeyPageUp, "PAGEUP": events.KeyPageUp,
	"PAGE_DOWN": events.KeyPageDown, "PAGEDOWN": events.KeyPageDown,
	"TAB": events.KeyTab, "ESC": events.KeyEsc, "ESCAPE": events.KeyEsc,
}

var modifierAliases = map[string]events.Modifier{
	"SHIFT":   events.ModShift,
	"CONTROL": events.ModControl, "CTRL": events.ModControl,
	"ALT": events.ModAlt, "OPTION": events.ModAlt,
	"COMMAND": events.ModCommand, "CMD": events.ModCommand,
}

func init() {
	for i := 1; i <= 12; i++ {
		namedKeyAliases[fmt.Sprintf("F%d", i)] = events.NamedKey(int(events.KeyF1) + i - 1)
	}
}

// Parse decodes one key expression into its MainKey and modifier mask.
func Parse(expr string) (MainKey, events.Modifier, error) {
	if expr == "" {
		return MainKey{}, 0, fmt.Errorf("keybind: empty expression")
	}

	parts := strings.Split(expr, "-")
	keyToken := parts[len(parts)-1]
	modTokens := parts[:len(parts)-1]

	var mods events.Modifier
	for _, tok := range modTokens {
		m, ok := modifierAliases[strings.ToUpper(tok)]
		if !ok {
			return MainKey{}, 0, fmt.Errorf("keybind: unknown modifier %q in %q", tok, expr)
		}
		mods |= m
	}

	if n, ok := namedKeyAliases[strings.ToUpper(keyToken)]; ok {
		return namedKey(n), mods, nil
	}
	r := []rune(keyToken)
	if len(r) == 1 {
		return charKey(r[0]), mods, nil
	}
	return MainKey{}, 0, fmt.Errorf("keybind: unrecognized key %q in %q", keyToken, expr)
}

type binding struct {
	action    string
	predicate Predicate
}

type tableKey struct {
	main MainKey
	mods events.Modifier
}

// Table is the O(1) reverse lookup table: (main_key, modifier_bitmask)
// -> ordered list of candidate bindings, checked in registration order
// (spec §6 "the first matching action whose selection predicate holds
// wins").
type Table struct {
	entries map[tableKey][]binding
}

func New() *Table {
	return &Table{entries: make(map[tableKey][]binding)}
}

// Bind registers action under every expr, gated by predicate.
func (t *Table) Bind(action string, predicate Predicate, exprs ...string) error {
	for _, expr := range exprs {
		main, mods, err := Parse(expr)
		if err != nil {
			return err
		}
		key := tableKey{main: main, mods: mods}
		t.entries[key] = append(t.entries[key], binding{action: action, predicate: predicate})
	}
	return nil
}

// Resolve looks up the action bound to (main, mods) whose predicate is
// satisfied by hasSelection, in registration order.
func (t *Table) Resolve(main MainKey, mods events.Modifier, hasSelection bool) (action string, ok bool) {
	for _, b := range t.entries[tableKey{main: main, mods: mods}] {
		if b.predicate.Satisfied(hasSelection) {
			return b.action, true
		}
	}
	return "", false
}

// ResolveKeyEvent is a convenience wrapper for events.KeyEvent.
func (t *Table) ResolveKeyEvent(e events.KeyEvent, hasSelection bool) (string, bool) {
	return t.Resolve(namedKey(e.Key), e.Modifier, hasSelection)
}

// ResolveCharEvent is a convenience wrapper for events.CharEvent.
func (t *Table) ResolveCharEvent(e events.CharEvent, hasSelection bool) (string, bool) {
	return t.Resolve(charKey(e.Char), e.Modifier, hasSelection)
}

// String renders a MainKey back to its grammar form, for error messages
// and help text.
func (k MainKey) String() string {
	if k.Named != events.KeyNone {
		for name, n := range namedKeyAliases {
			if n == k.Named {
				return name
			}
		}
		return "KEY(" + strconv.Itoa(int(k.Named)) + ")"
	}
	return string(k.Char)
}
