package ui

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut describes a keyboard combination that triggers an action.
// A shortcut names either a rune or a code, never both.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// keymap maps shortcuts to action names.
type keymap map[KeyShortcut]string

func (k keymap) bind(name string, keys KeyboardShortcuts) {
	for _, sc := range keys.KeyboardShortcuts() {
		k[sc] = name
	}
}

// lookup resolves a key press. Non-printing keys arrive with a negative
// rune, and shifted punctuation such as '+' carries ModShift, so both are
// retried without the part that cannot have been bound.
func (k keymap) lookup(e key.Event) (string, bool) {
	r := unicode.ToLower(e.Rune)
	if r < 0 {
		r = 0
	}
	candidates := []KeyShortcut{
		{Rune: r, Code: e.Code, Modifiers: e.Modifiers},
		{Code: e.Code, Modifiers: e.Modifiers},
	}
	if r != 0 {
		candidates = append(candidates, KeyShortcut{Rune: r, Modifiers: e.Modifiers})
		if !unicode.IsLetter(r) && e.Modifiers&key.ModShift != 0 {
			candidates = append(candidates, KeyShortcut{Rune: r, Modifiers: e.Modifiers &^ key.ModShift})
		}
	}
	for _, c := range candidates {
		if c.Rune == 0 && c.Code == key.CodeUnknown {
			continue
		}
		if name, ok := k[c]; ok {
			return name, true
		}
	}
	return "", false
}
