package ui

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

type action string

const (
	actBrush     action = "brush"
	actEraser    action = "eraser"
	actCrop      action = "crop"
	actApplyCrop action = "apply-crop"
	actCancel    action = "cancel-crop"
	actUndo      action = "undo"
	actRedo      action = "redo"
	actClear     action = "clear"
	actSave      action = "save"
	actRestore   action = "restore"
	actCopy      action = "copy"
	actSmaller   action = "size-down"
	actLarger    action = "size-up"
	actQuit      action = "quit"
)

// KeyShortcut is a key combination bound to an action. Either Rune or Code
// is set.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

const modMask = key.ModControl | key.ModShift

type keymap map[KeyShortcut]action

func defaultKeymap() keymap {
	return keymap{
		{Rune: 'b'}:                            actBrush,
		{Rune: 'e'}:                            actEraser,
		{Rune: 'r'}:                            actCrop,
		{Code: key.CodeReturnEnter}:            actApplyCrop,
		{Code: key.CodeEscape}:                 actCancel,
		{Rune: 'z', Modifiers: key.ModControl}: actUndo,
		{Rune: 'y', Modifiers: key.ModControl}: actRedo,
		{Rune: 'z', Modifiers: modMask}:        actRedo,
		{Rune: 's', Modifiers: key.ModControl}: actSave,
		{Rune: 'c', Modifiers: key.ModControl}: actCopy,
		{Rune: 'l', Modifiers: key.ModControl}: actClear,
		{Rune: 'o', Modifiers: key.ModControl}: actRestore,
		{Rune: '['}:                            actSmaller,
		{Rune: ']'}:                            actLarger,
		{Rune: 'q', Modifiers: key.ModControl}: actQuit,
	}
}

// resolve maps a key press to an action. Shift is ignored for plain
// letters so that B and b both pick the brush.
func (m keymap) resolve(e key.Event) (action, bool) {
	mods := e.Modifiers & modMask
	if e.Code != key.CodeUnknown {
		if a, ok := m[KeyShortcut{Code: e.Code, Modifiers: mods}]; ok {
			return a, true
		}
	}
	if e.Rune <= 0 {
		return "", false
	}
	r := unicode.ToLower(e.Rune)
	if a, ok := m[KeyShortcut{Rune: r, Modifiers: mods}]; ok {
		return a, true
	}
	if mods&key.ModControl == 0 {
		a, ok := m[KeyShortcut{Rune: r}]
		return a, ok
	}
	return "", false
}
