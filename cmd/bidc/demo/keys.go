// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the demo's key bindings. Plain keys go to the focused
// input, so commands use control chords.
type KeyMap struct {
	Send        key.Binding
	NextPane    key.Binding
	PrevPane    key.Binding
	OpenDialog  key.Binding
	CloseDialog key.Binding
	Quit        key.Binding
}

// DefaultKeyMap is the built-in binding set.
var DefaultKeyMap = KeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	NextPane: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next pane"),
	),
	PrevPane: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous pane"),
	),
	OpenDialog: key.NewBinding(
		key.WithKeys("ctrl+o"),
		key.WithHelp("ctrl+o", "open dialog"),
	),
	CloseDialog: key.NewBinding(
		key.WithKeys("ctrl+w"),
		key.WithHelp("ctrl+w", "close dialog"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}

func (k KeyMap) help() []key.Binding {
	return []key.Binding{k.Send, k.NextPane, k.OpenDialog, k.CloseDialog, k.Quit}
}
