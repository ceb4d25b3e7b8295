// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import "github.com/charmbracelet/lipgloss"

// Theme is the demo's palette.
type Theme struct {
	Connected       lipgloss.Color
	Waiting         lipgloss.Color
	Mine            lipgloss.Color
	Theirs          lipgloss.Color
	Border          lipgloss.Color
	FocusBorder     lipgloss.Color
	FaintText       lipgloss.Color
	ErrorText       lipgloss.Color
	TitleForeground lipgloss.Color
}

// DefaultTheme marks outgoing text blue and incoming text green.
var DefaultTheme = Theme{
	Connected:       lipgloss.Color("#22c55e"),
	Waiting:         lipgloss.Color("#888888"),
	Mine:            lipgloss.Color("#3b82f6"),
	Theirs:          lipgloss.Color("#22c55e"),
	Border:          lipgloss.Color("#444444"),
	FocusBorder:     lipgloss.Color("#3b82f6"),
	FaintText:       lipgloss.Color("#777777"),
	ErrorText:       lipgloss.Color("#ef4444"),
	TitleForeground: lipgloss.Color("#e5e5e5"),
}
