// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/bidc/chat"
)

// changedMsg is delivered when any chat session changes.
type changedMsg struct{}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return changedMsg{}
	}
}

// Model is the bubbletea model for the demo.
type Model struct {
	demo   *Demo
	keys   KeyMap
	theme  Theme
	inputs [paneCount]textinput.Model
	focus  Pane
	status string
	width  int
	height int
}

// NewModel builds the model with the iframe host pane focused.
func NewModel(demo *Demo) Model {
	m := Model{demo: demo, keys: DefaultKeyMap, theme: DefaultTheme, width: 100, height: 30}
	for pane := range paneCount {
		input := textinput.New()
		input.Placeholder = "Type a message..."
		input.Prompt = "> "
		input.CharLimit = 500
		m.inputs[pane] = input
	}
	m.inputs[m.focus].Focus()
	return m
}

// Focus returns the focused pane.
func (m Model) Focus() Pane { return m.focus }

// Status returns the last status line message.
func (m Model) Status() string { return m.status }

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.demo.Changes()))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		for pane := range paneCount {
			m.inputs[pane].Width = max(m.paneWidth()-8, 10)
		}
		return m, nil

	case changedMsg:
		if !m.available(m.focus) {
			m = m.moveFocus(1)
		}
		return m, waitForChange(m.demo.Changes())

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextPane):
			return m.moveFocus(1), nil
		case key.Matches(msg, m.keys.PrevPane):
			return m.moveFocus(-1), nil
		case key.Matches(msg, m.keys.OpenDialog):
			if err := m.demo.OpenDialog(); err != nil {
				m.status = err.Error()
			} else {
				m.status = "dialog opened"
			}
			return m, nil
		case key.Matches(msg, m.keys.CloseDialog):
			if err := m.demo.CloseDialog(); err != nil {
				m.status = err.Error()
			} else {
				m.status = "dialog closed"
			}
			return m, nil
		case key.Matches(msg, m.keys.Send):
			return m.send(), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) send() Model {
	text := m.inputs[m.focus].Value()
	err := m.demo.Say(m.focus, text)
	switch {
	case errors.Is(err, chat.ErrEmpty):
		return m
	case err != nil:
		m.status = fmt.Sprintf("%s: %v", m.focus, err)
		return m
	}
	m.inputs[m.focus].Reset()
	m.status = ""
	return m
}

func (m Model) available(pane Pane) bool {
	return m.demo.State(pane).Available
}

// moveFocus steps through the panes that can take input.
func (m Model) moveFocus(step int) Model {
	next := m.focus
	for range paneCount {
		next = Pane((int(next) + step + int(paneCount)) % int(paneCount))
		if m.available(next) {
			break
		}
	}
	m.inputs[m.focus].Blur()
	m.focus = next
	m.inputs[m.focus].Focus()
	return m
}

func (m Model) paneWidth() int {
	return max(m.width/2-2, 24)
}

func (m Model) paneHeight() int {
	return max((m.height-3)/2-2, 6)
}

func (m Model) View() string {
	top := lipgloss.JoinHorizontal(lipgloss.Top, m.renderPane(FrameHost), m.renderPane(DialogHost))
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, m.renderPane(FrameGuest), m.renderPane(DialogGuest))
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, m.renderFooter())
}

func (m Model) renderPane(pane Pane) string {
	state := m.demo.State(pane)
	theme := m.theme

	border := theme.Border
	if pane == m.focus {
		border = theme.FocusBorder
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(m.paneWidth()).
		Height(m.paneHeight())

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.TitleForeground).Render(state.Title)
	lines := []string{title}

	if !state.Available {
		hint := "closed"
		if pane == DialogHost {
			hint = "press " + m.keys.OpenDialog.Help().Key + " to open the dialog"
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.FaintText).Render(hint))
	} else {
		lines = append(lines, m.renderStatus(pane, state.Connected), m.inputs[pane].View())
	}
	lines = append(lines, "")
	lines = append(lines, m.renderMessages(state, m.paneHeight()-len(lines))...)

	return style.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatus(pane Pane, connected bool) string {
	if connected {
		dot := lipgloss.NewStyle().Foreground(m.theme.Connected).Render("●")
		return dot + " Connected"
	}
	label := "Waiting..."
	if pane == FrameGuest || pane == DialogGuest {
		label = "Connecting..."
	}
	return lipgloss.NewStyle().Foreground(m.theme.Waiting).Render("○ " + label)
}

func (m Model) renderMessages(state PaneState, room int) []string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if len(state.Messages) == 0 {
		return []string{faint.Render("No messages yet")}
	}

	messages := state.Messages
	if room > 0 && len(messages) > room {
		messages = messages[len(messages)-room:]
	}
	mine := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Mine)
	theirs := lipgloss.NewStyle().Bold(true).Foreground(m.theme.Theirs)

	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		if message.From == chat.FromMe {
			lines = append(lines, mine.Render("You:")+" "+message.Text)
		} else {
			lines = append(lines, theirs.Render(state.PeerLabel+":")+" "+message.Text)
		}
	}
	return lines
}

func (m Model) renderFooter() string {
	faint := lipgloss.NewStyle().Foreground(m.theme.FaintText)
	if m.status != "" {
		return lipgloss.NewStyle().Foreground(m.theme.ErrorText).Render(m.status)
	}
	var parts []string
	for _, binding := range m.keys.help() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return faint.Render(strings.Join(parts, " • "))
}
