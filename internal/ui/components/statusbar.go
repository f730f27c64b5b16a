// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/ui/styles"
	"github.com/jeranaias/modia-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the line under the input: status indicator, mode toggles,
// applied model and the send control.
type StatusBar struct {
	Width int
	theme *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// Render draws the bar for a controller snapshot.
func (s *StatusBar) Render(v controller.View) string {
	t := s.theme

	left := strings.Join([]string{
		t.StatusStyle(v.State).Render(v.StatusLabel),
		t.Toggle("Explain", v.ExplainMode),
		t.Toggle("Raw", v.RawMode),
	}, " ")

	send := t.SendButton.Render(v.SendLabel)
	if v.Sending {
		send = t.SendButtonBusy.Render(v.SendLabel)
	}

	// The model text takes whatever room is left and is cut first.
	room := s.Width - lipgloss.Width(left) - lipgloss.Width(send) - 4
	current := ""
	if room > 8 {
		current = t.HeaderMeta.Render(util.TruncateWidth(v.CurrentModel, room))
	}

	gap := s.Width - lipgloss.Width(left) - lipgloss.Width(current) - lipgloss.Width(send) - 2
	if gap < 1 {
		gap = 1
	}
	return left + " " + current + strings.Repeat(" ", gap) + send
}

// =============================================================================
// SHORTCUT HINTS
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// ChatShortcuts are shown under the chat input.
var ChatShortcuts = []Shortcut{
	{"Enter", "send"},
	{"Ctrl+E", "explain"},
	{"Ctrl+R", "raw"},
	{"Ctrl+L", "clear"},
	{"Ctrl+O", "settings"},
	{"/help", "commands"},
}

// MenuShortcuts are shown while the settings panel is open.
var MenuShortcuts = []Shortcut{
	{"Tab", "next"},
	{"←/→", "choose"},
	{"Enter", "activate"},
	{"Esc", "close"},
}

// RenderShortcuts renders hints, dropping trailing ones that do not fit.
func RenderShortcuts(theme *styles.Theme, shortcuts []Shortcut, width int) string {
	var out string
	for _, sc := range shortcuts {
		item := theme.ShortcutKey.Render(sc.Key) + " " + theme.Hint.Render(sc.Desc)
		next := item
		if out != "" {
			next = out + theme.Hint.Render("  ") + item
		}
		if width > 0 && lipgloss.Width(next) > width {
			break
		}
		out = next
	}
	return out
}
