// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modia-tui/internal/model"
	"github.com/jeranaias/modia-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE VIEW
// =============================================================================

// MessageOptions controls how transcript entries are drawn.
type MessageOptions struct {
	// Width is the available column count (default 80).
	Width int
	// ShowTimestamps prints the entry time next to the role label.
	ShowTimestamps bool
	// Markdown renders assistant answers. Nil falls back to fence parsing.
	Markdown *Markdown
	// SpinnerFrame is drawn in front of pending placeholders.
	SpinnerFrame string
}

func (o MessageOptions) width() int {
	if o.Width <= 0 {
		return 80
	}
	return o.Width
}

// RenderMessage renders one transcript entry with its role header.
func RenderMessage(theme *styles.Theme, m model.Message, opts MessageOptions) string {
	return lipgloss.JoinVertical(lipgloss.Left, renderHeader(theme, m, opts), renderBody(theme, m, opts))
}

// RenderTranscript renders every entry separated by a blank line.
func RenderTranscript(theme *styles.Theme, msgs []model.Message, opts MessageOptions) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, RenderMessage(theme, m, opts))
	}
	return strings.Join(parts, "\n\n")
}

func renderHeader(theme *styles.Theme, m model.Message, opts MessageOptions) string {
	var label string
	switch {
	case m.Role == model.RoleUser:
		label = theme.UserLabel.Render(m.Role.DisplayName())
	case m.Kind == model.KindSources:
		label = theme.AssistantLabel.Render("Sources")
	default:
		label = theme.AssistantLabel.Render(m.Role.DisplayName())
	}

	parts := []string{label}
	if opts.ShowTimestamps && !m.Timestamp.IsZero() {
		parts = append(parts, theme.Timestamp.Render(m.Timestamp.Format("15:04:05")))
	}
	if meta := answeredBy(m); meta != "" {
		parts = append(parts, theme.Timestamp.Render(meta))
	}
	return strings.Join(parts, " ")
}

// answeredBy reports the provider and model of an answer, when known.
func answeredBy(m model.Message) string {
	switch {
	case m.Provider != "" && m.Model != "":
		return m.Provider + "/" + m.Model
	case m.Provider != "":
		return m.Provider
	default:
		return m.Model
	}
}

func renderBody(theme *styles.Theme, m model.Message, opts MessageOptions) string {
	width := opts.width()
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	switch {
	case m.Kind == model.KindSources:
		cb := NewSourcesBlock(m.Text)
		cb.MaxWidth = width
		return cb.Render(theme)

	case m.Pending:
		text := m.Text
		if opts.SpinnerFrame != "" {
			text = opts.SpinnerFrame + " " + text
		}
		return theme.AssistantBubble.Render(theme.Notice.Render(text))

	case m.Failed:
		return theme.ErrorBubble.Width(inner).Render(m.Text)

	case m.Role == model.RoleUser:
		return theme.UserBubble.Width(inner).Render(m.Text)

	default:
		var body string
		if opts.Markdown != nil {
			opts.Markdown.SetWidth(inner - 2)
			body = opts.Markdown.Render(m.Text)
		} else {
			body = lipgloss.NewStyle().Width(inner).Render(ParseCodeBlocks(theme, m.Text, inner))
		}
		return theme.AssistantBubble.Render(body)
	}
}
