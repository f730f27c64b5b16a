// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modia-tui/internal/model"
	"github.com/jeranaias/modia-tui/internal/ui/components"
	"github.com/jeranaias/modia-tui/internal/util"
)

// Fixed heights of the chrome around the viewport.
const (
	headerHeight   = 1
	noticeHeight   = 1
	inputHeight    = 3 // bordered single line
	statusHeight   = 1
	shortcutHeight = 1
)

// =============================================================================
// LAYOUT
// =============================================================================

// refresh lays out the viewport and fills it from a controller snapshot:
// the settings panel while the menu is open, else the overlay or the
// transcript.
func (m *Model) refresh() {
	v := m.ctrl.View()
	m.layout(v.MenuOpen)

	if v.MenuOpen {
		m.input.Blur()
	} else if !m.input.Focused() {
		m.input.Focus()
	}

	var content string
	switch {
	case v.MenuOpen:
		m.panel.Width = m.viewport.Width
		content = m.panel.Render(v)
	case m.overlay != "":
		content = m.theme.Notice.Width(m.viewport.Width - 2).Render(m.overlay)
	default:
		content = m.renderTranscript(v.Messages)
	}

	follow := m.viewport.AtBottom() || len(v.Messages) != m.lastCount
	m.viewport.SetContent(content)
	switch {
	case v.MenuOpen != m.lastMenu || m.overlay != m.lastOverlay:
		m.viewport.GotoTop()
	case follow && !v.MenuOpen && m.overlay == "":
		m.viewport.GotoBottom()
	}
	m.lastCount = len(v.Messages)
	m.lastMenu = v.MenuOpen
	m.lastOverlay = m.overlay
}

func (m *Model) layout(menuOpen bool) {
	reserved := headerHeight + shortcutHeight
	if !menuOpen {
		reserved += noticeHeight + inputHeight + statusHeight + len(m.completionLines())
	}
	h := m.height - reserved
	if h < 1 {
		h = 1
	}
	w := m.width
	if w < 20 {
		w = 20
	}
	m.viewport.Width = w
	m.viewport.Height = h
	m.input.Width = w - 8
	m.status.SetWidth(w)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	v := m.ctrl.View()

	parts := []string{m.renderHeader(), m.viewport.View()}
	if v.MenuOpen {
		parts = append(parts, components.RenderShortcuts(m.theme, components.MenuShortcuts, m.width))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	parts = append(parts, m.renderNotice())
	parts = append(parts, m.completionLines()...)
	parts = append(parts,
		m.theme.InputContainer.Width(m.viewport.Width-2).Render(m.input.View()),
		m.status.Render(v),
		components.RenderShortcuts(m.theme, components.ChatShortcuts, m.width),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("Modia")
	meta := m.theme.HeaderMeta.Render(m.cfg.Server.URL)
	return m.theme.Header.Width(m.viewport.Width).Render(brand + "  " + meta)
}

func (m Model) renderNotice() string {
	if m.notice == "" {
		if m.spinner.IsActive() {
			return m.spinner.View()
		}
		return " "
	}
	text := util.TruncateWidth(m.notice, m.viewport.Width-2)
	if m.noticeErr {
		return m.theme.StatusError.Render(text)
	}
	return m.theme.Notice.Render(text)
}

// maxCompletions is how many completion rows are shown at once.
const maxCompletions = 5

// completionLines renders a window of completions around the selection.
func (m Model) completionLines() []string {
	cs := m.completion
	if !cs.Visible || len(cs.Completions) == 0 {
		return nil
	}
	start := 0
	if cs.Selected >= maxCompletions {
		start = cs.Selected - maxCompletions + 1
	}
	end := start + maxCompletions
	if end > len(cs.Completions) {
		end = len(cs.Completions)
	}

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		c := cs.Completions[i]
		label := c.Display
		if label == "" {
			label = c.Value
		}
		if c.Description != "" {
			label += "  " + c.Description
		}
		label = util.TruncateWidth(label, m.width-4)
		if i == cs.Selected {
			lines = append(lines, m.theme.CompletionActive.Render(label))
		} else {
			lines = append(lines, m.theme.CompletionItem.Render(label))
		}
	}
	return lines
}

// =============================================================================
// TRANSCRIPT RENDERING
// =============================================================================

func (m *Model) renderTranscript(msgs []model.Message) string {
	opts := components.MessageOptions{
		Width:          m.viewport.Width - 2,
		ShowTimestamps: m.cfg.UI.ShowTimestamps,
		Markdown:       m.markdown,
		SpinnerFrame:   m.spinner.Frame(),
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Pending {
			parts = append(parts, components.RenderMessage(m.theme, msg, opts))
			continue
		}
		k := cacheKey(msg, opts)
		out, ok := m.cache.get(k)
		if !ok {
			out = components.RenderMessage(m.theme, msg, opts)
			m.cache.put(k, out)
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n\n")
}

// renderCache keeps rendered transcript entries so markdown is not
// re-rendered on every spinner tick. Pending entries are never cached.
type renderCache struct {
	entries map[string]string
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[string]string)}
}

// maxCacheEntries bounds the cache; it is simply dropped when full.
const maxCacheEntries = 512

func (c *renderCache) get(k string) (string, bool) {
	out, ok := c.entries[k]
	return out, ok
}

func (c *renderCache) put(k, out string) {
	if len(c.entries) >= maxCacheEntries {
		c.reset()
	}
	c.entries[k] = out
}

func (c *renderCache) reset() {
	c.entries = make(map[string]string)
}

func cacheKey(msg model.Message, opts components.MessageOptions) string {
	return fmt.Sprintf("%s|%d|%t|%t|%t|%s", msg.ID, opts.Width, opts.ShowTimestamps, opts.Markdown != nil, msg.Failed, msg.Text)
}

func formatValue(v interface{}) string {
	return fmt.Sprint(v)
}
