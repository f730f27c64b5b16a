// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"log"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// Markdown renders answer text with glamour. The renderer is rebuilt when
// the wrap width changes. A nil *Markdown or a failed render returns the
// input untouched.
type Markdown struct {
	mu       sync.Mutex
	width    int
	style    string
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer that wraps at width columns and picks a
// dark or light style from the terminal background.
func NewMarkdown(width int) *Markdown {
	return &Markdown{width: width}
}

// NewMarkdownWithStyle creates a renderer with a fixed glamour style
// ("dark", "light", "notty", ...).
func NewMarkdownWithStyle(width int, style string) *Markdown {
	return &Markdown{width: width, style: style}
}

// SetWidth changes the wrap width.
func (m *Markdown) SetWidth(width int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if width != m.width {
		m.width = width
		m.renderer = nil
	}
}

// Render renders content, falling back to the raw text on error.
func (m *Markdown) Render(content string) string {
	if m == nil || strings.TrimSpace(content) == "" {
		return content
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer == nil {
		opts := []glamour.TermRendererOption{glamour.WithWordWrap(m.width)}
		if m.style != "" {
			opts = append(opts, glamour.WithStandardStyle(m.style))
		} else {
			opts = append(opts, glamour.WithAutoStyle())
		}
		r, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			log.Printf("MARKDOWN_INIT_FAILED | error=%v", err)
			return content
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
