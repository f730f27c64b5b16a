// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/modia-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// frontMatter is the YAML header of an exported file.
type frontMatter struct {
	Title     string `yaml:"title"`
	Provider  string `yaml:"provider,omitempty"`
	Model     string `yaml:"model,omitempty"`
	Server    string `yaml:"server,omitempty"`
	Messages  int    `yaml:"messages"`
	Exported  string `yaml:"exported"`
	Generator string `yaml:"generator"`
}

// Export converts a conversation to Markdown.
func (e *MarkdownExporter) Export(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}

	var sb strings.Builder

	if e.options.IncludeMetadata {
		header, err := yaml.Marshal(frontMatter{
			Title:     conv.Title,
			Provider:  conv.Provider,
			Model:     conv.Model,
			Server:    conv.Server,
			Messages:  len(conv.Messages),
			Exported:  conv.ExportedAt.Format(time.RFC3339),
			Generator: "modia-tui",
		})
		if err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
		sb.WriteString("---\n")
		sb.Write(header)
		sb.WriteString("---\n\n")
	}

	sb.WriteString("# " + escapeMarkdown(conv.Title) + "\n\n")

	first := true
	for _, msg := range conv.Messages {
		if msg.IsCodeBlock() && !e.options.IncludeSources {
			continue
		}
		if !first {
			sb.WriteString("---\n\n")
		}
		first = false
		e.writeMessage(&sb, msg)
	}

	return []byte(sb.String()), nil
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, msg model.Message) {
	label := msg.Role.DisplayName()
	if msg.IsCodeBlock() {
		label = "Sources"
	}
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(sb, "### %s <sub>%s</sub>\n\n", label, msg.Timestamp.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintf(sb, "### %s\n\n", label)
	}

	text := strings.TrimSpace(msg.Text)
	if msg.IsCodeBlock() {
		sb.WriteString(fence(text) + "\n" + text + "\n" + fence(text) + "\n\n")
	} else {
		sb.WriteString(text + "\n\n")
	}

	if e.options.IncludeMetadata && msg.Role == model.RoleAI && (msg.Provider != "" || msg.Model != "") {
		fmt.Fprintf(sb, "<sub>%s</sub>\n\n", strings.Trim(msg.Provider+"/"+msg.Model, "/"))
	}
}

// fence returns a code fence longer than any backtick run in text.
func fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(3, longest+1))
}

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	r := strings.NewReplacer("#", `\#`, "*", `\*`, "_", `\_`, "[", `\[`, "]", `\]`)
	return r.Replace(s)
}
