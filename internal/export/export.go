// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/modia-tui/internal/model"
	"github.com/jeranaias/modia-tui/internal/util"
)

// ErrEmpty is returned when there is nothing worth exporting.
var ErrEmpty = errors.New("nothing to export: ask a question first")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a conversation in one format.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *Conversation) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string
}

// Conversation is an exported chat session.
type Conversation struct {
	Title      string          `json:"title"`
	Provider   string          `json:"provider,omitempty"`
	Model      string          `json:"model,omitempty"`
	Server     string          `json:"server,omitempty"`
	ExportedAt time.Time       `json:"exported_at"`
	Messages   []model.Message `json:"messages"`
}

// FromMessages builds a conversation from transcript entries. Pending
// placeholders are skipped. The title is taken from the first question.
func FromMessages(msgs []model.Message) *Conversation {
	conv := &Conversation{ExportedAt: time.Now()}
	for _, m := range msgs {
		if m.Pending {
			continue
		}
		if conv.Title == "" && m.Role == model.RoleUser {
			conv.Title = util.Truncate(strings.Join(strings.Fields(m.Text), " "), titleRunes)
		}
		conv.Messages = append(conv.Messages, m)
	}
	if conv.Title == "" {
		conv.Title = "Modia conversation"
	}
	return conv
}

// hasQuestion reports whether the conversation contains a user entry.
func (c *Conversation) hasQuestion() bool {
	for _, m := range c.Messages {
		if m.Role == model.RoleUser {
			return true
		}
	}
	return false
}

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

const titleRunes = 60

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeMetadata adds front matter and the provider/model of answers.
	IncludeMetadata bool

	// IncludeTimestamps adds per-entry times.
	IncludeTimestamps bool

	// IncludeSources keeps retrieved-sources blocks.
	IncludeSources bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		IncludeSources:    true,
	}
}

// ForFormat returns the exporter for a format name: md, markdown or json.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (use md or json)", format)
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile renders conv and writes it owner-only to
// OutputDir/modia_<title>_<timestamp><ext>. It returns the file path.
func ExportToFile(conv *Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if conv == nil || !conv.hasQuestion() {
		return "", ErrEmpty
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	filename := fmt.Sprintf("modia_%s_%s%s",
		sanitizeFilename(conv.Title),
		conv.ExportedAt.Format("20060102_150405"),
		exporter.FileExtension(),
	)
	outputPath := filepath.Join(dir, filename)
	if err := util.AtomicWriteFile(outputPath, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return outputPath, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// sanitizeFilename replaces characters that are invalid in filenames on
// any platform and caps the length.
func sanitizeFilename(s string) string {
	const maxLen = 40
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	result := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r), r < 32, r == 127:
			result = append(result, '-')
		case r == ' ' || r == '\t':
			result = append(result, '_')
		default:
			result = append(result, r)
		}
	}
	if len(result) == 0 {
		return "conversation"
	}
	return string(result)
}
