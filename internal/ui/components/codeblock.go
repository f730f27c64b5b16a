// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modia-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is a block of monospaced text: a fenced snippet from an answer
// or a retrieved-sources listing.
type CodeBlock struct {
	Language    string
	Code        string
	MaxWidth    int
	LineNumbers bool
	// Plain disables syntax highlighting.
	Plain bool
}

// NewCodeBlock creates a code block with line numbers.
func NewCodeBlock(language, code string) CodeBlock {
	return CodeBlock{
		Language:    language,
		Code:        code,
		MaxWidth:    80,
		LineNumbers: true,
	}
}

// NewSourcesBlock creates an unhighlighted block for a sources listing.
func NewSourcesBlock(text string) CodeBlock {
	return CodeBlock{
		Code:     text,
		MaxWidth: 80,
		Plain:    true,
	}
}

// Render renders the block with the theme's code styling.
func (c CodeBlock) Render(theme *styles.Theme) string {
	code := strings.TrimRight(c.Code, "\n")

	body := code
	if !c.Plain {
		body = highlightCode(code, c.Language)
	}

	if c.LineNumbers {
		lineNum := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Width(4).
			Align(lipgloss.Right).
			MarginRight(1)
		lines := strings.Split(body, "\n")
		for i, line := range lines {
			lines[i] = lineNum.Render(strconv.Itoa(i+1)) + line
		}
		body = strings.Join(lines, "\n")
	}

	var header string
	if c.Language != "" {
		header = theme.CodeLangBadge.Render(c.Language) + "\n"
	}

	width := c.MaxWidth - 4
	if width < 20 {
		width = 20
	}
	style := theme.CodeBlock
	if c.Plain {
		style = theme.SourcesBlock
	}
	return style.MaxWidth(width).Render(header + body)
}

// =============================================================================
// MARKDOWN FENCE SPLITTER
// =============================================================================

// Segment is a run of answer text: prose, or the body of a fenced block.
type Segment struct {
	Code     bool
	Language string
	Text     string
}

// SplitFences splits text into prose and fenced-code segments. An unclosed
// fence runs to the end of the text.
func SplitFences(text string) []Segment {
	var (
		segs   []Segment
		buf    []string
		inCode bool
		lang   string
	)
	flush := func(code bool) {
		if len(buf) == 0 && !code {
			return
		}
		segs = append(segs, Segment{Code: code, Language: lang, Text: strings.Join(buf, "\n")})
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				flush(true)
				lang = ""
				inCode = false
			} else {
				flush(false)
				lang = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
				inCode = true
			}
			continue
		}
		buf = append(buf, line)
	}
	if inCode {
		flush(true)
	} else {
		flush(false)
	}
	return segs
}

// ParseCodeBlocks replaces fenced blocks in text with rendered code blocks.
func ParseCodeBlocks(theme *styles.Theme, text string, maxWidth int) string {
	var out []string
	for _, seg := range SplitFences(text) {
		if !seg.Code {
			out = append(out, seg.Text)
			continue
		}
		cb := NewCodeBlock(seg.Language, seg.Text)
		cb.MaxWidth = maxWidth
		out = append(out, cb.Render(theme))
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies terminal syntax highlighting. It returns code
// unchanged when tokenizing or formatting fails.
func highlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// DetectLanguage guesses the language name of code, or "".
func DetectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
