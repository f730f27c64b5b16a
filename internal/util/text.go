// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended by Truncate when text is cut.
const Ellipsis = "…"

// Truncate cuts s to at most maxRunes runes and appends Ellipsis when it
// had to cut. Counting is by rune so multi-byte characters stay intact.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if runeCount(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes]) + Ellipsis
}

// Tail returns the last maxRunes runes of s.
func Tail(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	n := runeCount(s)
	if n <= maxRunes {
		return s
	}
	return string([]rune(s)[n-maxRunes:])
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return runeCount(s)
}

func runeCount(s string) int {
	return len([]rune(s))
}

// TruncateWidth cuts s to fit maxWidth terminal columns, accounting for
// wide (CJK, emoji) characters.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// Width returns the display width of s in terminal columns.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// NormalizeInput trims surrounding whitespace and converts s to NFC so
// composed and decomposed accents reach the backend identically.
func NormalizeInput(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
