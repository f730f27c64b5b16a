// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package opslog keeps the bounded operations log shown in the settings
// panel and renders step progress of multi-stage backend operations.
package opslog

import (
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/util"
)

const (
	// MaxChars is the size of the trailing window the log keeps.
	MaxChars = 20000

	// Idle replaces an empty Log message.
	Idle = "Ready."

	// NoSteps is shown when there is no step progress to report.
	NoSteps = "No operations in progress."

	timestampLayout = "2006-01-02 15:04:05"
)

// Log is the operations log. Log replaces its text, Block appends a
// timestamped section. Safe for concurrent use.
type Log struct {
	mu   sync.RWMutex
	text string
	now  func() time.Time
}

// New returns an empty log.
func New() *Log {
	return &Log{now: time.Now}
}

// SetClock overrides the timestamp source.
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Log replaces the whole log with text, trimmed. Blank text shows Idle.
func (l *Log) Log(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		text = Idle
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = util.Tail(text, MaxChars)
}

// Block appends "[timestamp] title" followed by the trimmed body, then
// drops the oldest characters beyond MaxChars.
func (l *Log) Block(title, body string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().Format(timestampLayout)
	chunk := trimEnd("\n\n[" + ts + "] " + title + "\n" + strings.TrimSpace(body))
	l.text = util.Tail(trimEnd(l.text)+chunk, MaxChars)
}

// String returns the current log text.
func (l *Log) String() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.text
}

// Len returns the log length in characters.
func (l *Log) Len() int {
	return util.RuneLen(l.String())
}

func trimEnd(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

// RenderSteps renders one "✓ name 120ms" line per step, or NoSteps.
func RenderSteps(steps []api.Step) string {
	if len(steps) == 0 {
		return NoSteps
	}
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		lines = append(lines, StepLine(s))
	}
	return strings.Join(lines, "\n")
}

// StepLine renders a single step.
func StepLine(s api.Step) string {
	glyph := "✗"
	if s.OK {
		glyph = "✓"
	}
	name := s.Name
	if name == "" {
		name = "Step"
	}
	dur := ""
	if s.DurationMS != nil {
		dur = strconv.FormatFloat(*s.DurationMS, 'f', -1, 64) + "ms"
	}
	return strings.TrimSpace(glyph + " " + name + " " + dur)
}
