// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat transcript data structures.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a transcript entry.
type Role string

const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAI:
		return "Modia"
	default:
		return string(r)
	}
}

// Kind distinguishes ordinary text from visually marked blocks.
type Kind int

const (
	// KindText is prose: questions, answers, placeholders.
	KindText Kind = iota
	// KindSources is a retrieved-sources listing rendered as a code block.
	KindSources
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry of the chat transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Pending is true while the entry is a "thinking" placeholder.
	Pending bool `json:"-"`
	// Failed marks an entry whose text is an error message.
	Failed bool `json:"failed,omitempty"`

	// Provider and Model report what answered an AI entry, when known.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewSourcesMessage creates an AI entry holding a retrieved-sources block.
func NewSourcesMessage(text string) *Message {
	m := NewMessage(RoleAI, text)
	m.Kind = KindSources
	return m
}

// IsCodeBlock reports whether the entry renders as a code block.
func (m *Message) IsCodeBlock() bool {
	return m.Kind == KindSources
}
