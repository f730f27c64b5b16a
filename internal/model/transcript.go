// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sync"
)

// Greeting is the entry a fresh or cleared transcript starts with.
const Greeting = "Hi, I'm Modia. Ask me anything about your indexed sources."

// Transcript is the ordered list of chat entries. It is safe for
// concurrent use; accessors return copies.
type Transcript struct {
	mu      sync.RWMutex
	entries []*Message
}

// NewTranscript returns a transcript holding only the greeting.
func NewTranscript() *Transcript {
	t := &Transcript{}
	t.reset()
	return t
}

func (t *Transcript) reset() {
	t.entries = []*Message{NewMessage(RoleAI, Greeting)}
}

// Append adds m to the end and returns its ID.
func (t *Transcript) Append(m *Message) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, m)
	return m.ID
}

// Update applies fn to the entry with id. It reports false if no such
// entry exists (for example after a clear raced the update).
func (t *Transcript) Update(id string, fn func(*Message)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.entries {
		if m.ID == id {
			fn(m)
			return true
		}
	}
	return false
}

// Clear resets the transcript to its initial greeting.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// Messages returns a snapshot of all entries.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Message, len(t.entries))
	for i, m := range t.entries {
		out[i] = *m
	}
	return out
}

// Get returns a copy of the entry with id.
func (t *Transcript) Get(id string) (Message, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.entries {
		if m.ID == id {
			return *m, true
		}
	}
	return Message{}, false
}

// IndexOf returns the position of the entry with id, or -1.
func (t *Transcript) IndexOf(id string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i, m := range t.entries {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Last returns a copy of the final entry.
func (t *Transcript) Last() Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return *t.entries[len(t.entries)-1]
}
