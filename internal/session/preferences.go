// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"

	"github.com/jeranaias/modia-tui/internal/storage"
)

// State is an immutable snapshot of Preferences.
type State struct {
	ExplainMode bool
	RawMode     bool
	Provider    string
	Model       string
}

// Preferences is the mutable session state. Safe for concurrent use.
type Preferences struct {
	mu       sync.RWMutex
	explain  bool
	raw      bool
	provider string
	model    string
	store    storage.Prefs
}

// New creates preferences with the given initial toggles, loading the
// provider and model from store. A nil store keeps everything in memory.
func New(store storage.Prefs, explain, raw bool) *Preferences {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	p := &Preferences{explain: explain, raw: raw, store: store}
	p.provider, _ = store.Get(storage.KeyProvider)
	p.model, _ = store.Get(storage.KeyModel)
	return p
}

// Snapshot returns the current state.
func (p *Preferences) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{
		ExplainMode: p.explain,
		RawMode:     p.raw,
		Provider:    p.provider,
		Model:       p.model,
	}
}

// ToggleExplain flips explain mode and returns the new value.
func (p *Preferences) ToggleExplain() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.explain = !p.explain
	return p.explain
}

// ToggleRaw flips raw mode and returns the new value.
func (p *Preferences) ToggleRaw() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.raw = !p.raw
	return p.raw
}

// Provider returns the applied provider ("" = backend default).
func (p *Preferences) Provider() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.provider
}

// Model returns the applied model ("" = backend default).
func (p *Preferences) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// Apply commits provider and model to the session and durable storage.
// The in-memory values change even if persisting fails.
func (p *Preferences) Apply(provider, model string) error {
	p.mu.Lock()
	p.provider = provider
	p.model = model
	p.mu.Unlock()
	return Persist(p.store, provider, model)
}

// Store returns the backing durable store.
func (p *Preferences) Store() storage.Prefs {
	return p.store
}

// Persist writes provider then model to store.
func Persist(store storage.Prefs, provider, model string) error {
	if err := store.Set(storage.KeyProvider, provider); err != nil {
		return fmt.Errorf("persist provider: %w", err)
	}
	if err := store.Set(storage.KeyModel, model); err != nil {
		return fmt.Errorf("persist model: %w", err)
	}
	return nil
}

// Label renders a possibly empty selection as "(default)".
func Label(v string) string {
	if v == "" {
		return "(default)"
	}
	return v
}
