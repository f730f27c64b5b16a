// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable client-side preferences for modia.
//
// Preferences are plain string key/value pairs. An empty value means "use
// the backend default". Two keys are used by the chat client:
//
//   - modia_provider: the applied LLM provider
//   - modia_model: the applied model of that provider
//
// # Key Types
//
//   - Prefs: the key/value interface consumed by the controller
//   - SQLiteStore: Prefs persisted in a single-table SQLite file
//   - MemoryStore: Prefs kept in memory, for tests and --no-store runs
//
// # Usage
//
//	store, err := storage.Open(cfg.Storage.PrefsPath)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	provider, _ := store.Get(storage.KeyProvider)
package storage
