// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the per-session chat preferences.
//
// Preferences is owned by one controller instance rather than living in
// package globals, so tests construct as many independent sessions as
// they need. The explain and raw toggles are transient; the selected
// provider and model are read from and written through to a durable
// storage.Prefs.
package session
