// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across modia-tui.
//
//   - AtomicWriteFile: crash-safe file replacement for config and history
//   - Truncate / Tail: rune-safe cutting used by the source listing and ops log
//   - TruncateWidth / Width: terminal column math via go-runewidth
//   - NormalizeInput: whitespace trim plus NFC normalization of user input
package util
