// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the chat transcript to a file.
//
// # Formats
//
//   - Markdown: YAML front matter, one section per entry, sources fenced
//   - JSON: the conversation structure as-is
//
// # Usage
//
//	conv := export.FromMessages(ctrl.Transcript().Messages())
//	exp, err := export.ForFormat("md", nil)
//	path, err := export.ExportToFile(conv, exp, nil)
package export
