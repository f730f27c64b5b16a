// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the chat transcript data structures.
//
// A Transcript is an ordered list of Messages. Each message has a role
// (user or ai) and a kind: plain text, or a retrieved-sources block that
// the UI renders as code. Entries are addressed by UUID so an in-flight
// "thinking" placeholder can be replaced when its answer arrives.
package model
