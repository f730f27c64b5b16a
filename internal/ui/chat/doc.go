// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model of the Modia terminal UI.

The model is a thin binding: every user action goes through a
controller.Controller, and the screen is redrawn from controller.View
snapshots. Network calls run inside tea.Cmds; the controller signals state
changes made on those goroutines through a channel that the model turns
into ChangedMsg.

# Layout

	header     brand and server URL
	viewport   transcript, help overlay, or the settings panel
	notice     last command result or error
	input      "> " prompt with slash-command completion
	status     indicator, Explain/Raw toggles, applied model, Send label
	shortcuts  key hints

While the settings menu is open the notice, input and status rows are
hidden and keys drive the panel instead.

# Key Bindings

	Enter       send the question or run a /command
	Ctrl+E      toggle explain mode
	Ctrl+R      toggle raw sources
	Ctrl+L      clear the chat
	Ctrl+O      open or close settings
	Tab         complete a /command, or move to the next settings field
	←/→         change the provider or model selector
	Esc         close settings, help or completions
	Ctrl+C      quit
*/
package chat
