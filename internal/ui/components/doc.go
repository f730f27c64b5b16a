// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the visual building blocks of the Modia TUI.

Components render controller state; they never call the backend themselves.

# Display Components

CodeBlock (codeblock.go) - Syntax-highlighted code blocks using Chroma.
Markdown (markdown.go) - Glamour renderer for answers, with a plain fallback.
MessageView (message.go) - Transcript entries: user, assistant, sources, errors.
StatusBar (statusbar.go) - Status indicator, mode toggles, model and send label.

# Interactive Components

Spinner (spinner.go) - ASCII spinner shown while a request is pending.
SettingsPanel (settings.go) - The settings menu: provider and model selectors,
API key form, repositories, database stats, operation steps and log.

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	md := components.NewMarkdown(80)
	out := components.RenderTranscript(theme, view.Messages, components.MessageOptions{
		Width:    80,
		Markdown: md,
	})
*/
package components
