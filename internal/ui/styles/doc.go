// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the Modia TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals. NewTheme detects the background with termenv unless the user
forces a mode with the ui.theme setting.

# Palette

  - Purple: Modia's replies and focused fields
  - Cyan: brand, user messages, commands
  - Emerald: ready status and successful steps
  - Amber: busy status, toggles that are on
  - Rose: errors, offline status, failed steps

# Usage

	theme := styles.NewTheme("auto")
	fmt.Println(theme.StatusStyle(controller.StateReady).Render("● Ready"))
*/
package styles
