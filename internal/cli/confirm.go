// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation of destructive commands.
//
//  1. --yes proceeds without prompting
//  2. structured output (--json/--yaml) requires --yes
//  3. a non-interactive stdin requires --yes
//  4. otherwise the user is asked "[y/N]"

package cli

import (
	"bufio"
	"fmt"
	"strings"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = &CommandError{Command: "modia", Action: "confirm", Reason: "cancelled by user"}

// Confirm asks before a destructive action. It returns nil to proceed.
func Confirm(app *App, action string, yes bool, format OutputFormat) error {
	if yes {
		return nil
	}
	if format != FormatText || !app.Interactive {
		return &ValidationError{
			Field:   "--yes",
			Reason:  "confirmation required to " + action,
			Example: "add --yes to proceed without prompting",
		}
	}

	fmt.Fprintf(app.Err, "%s %s? [y/N] ", WarningStyle.Render("About to"), action)
	line, _ := bufio.NewReader(app.In).ReadString('\n')
	ok, err := ParseBoolString(strings.TrimSpace(line))
	if err != nil || !ok {
		return ErrCancelled
	}
	return nil
}
