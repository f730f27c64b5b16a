// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// memory.go - Conversation memory kept by the backend.
//
// Command: memory [subcommand]
// Aliases: mem
//
// Subcommands:
//
//	show (default)    Remembered turns, oldest first
//	clear [--yes]     Forget the conversation
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/modia-tui/internal/util"
)

const memoryPreviewRunes = 400

var memorySubcommands = []string{"show", "clear"}

// HandleMemory dispatches the memory subcommands.
func HandleMemory(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Rest, "yes", "y")
	switch sub := p.Subcommand(); sub {
	case "", "show", "list":
		return memoryShow(ctx, app, args)
	case "clear", "forget", "reset":
		if err := Confirm(app, "clear the conversation memory", p.BoolFlag("yes") || p.BoolFlag("y"), args.Format()); err != nil {
			return err
		}
		msg, err := app.Client.ClearMemory(ctx)
		if err != nil {
			return NewCommandError("memory", "clear", "memory was not cleared", err)
		}
		return emitMessage(app, args, "memory", orText(msg, "Memory cleared"))
	default:
		return ErrUnknownSubcommand("memory", sub, memorySubcommands)
	}
}

func memoryShow(ctx context.Context, app *App, args Args) error {
	entries, err := app.Client.Memory(ctx)
	if err != nil {
		return NewCommandError("memory", "show", "could not read memory", err)
	}
	data := MemoryData{Entries: make([]MemoryEntryData, 0, len(entries))}
	for _, e := range entries {
		data.Entries = append(data.Entries, MemoryEntryData{Role: e.Role, Content: e.Content})
	}

	return Emit(app.Out, args.Format(), "memory", data, func() {
		fmt.Fprintln(app.Out, TitleStyle.Render(fmt.Sprintf("Memory (%d)", len(data.Entries))))
		if len(data.Entries) == 0 {
			fmt.Fprintln(app.Out, DimStyle.Render("  Memory is empty."))
			return
		}
		for _, e := range data.Entries {
			role := LabelStyle.Render(strings.ToUpper(e.Role) + ":")
			fmt.Fprintln(app.Out, role+" "+util.Truncate(strings.TrimSpace(e.Content), memoryPreviewRunes))
		}
	})
}
