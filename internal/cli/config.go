// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Client configuration command.
//
// Command: config [subcommand]
// Aliases: cfg
//
// Subcommands:
//
//	show (default)      Every key with its current value
//	get KEY             One value
//	set KEY VALUE       Change a value and save config.toml
//	path                Location of config.toml
//	keys                Settable keys
//
// Keys use dot notation, for example server.url or chat.top_k.
//
// Examples:
//
//	modia config set server.url http://10.0.0.5:8000
//	modia config set chat.explain_default true
//	modia config get chat.top_k --json
package cli

import (
	"fmt"
	"strings"

	"github.com/jeranaias/modia-tui/internal/config"
)

var configSubcommands = []string{"show", "get", "set", "path", "keys"}

// HandleConfig dispatches the config subcommands.
func HandleConfig(app *App, args Args) error {
	p := NewArgParser(args.Rest)
	switch sub := p.Subcommand(); sub {
	case "", "show", "list":
		return configShow(app, args)
	case "get":
		return configGet(app, args, p)
	case "set":
		return configSet(app, args, p)
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return NewCommandError("config", "path", "could not locate the config directory", err)
		}
		return Emit(app.Out, args.Format(), "config", ConfigValueData{Key: "path", Value: path}, func() {
			fmt.Fprintln(app.Out, path)
		})
	case "keys":
		keys := config.Keys()
		return Emit(app.Out, args.Format(), "config", keys, func() {
			fmt.Fprintln(app.Out, strings.Join(keys, "\n"))
		})
	default:
		return ErrUnknownSubcommand("config", sub, configSubcommands)
	}
}

func configShow(app *App, args Args) error {
	return Emit(app.Out, args.Format(), "config", app.Config, func() {
		fmt.Fprintln(app.Out, TitleStyle.Render("Configuration"))
		section := ""
		for _, key := range config.Keys() {
			head, _, _ := strings.Cut(key, ".")
			if head != section {
				section = head
				fmt.Fprintln(app.Out, SectionStyle.Render("["+section+"]"))
			}
			val, _ := app.Config.Get(key)
			fmt.Fprintf(app.Out, "  %s = %v\n", key, displayValue(val))
		}
	})
}

func configGet(app *App, args Args, p *ArgParser) error {
	key := p.Positional(1)
	if key == "" {
		return ErrMissingArgument("key", "modia config get server.url")
	}
	val, err := app.Config.Get(key)
	if err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "modia config keys"}
	}
	return Emit(app.Out, args.Format(), "config", ConfigValueData{Key: key, Value: val}, func() {
		fmt.Fprintln(app.Out, displayValue(val))
	})
}

// configSet edits the file-backed config rather than app.Config, so
// --server and environment overrides of this run are not written out.
func configSet(app *App, args Args, p *ArgParser) error {
	key := p.Positional(1)
	value := p.Join(2)
	if key == "" || p.PositionalCount() < 3 {
		return ErrMissingArgument("key and value", "modia config set chat.top_k 8")
	}

	cfg, err := config.Load()
	if err != nil {
		return NewCommandError("config", "set", "could not load the config", err)
	}
	oldVal, err := cfg.Get(key)
	if err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error(), Example: "modia config keys"}
	}
	if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: key, Value: value, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return NewCommandError("config", "set", "could not save the config", err)
	}

	newVal, _ := cfg.Get(key)
	_ = app.Config.Set(key, newVal)
	return Emit(app.Out, args.Format(), "config", ConfigValueData{Key: key, Value: newVal}, func() {
		fmt.Fprintf(app.Out, "%s %s: %v -> %v\n", RenderStatus("ok"), key, displayValue(oldVal), displayValue(newVal))
	})
}

// displayValue shows empty strings visibly.
func displayValue(v interface{}) interface{} {
	if s, ok := v.(string); ok && s == "" {
		return `""`
	}
	return v
}
