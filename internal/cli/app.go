// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/session"
	"github.com/jeranaias/modia-tui/internal/storage"
	"github.com/jeranaias/modia-tui/internal/ui/components"
)

// App is the environment every subcommand runs in.
type App struct {
	Config *config.Config
	Client *api.Client
	// Prefs is the durable provider/model store. Nil keeps the selection
	// in memory for this run.
	Prefs storage.Prefs

	Out io.Writer
	Err io.Writer
	In  io.Reader

	// Interactive is true when In is a terminal that can be prompted.
	Interactive bool
	// Width is the output width used for wrapping and markdown.
	Width int
}

// NewApp creates an App on the process's standard streams.
func NewApp(cfg *config.Config, client *api.Client, prefs storage.Prefs) *App {
	return &App{
		Config:      cfg,
		Client:      client,
		Prefs:       prefs,
		Out:         os.Stdout,
		Err:         os.Stderr,
		In:          os.Stdin,
		Interactive: IsTTY(),
		Width:       GetTerminalWidth(),
	}
}

// Execute runs a parsed command other than the TUI.
func Execute(ctx context.Context, app *App, cmd Command, args Args) error {
	switch cmd {
	case CmdAsk:
		return HandleAsk(ctx, app, args)
	case CmdChat:
		return HandleChat(ctx, app, args)
	case CmdStatus:
		return HandleStatus(ctx, app, args)
	case CmdProviders:
		return HandleProviders(ctx, app, args)
	case CmdRepos:
		return HandleRepos(ctx, app, args)
	case CmdDB:
		return HandleDB(ctx, app, args)
	case CmdMemory:
		return HandleMemory(ctx, app, args)
	case CmdConfig:
		return HandleConfig(app, args)
	case CmdVersion:
		return HandleVersion(app, args)
	case CmdHelp:
		PrintUsage(app.Out)
		return nil
	case CmdUnknown:
		return unknownCommand(args)
	}
	return fmt.Errorf("%s cannot run outside the TUI", cmd)
}

// preferences builds session preferences for one run. --provider and
// --model override the durable selection without writing to it.
func (a *App) preferences(args Args) *session.Preferences {
	explain := a.Config.Chat.ExplainDefault || args.ExplainMode
	raw := a.Config.Chat.RawDefault || args.RawMode
	if args.Provider == "" && args.Model == "" {
		return session.New(a.Prefs, explain, raw)
	}
	return session.New(a.overlay(args.Provider, args.Model), explain, raw)
}

// overlay returns an in-memory copy of the durable selection with
// provider and model replaced where non-empty. A new provider drops the
// stored model, which belonged to the old one.
func (a *App) overlay(provider, model string) storage.Prefs {
	var curProvider, curModel string
	if a.Prefs != nil {
		curProvider, _ = a.Prefs.Get(storage.KeyProvider)
		curModel, _ = a.Prefs.Get(storage.KeyModel)
	}
	if provider != "" && provider != curProvider {
		curProvider, curModel = provider, ""
	}
	if model != "" {
		curModel = model
	}
	mem := storage.NewMemoryStore()
	_ = session.Persist(mem, curProvider, curModel)
	return mem
}

// controller creates a controller over prefs.
func (a *App) controller(prefs *session.Preferences) *controller.Controller {
	return controller.New(controller.Options{
		Client: a.Client,
		Prefs:  prefs,
		TopK:   a.Config.Chat.TopK,
	})
}

// markdown returns a renderer for answers, or nil when answers should be
// printed verbatim.
func (a *App) markdown() *components.Markdown {
	if !a.Config.Chat.RenderMarkdown || !ColorsEnabled() {
		return nil
	}
	width := a.Width
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	return components.NewMarkdown(width - 2)
}
