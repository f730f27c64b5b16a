// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// providers.go - LLM provider management.
//
// Command: providers [subcommand]
// Aliases: provider, llm
//
// Subcommands:
//
//	list (default)                        Providers, models and the applied selection
//	use PROVIDER [MODEL]                  Apply a provider and model for future chats
//	configure PROVIDER [--key K] [--base-url U]
//	                                      Store an API key on the backend and make
//	                                      the provider the backend default
//	default PROVIDER                      Make PROVIDER the backend default
//	remove PROVIDER                       Delete the provider's stored key
//
// configure prompts for the key without echo when --key is omitted.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/session"
	"github.com/jeranaias/modia-tui/internal/storage"
)

var providerSubcommands = []string{"list", "use", "configure", "default", "remove"}

// HandleProviders dispatches the providers subcommands.
func HandleProviders(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Rest)
	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return providersList(ctx, app, args)
	case "use", "select":
		return providersUse(ctx, app, args, p)
	case "configure", "key", "set-key":
		return providersConfigure(ctx, app, args, p)
	case "default":
		return providersDefault(ctx, app, args, p)
	case "remove", "rm":
		return providersRemove(ctx, app, args, p)
	default:
		return ErrUnknownSubcommand("providers", sub, providerSubcommands)
	}
}

func providersList(ctx context.Context, app *App, args Args) error {
	catalog, err := app.Client.Providers(ctx)
	if err != nil {
		return NewCommandError("providers", "list", "could not load providers", err)
	}
	selected := stored(app.Prefs, storage.KeyProvider)

	data := make([]ProviderData, 0, len(catalog))
	for _, pr := range catalog {
		models := pr.Models
		if models == nil {
			models = []string{}
		}
		data = append(data, ProviderData{
			Name:       pr.Name,
			Default:    pr.Default,
			Configured: pr.Configured || pr.Registered,
			Selected:   pr.Name == selected,
			Models:     models,
		})
	}

	return Emit(app.Out, args.Format(), "providers", data, func() {
		w := app.Out
		fmt.Fprintln(w, TitleStyle.Render("Providers"))
		if len(data) == 0 {
			fmt.Fprintln(w, DimStyle.Render("  The backend reports no providers."))
		}
		for _, pr := range data {
			marker := "  "
			if pr.Selected {
				marker = SuccessStyle.Render("* ")
			}
			var tags []string
			if pr.Default {
				tags = append(tags, "default")
			}
			if pr.Configured {
				tags = append(tags, "configured")
			}
			line := marker + ValueStyle.Render(pr.Name)
			if len(tags) > 0 {
				line += " " + DimStyle.Render("("+strings.Join(tags, ", ")+")")
			}
			fmt.Fprintln(w, line)
			if len(pr.Models) > 0 {
				fmt.Fprintln(w, DimStyle.Render("    "+strings.Join(pr.Models, ", ")))
			}
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, DimStyle.Render("Applied: "+session.Label(selected)+" / "+session.Label(stored(app.Prefs, storage.KeyModel))))
	})
}

// providersUse applies a provider and optional model the way the settings
// panel does: select, then apply.
func providersUse(ctx context.Context, app *App, args Args, p *ArgParser) error {
	name := p.Positional(1)
	if name == "" {
		return ErrMissingArgument("provider", "modia providers use openai gpt-4o")
	}
	if strings.EqualFold(name, "default") {
		name = ""
	}
	modelName := p.Positional(2)

	ctrl := app.controller(session.New(app.Prefs, false, false))
	if err := ctrl.LoadProviders(ctx, false); err != nil {
		return NewCommandError("providers", "use", "could not load providers", err)
	}
	if name != "" && !hasProvider(ctrl.Catalog(), name) {
		return &NotFoundError{Resource: "provider", ID: name}
	}
	if err := ctrl.SelectProvider(name); err != nil {
		return NewCommandError("providers", "use", "could not save the selection", err)
	}
	if modelName != "" {
		if err := ctrl.SelectModel(modelName); err != nil {
			return NewCommandError("providers", "use", "could not save the selection", err)
		}
	}
	if err := ctrl.ApplyModel(); err != nil {
		return NewCommandError("providers", "use", "could not save the selection", err)
	}

	provider, model := ctrl.Prefs().Provider(), ctrl.Prefs().Model()
	return Emit(app.Out, args.Format(), "providers", SelectionData{Provider: provider, Model: model}, func() {
		fmt.Fprintf(app.Out, "%s %s\n", RenderStatus("ok"), ctrl.CurrentModelText())
	})
}

// providersConfigure stores an API key through the controller. The
// durable selection is not changed.
func providersConfigure(ctx context.Context, app *App, args Args, p *ArgParser) error {
	name := p.Positional(1)
	if name == "" {
		return ErrMissingArgument("provider", "modia providers configure openai --key sk-...")
	}
	key := p.Flag("key")
	if key == "" {
		if err := RequiresTTY(app, "prompt for the API key"); err != nil {
			return ErrMissingArgument("--key", "modia providers configure "+name+" --key sk-...")
		}
		var err error
		if key, err = ReadSecret("API key for " + name + ": "); err != nil {
			return err
		}
	}

	ctrl := app.controller(session.New(app.overlay("", ""), false, false))
	if err := ctrl.LoadProviders(ctx, false); err != nil {
		return NewCommandError("providers", "configure", "could not load providers", err)
	}
	if !hasProvider(ctrl.Catalog(), name) {
		return &NotFoundError{Resource: "provider", ID: name}
	}
	_ = ctrl.SelectProvider(name)
	if err := ctrl.SaveAPIKey(ctx, key, p.Flag("base-url")); err != nil {
		return NewCommandError("providers", "configure", "the key was not saved", err)
	}

	msg := strings.TrimSpace(ctrl.Ops().String())
	return Emit(app.Out, args.Format(), "providers", MessageData{Message: msg}, func() {
		fmt.Fprintf(app.Out, "%s %s\n", RenderStatus("ok"), msg)
	})
}

func providersDefault(ctx context.Context, app *App, args Args, p *ArgParser) error {
	name := p.Positional(1)
	if name == "" {
		return ErrMissingArgument("provider", "modia providers default ollama")
	}
	msg, err := app.Client.SetDefault(ctx, name)
	if err != nil {
		return NewCommandError("providers", "default", "could not set the default", err)
	}
	return emitMessage(app, args, "providers", orText(msg, "Default provider set: "+name))
}

func providersRemove(ctx context.Context, app *App, args Args, p *ArgParser) error {
	name := p.Positional(1)
	if name == "" {
		return ErrMissingArgument("provider", "modia providers remove openai")
	}
	msg, err := app.Client.RemoveProvider(ctx, name)
	if err != nil {
		if api.StatusCode(err) == 404 {
			return &NotFoundError{Resource: "provider", ID: name}
		}
		return NewCommandError("providers", "remove", "could not remove the provider", err)
	}
	return emitMessage(app, args, "providers", orText(msg, "Configuration for '"+name+"' removed"))
}

// =============================================================================
// HELPERS
// =============================================================================

func hasProvider(catalog []api.Provider, name string) bool {
	for _, p := range catalog {
		if p.Name == name {
			return true
		}
	}
	return false
}

// stored reads a durable preference, "" when unavailable.
func stored(prefs storage.Prefs, key string) string {
	if prefs == nil {
		return ""
	}
	v, _ := prefs.Get(key)
	return v
}

func orText(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// emitMessage writes a one-line acknowledgement.
func emitMessage(app *App, args Args, command, msg string) error {
	return Emit(app.Out, args.Format(), command, MessageData{Message: msg}, func() {
		fmt.Fprintf(app.Out, "%s %s\n", RenderStatus("ok"), msg)
	})
}
