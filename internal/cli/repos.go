// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// repos.go - Source repository management.
//
// Command: repos [subcommand]
// Aliases: repo
//
// Subcommands:
//
//	list (default)    Registered repository URLs
//	add URL           Register a git repository
//	sync              Clone or pull every registered repository
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/session"
)

var repoSubcommands = []string{"list", "add", "sync"}

// HandleRepos dispatches the repos subcommands.
func HandleRepos(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Rest)
	switch sub := p.Subcommand(); sub {
	case "", "list", "ls":
		return reposList(ctx, app, args)
	case "add":
		return reposAdd(ctx, app, args, p)
	case "sync", "pull":
		return reposSync(ctx, app, args)
	default:
		return ErrUnknownSubcommand("repos", sub, repoSubcommands)
	}
}

func reposList(ctx context.Context, app *App, args Args) error {
	urls, err := app.Client.ListRepos(ctx)
	if err != nil {
		return NewCommandError("repos", "list", "could not read repos", err)
	}
	if urls == nil {
		urls = []string{}
	}
	return Emit(app.Out, args.Format(), "repos", ReposData{URLs: urls}, func() {
		printRepos(app, urls)
	})
}

func reposAdd(ctx context.Context, app *App, args Args, p *ArgParser) error {
	url := strings.TrimSpace(p.Join(1))
	if url == "" {
		return ErrMissingArgument("url", "modia repos add https://github.com/org/docs.git")
	}

	ctrl := app.controller(session.New(app.Prefs, false, false))
	if err := ctrl.AddRepo(ctx, url); err != nil {
		return NewCommandError("repos", "add", "the repo was not added", err)
	}
	urls, err := app.Client.ListRepos(ctx)
	if err != nil {
		return NewCommandError("repos", "add", "the repo was added but the list could not be read", err)
	}
	if urls == nil {
		urls = []string{}
	}
	return Emit(app.Out, args.Format(), "repos", ReposData{URLs: urls}, func() {
		fmt.Fprintf(app.Out, "%s Repo added: %s\n", RenderStatus("ok"), url)
		printRepos(app, urls)
	})
}

func reposSync(ctx context.Context, app *App, args Args) error {
	ctrl := app.controller(session.New(app.Prefs, false, false))
	if !args.Quiet && args.Format() == FormatText {
		fmt.Fprintln(app.Err, DimStyle.Render("Syncing repos (git clone/pull)..."))
	}
	err := ctrl.SyncRepos(ctx)
	return emitOperation(app, args, "repos", ctrl, err, "sync")
}

func printRepos(app *App, urls []string) {
	fmt.Fprintln(app.Out, TitleStyle.Render("Repositories"))
	if len(urls) == 0 {
		fmt.Fprintln(app.Out, DimStyle.Render("  No additional repos."))
		return
	}
	for _, u := range urls {
		fmt.Fprintln(app.Out, "  "+ValueStyle.Render(u))
	}
}

// emitOperation reports a finished sync or rebuild: its steps and the
// operations log, or the failure.
func emitOperation(app *App, args Args, command string, ctrl *controller.Controller, err error, action string) error {
	if err != nil {
		return NewCommandError(command, action, "operation failed", err)
	}
	logText := strings.TrimSpace(ctrl.Ops().String())
	data := OperationData{Steps: stepData(ctrl), Log: logText}

	return Emit(app.Out, args.Format(), command, data, func() {
		fmt.Fprintln(app.Out, SectionStyle.Render("Steps"))
		for _, line := range strings.Split(ctrl.Steps(), "\n") {
			fmt.Fprintln(app.Out, "  "+line)
		}
		if !args.Quiet && logText != "" {
			fmt.Fprintln(app.Out, SectionStyle.Render("Log"))
			fmt.Fprintln(app.Out, DimStyle.Render(logText))
		}
	})
}

// stepData recovers structured steps from the last operation.
func stepData(ctrl *controller.Controller) []StepData {
	steps := ctrl.LastSteps()
	out := make([]StepData, 0, len(steps))
	for _, s := range steps {
		out = append(out, StepData{Name: s.Name, OK: s.OK, DurationMs: s.DurationMS})
	}
	return out
}
