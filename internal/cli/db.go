// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// db.go - Knowledge base commands.
//
// Command: db [subcommand]
// Aliases: kb
//
// Subcommands:
//
//	stats (default)              Document count and embedding model
//	rebuild                      Sync repos, extract chunks and rebuild
//	search QUERY [--k N]         Ranked chunks with similarity scores
//	list [--limit N]             Stored documents
//	delete ID... | --all [--yes] Remove documents
//
// Examples:
//
//	modia db search "plugin lifecycle" --k 3
//	modia db delete --all --yes
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/session"
	"github.com/jeranaias/modia-tui/internal/util"
)

const (
	defaultListLimit = 20
	snippetRunes     = 240
)

var dbSubcommands = []string{"stats", "rebuild", "search", "list", "delete"}

// HandleDB dispatches the db subcommands.
func HandleDB(ctx context.Context, app *App, args Args) error {
	p := NewArgParser(args.Rest, "all", "yes", "y")
	switch sub := p.Subcommand(); sub {
	case "", "stats", "info":
		return dbStats(ctx, app, args)
	case "rebuild", "build":
		return dbRebuild(ctx, app, args)
	case "search", "find":
		return dbSearch(ctx, app, args, p)
	case "list", "ls":
		return dbList(ctx, app, args, p)
	case "delete", "rm":
		return dbDelete(ctx, app, args, p)
	default:
		return ErrUnknownSubcommand("db", sub, dbSubcommands)
	}
}

func dbStats(ctx context.Context, app *App, args Args) error {
	stats, err := app.Client.Stats(ctx)
	if err != nil {
		return NewCommandError("db", "stats", "could not read stats", err)
	}
	data := DBStatsData{TotalDocuments: stats.TotalDocuments, EmbeddingModel: stats.EmbeddingModel}
	return Emit(app.Out, args.Format(), "db", data, func() {
		fmt.Fprintln(app.Out, controller.FormatStats(stats))
	})
}

func dbRebuild(ctx context.Context, app *App, args Args) error {
	ctrl := app.controller(session.New(app.Prefs, false, false))
	if !args.Quiet && args.Format() == FormatText {
		fmt.Fprintln(app.Err, DimStyle.Render("Rebuilding database (extract chunks, build DB)..."))
	}
	if err := emitOperation(app, args, "db", ctrl, ctrl.RebuildDB(ctx), "rebuild"); err != nil {
		return err
	}
	if args.Format() == FormatText {
		fmt.Fprintln(app.Out, RenderField("Stats", ctrl.Stats()))
	}
	return nil
}

func dbSearch(ctx context.Context, app *App, args Args, p *ArgParser) error {
	query := strings.TrimSpace(p.Join(1))
	if query == "" {
		return ErrMissingArgument("query", `modia db search "plugin lifecycle" --k 3`)
	}
	k, err := p.FlagInt("k", app.Config.Chat.TopK)
	if err != nil {
		return err
	}

	results, err := app.Client.Search(ctx, query, k, true)
	if err != nil {
		return NewCommandError("db", "search", "search failed", err)
	}
	hits := make([]SearchHit, 0, len(results))
	for i, r := range results {
		hits = append(hits, SearchHit{
			Rank:    i + 1,
			Score:   r.Score,
			Source:  sourceOf(r.Metadata),
			Content: r.Content,
			Meta:    r.Metadata,
		})
	}

	return Emit(app.Out, args.Format(), "db", hits, func() {
		fmt.Fprintln(app.Out, TitleStyle.Render(fmt.Sprintf("Search: %q (top %d)", query, k)))
		if len(hits) == 0 {
			fmt.Fprintln(app.Out, DimStyle.Render("  No matching chunks."))
		}
		printHits(app, hits)
	})
}

func dbList(ctx context.Context, app *App, args Args, p *ArgParser) error {
	limit, err := p.FlagInt("limit", defaultListLimit)
	if err != nil {
		return err
	}
	resp, err := app.Client.ListDocuments(ctx, limit)
	if err != nil {
		return NewCommandError("db", "list", "could not list documents", err)
	}

	data := DocumentsData{Total: resp.Total, Documents: make([]SearchHit, 0, len(resp.Documents))}
	for i, d := range resp.Documents {
		data.Documents = append(data.Documents, SearchHit{
			Rank:    i + 1,
			Source:  sourceOf(d.Metadata),
			Content: d.Content,
			Meta:    d.Metadata,
		})
	}

	return Emit(app.Out, args.Format(), "db", data, func() {
		fmt.Fprintln(app.Out, TitleStyle.Render(fmt.Sprintf("Documents (%d of %d)", len(data.Documents), data.Total)))
		printHits(app, data.Documents)
	})
}

func dbDelete(ctx context.Context, app *App, args Args, p *ArgParser) error {
	all := p.BoolFlag("all")
	ids := p.PositionalFrom(1)
	if !all && len(ids) == 0 {
		return ErrMissingArgument("ids", "modia db delete <id>... | modia db delete --all --yes")
	}

	action := fmt.Sprintf("delete %d document(s)", len(ids))
	if all {
		action = "delete ALL documents"
	}
	if err := Confirm(app, action, p.BoolFlag("yes") || p.BoolFlag("y"), args.Format()); err != nil {
		return err
	}

	msg, err := app.Client.DeleteDocuments(ctx, ids, all)
	if err != nil {
		return NewCommandError("db", "delete", "documents were not deleted", err)
	}
	return emitMessage(app, args, "db", orText(msg, "Documents deleted"))
}

// =============================================================================
// HELPERS
// =============================================================================

// sourceOf picks the most useful origin field from chunk metadata.
func sourceOf(meta map[string]any) string {
	for _, key := range []string{"source", "file", "path", "url"} {
		if v, ok := meta[key]; ok {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return ""
}

func printHits(app *App, hits []SearchHit) {
	for _, h := range hits {
		head := fmt.Sprintf("[%d]", h.Rank)
		if h.Score != nil {
			head += " " + SuccessStyle.Render(strconv.FormatFloat(*h.Score, 'f', 3, 64))
		}
		if h.Source != "" {
			head += " " + DimStyle.Render(h.Source)
		}
		fmt.Fprintln(app.Out, head)
		snippet := util.Truncate(strings.Join(strings.Fields(h.Content), " "), snippetRunes)
		fmt.Fprintln(app.Out, "    "+snippet)
	}
}
