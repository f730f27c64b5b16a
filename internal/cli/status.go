// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - Backend and session status.
//
// Command: status
// Aliases: s
//
// Sections:
//
//	Backend:  health, knowledge base path and stats, server LLM
//	Session:  applied provider and model, chat defaults
//	Client:   config, preference and log file locations
package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/session"
)

// HandleStatus prints backend health and the session selection. An
// offline backend is reported, not returned as an error.
func HandleStatus(ctx context.Context, app *App, args Args) error {
	prefs := app.preferences(Args{})
	ctrl := app.controller(prefs)

	health := ctrl.CheckHealth(ctx)
	st := prefs.Snapshot()
	data := StatusData{
		Server:   app.Client.BaseURL(),
		Online:   health.Online,
		Reason:   health.Reason,
		DBExists: health.DBExists,
		DBPath:   health.DBPath,
		Session: StatusSession{
			Provider:    st.Provider,
			Model:       st.Model,
			ExplainMode: st.ExplainMode,
			RawMode:     st.RawMode,
			TopK:        app.Config.Chat.TopK,
		},
		Client: StatusClientCfg{
			PrefsPath: app.Config.Storage.PrefsPath,
			LogPath:   app.Config.Storage.LogPath,
		},
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		data.Client.ConfigPath = path
	}

	if health.Online {
		if stats, err := app.Client.Stats(ctx); err == nil {
			data.Documents = stats.TotalDocuments
			if stats.EmbeddingModel != nil {
				data.Embeddings = *stats.EmbeddingModel
			}
		}
		if sc, err := app.Client.ServerConfig(ctx); err == nil {
			data.LLMModel = sc.LLMModel
			if data.Embeddings == "" {
				data.Embeddings = sc.EmbeddingModel
			}
		}
	}

	return Emit(app.Out, args.Format(), "status", data, func() {
		printStatus(app, data)
	})
}

func printStatus(app *App, d StatusData) {
	w := app.Out
	fmt.Fprintln(w, TitleStyle.Render("Modia Status"))
	fmt.Fprintln(w, RenderSeparator(40))

	fmt.Fprintln(w, SectionStyle.Render("Backend"))
	fmt.Fprintln(w, RenderField("URL", d.Server))
	if d.Online {
		fmt.Fprintln(w, RenderField("Health", RenderStatus("online")+" online"))
	} else {
		fmt.Fprintln(w, RenderField("Health", RenderStatus("offline")+" "+d.Reason))
	}
	if d.DBPath != "" {
		db := d.DBPath
		if d.DBExists != nil && !*d.DBExists {
			db += " " + WarningStyle.Render("(missing - run: modia db rebuild)")
		}
		fmt.Fprintln(w, RenderField("Database", db))
	}
	if d.Documents != nil {
		fmt.Fprintln(w, RenderField("Documents", strconv.Itoa(*d.Documents)))
	}
	if d.Embeddings != "" {
		fmt.Fprintln(w, RenderField("Embeddings", d.Embeddings))
	}
	if d.LLMModel != "" {
		fmt.Fprintln(w, RenderField("Server LLM", d.LLMModel))
	}

	fmt.Fprintln(w, SectionStyle.Render("Session"))
	fmt.Fprintln(w, RenderField("Provider", session.Label(d.Session.Provider)))
	fmt.Fprintln(w, RenderField("Model", session.Label(d.Session.Model)))
	fmt.Fprintln(w, RenderField("Explain", onOff(d.Session.ExplainMode)))
	fmt.Fprintln(w, RenderField("Raw", onOff(d.Session.RawMode)))
	fmt.Fprintln(w, RenderField("Top K", strconv.Itoa(d.Session.TopK)))

	fmt.Fprintln(w, SectionStyle.Render("Client"))
	fmt.Fprintln(w, RenderField("Config", d.Client.ConfigPath))
	fmt.Fprintln(w, RenderField("Preferences", d.Client.PrefsPath))
	fmt.Fprintln(w, RenderField("Log", d.Client.LogPath))
}
