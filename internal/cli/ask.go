// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask [question]
//
// Examples:
//
//	modia ask "How do I install a plugin?"
//	modia ask --explain --raw "Why does /reload fail?"
//	modia ask --provider openai --model gpt-4o "Summarize the plugin API"
//	git diff | modia ask --json
//
// With no question on the command line and a piped stdin, the question is
// read from stdin. --provider and --model apply to this question only.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/session"
)

// maxStdinQuestion bounds a question read from stdin.
const maxStdinQuestion = 64 * 1024

// HandleAsk sends one question and prints the answer.
func HandleAsk(ctx context.Context, app *App, args Args) error {
	question := strings.TrimSpace(args.Query)
	if question == "" && !app.Interactive && app.In != nil {
		data, err := io.ReadAll(io.LimitReader(app.In, maxStdinQuestion))
		if err != nil {
			return NewCommandError("ask", "read", "could not read the question from stdin", err)
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return ErrMissingArgument("question", `modia ask "How do I install a plugin?"`)
	}

	prefs := app.preferences(args)
	ctrl := app.controller(prefs)

	start := time.Now()
	res := ctrl.Send(ctx, question)
	if res.Err != nil {
		return NewCommandError("ask", "send", "no answer", res.Err)
	}

	data := askData(ctrl, prefs.Snapshot(), question, res)
	data.DurationMs = time.Since(start).Milliseconds()

	return Emit(app.Out, args.Format(), "ask", data, func() {
		printAnswer(app, data, args.Quiet)
	})
}

// askData collects the reply, its metadata and any sources entry.
func askData(ctrl *controller.Controller, st session.State, question string, res controller.SendResult) AskData {
	data := AskData{
		Question:    question,
		Answer:      res.Answer,
		ExplainMode: st.ExplainMode,
	}
	if reply, ok := ctrl.Transcript().Get(res.ReplyID); ok {
		data.Provider = reply.Provider
		data.Model = reply.Model
	}
	if res.SourcesID != "" {
		if src, ok := ctrl.Transcript().Get(res.SourcesID); ok {
			data.Sources = src.Text
		}
	}
	return data
}

// printAnswer writes sources, the answer and a metadata line.
func printAnswer(app *App, data AskData, quiet bool) {
	if data.Sources != "" {
		fmt.Fprintln(app.Out, DimStyle.Render(data.Sources))
		fmt.Fprintln(app.Out)
	}
	fmt.Fprintln(app.Out, app.markdown().Render(data.Answer))

	if quiet {
		return
	}
	var meta []string
	if data.Provider != "" || data.Model != "" {
		meta = append(meta, strings.Trim(data.Provider+"/"+data.Model, "/"))
	}
	if data.ExplainMode {
		meta = append(meta, "explain")
	}
	if data.DurationMs > 0 {
		meta = append(meta, (time.Duration(data.DurationMs) * time.Millisecond).String())
	}
	if len(meta) > 0 {
		fmt.Fprintln(app.Out, DimStyle.Render("["+strings.Join(meta, " · ")+"]"))
	}
}
