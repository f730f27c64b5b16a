// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive line-mode chat.
//
// Command: chat [--explain] [--raw] [--provider NAME] [--model NAME]
//
// A readline-style REPL over the same controller and slash commands as the
// TUI. Input history is kept in storage.history_path with secret command
// arguments masked. Ctrl+C at the prompt exits; during a question it
// cancels the request.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"

	"github.com/jeranaias/modia-tui/internal/commands"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/ui/components"
)

// REPL is one interactive chat session.
type REPL struct {
	app       *App
	ctrl      *controller.Controller
	registry  *commands.Registry
	parser    *commands.Parser
	completer *commands.Completer
	cmdCtx    *commands.Context
	markdown  *components.Markdown

	line        *liner.State
	historyPath string
}

// NewREPL creates a session. It does not touch the terminal until Run.
func NewREPL(app *App, args Args) *REPL {
	reg := commands.NewRegistry()
	ctrl := app.controller(app.preferences(args))
	return &REPL{
		app:         app,
		ctrl:        ctrl,
		registry:    reg,
		parser:      commands.NewParser(reg),
		completer:   commands.NewCompleter(reg),
		cmdCtx:      commands.NewContext(ctrl, app.Config, reg),
		markdown:    app.markdown(),
		historyPath: app.Config.Storage.HistoryPath,
	}
}

// Controller returns the session's controller.
func (r *REPL) Controller() *controller.Controller {
	return r.ctrl
}

// HandleChat runs the REPL until the user quits.
func HandleChat(ctx context.Context, app *App, args Args) error {
	if err := RequiresTTY(app, "chat"); err != nil {
		return err
	}
	return NewREPL(app, args).Run(ctx)
}

// Run reads and handles lines until EOF, Ctrl+C at the prompt, or /quit.
func (r *REPL) Run(ctx context.Context) error {
	r.line = liner.NewLiner()
	r.line.SetCtrlCAborts(true)
	r.line.SetTabCompletionStyle(liner.TabPrints)
	r.line.SetCompleter(r.complete)
	r.loadHistory()
	defer func() {
		r.saveHistory()
		r.line.Close()
	}()

	r.printWelcome(ctx)

	for {
		input, err := r.line.Prompt("modia> ")
		switch {
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			fmt.Fprintln(r.app.Out)
			return nil
		case err != nil:
			return fmt.Errorf("read input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			r.line.AppendHistory(commands.Redact(r.registry, input))
		}
		if r.Handle(ctx, input) {
			return nil
		}
	}
}

// Handle processes one input line and reports whether the session should
// end.
func (r *REPL) Handle(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return false
	case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
		return true
	case commands.IsCommand(input):
		return r.runCommand(ctx, input)
	}

	sendCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	fmt.Fprintln(r.app.Err, DimStyle.Render(controller.Placeholder))
	res := r.ctrl.Send(sendCtx, input)
	switch {
	case errors.Is(res.Err, controller.ErrSendInFlight):
		fmt.Fprintln(r.app.Err, WarningStyle.Render("A question is already pending."))
		return false
	case res.Err != nil:
		fmt.Fprintf(r.app.Err, "%s %s\n", ErrorStyle.Render("[Error]"), res.Err)
		return false
	}

	if res.SourcesID != "" {
		if src, ok := r.ctrl.Transcript().Get(res.SourcesID); ok {
			fmt.Fprintln(r.app.Out, DimStyle.Render(src.Text))
			fmt.Fprintln(r.app.Out)
		}
	}
	fmt.Fprintln(r.app.Out, r.markdown.Render(res.Answer))
	fmt.Fprintln(r.app.Out)
	return false
}

func (r *REPL) runCommand(ctx context.Context, input string) bool {
	log.Printf("REPL_COMMAND | input=%q", commands.Redact(r.registry, input))
	r.cmdCtx.Base = ctx

	res := r.parser.Parse(input)
	switch msg := commands.Run(r.cmdCtx, res).(type) {
	case nil:
	case tea.QuitMsg:
		return true
	case commands.ShowHelpMsg:
		fmt.Fprintln(r.app.Out, msg.Text)
	case commands.ResultMsg:
		if msg.Err != nil {
			fmt.Fprintf(r.app.Err, "%s %s\n", ErrorStyle.Render("[Error]"), msg.Err)
		} else if msg.Text != "" {
			fmt.Fprintln(r.app.Out, msg.Text)
		}
	case commands.ConfigUpdateMsg:
		if msg.Err != nil {
			fmt.Fprintf(r.app.Err, "%s %s\n", ErrorStyle.Render("[Error]"), msg.Err)
			break
		}
		r.applyConfig(msg.Config)
		fmt.Fprintf(r.app.Out, "%s = %v\n", msg.Key, msg.Value)
	default:
		log.Printf("REPL_UNHANDLED | type=%T", msg)
	}
	return false
}

// applyConfig picks up settings changed with /config.
func (r *REPL) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	r.app.Config = cfg
	r.cmdCtx.Config = cfg
	r.app.Client.SetBaseURL(cfg.Server.URL)
	r.ctrl.SetTopK(cfg.Chat.TopK)
	r.markdown = r.app.markdown()
}

// complete offers slash-command completions for liner.
func (r *REPL) complete(line string) []string {
	if !commands.IsCommand(line) {
		return nil
	}
	var out []string
	for _, c := range r.completer.Complete(line) {
		out = append(out, commands.Apply(line, c.Value))
	}
	return out
}

func (r *REPL) printWelcome(ctx context.Context) {
	fmt.Fprintln(r.app.Out, TitleStyle.Render("Modia chat")+"  "+DimStyle.Render(r.app.Client.BaseURL()))

	health := r.ctrl.CheckHealth(ctx)
	if !health.Online {
		fmt.Fprintf(r.app.Err, "%s backend offline: %s\n", WarningStyle.Render("[WARN]"), health.Reason)
	}
	st := r.ctrl.Prefs().Snapshot()
	fmt.Fprintln(r.app.Out, DimStyle.Render(fmt.Sprintf(
		"Model: %s  Explain: %s  Raw: %s  Type /help for commands, Ctrl+D to exit.",
		r.ctrl.CurrentModelText(), onOff(st.ExplainMode), onOff(st.RawMode))))
	fmt.Fprintln(r.app.Out)
}

// =============================================================================
// HISTORY
// =============================================================================

func (r *REPL) loadHistory() {
	if r.historyPath == "" {
		return
	}
	f, err := os.Open(r.historyPath)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := r.line.ReadHistory(f); err != nil {
		log.Printf("HISTORY_READ_FAILED | path=%s error=%v", r.historyPath, err)
	}
}

// saveHistory writes history owner-only.
func (r *REPL) saveHistory() {
	if r.historyPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.historyPath), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		log.Printf("HISTORY_WRITE_FAILED | path=%s error=%v", r.historyPath, err)
		return
	}
	defer f.Close()
	if _, err := r.line.WriteHistory(f); err != nil {
		log.Printf("HISTORY_WRITE_FAILED | path=%s error=%v", r.historyPath, err)
	}
}
