// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/export"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// ShowHelpMsg carries rendered help text.
type ShowHelpMsg struct {
	Topic string
	Text  string
}

// ResultMsg is the outcome of a command that ran a controller action or
// touched configuration.
type ResultMsg struct {
	Command string
	Text    string
	Err     error
}

// ConfigUpdateMsg reports a configuration change made with /config.
type ConfigUpdateMsg struct {
	Key      string
	Value    interface{}
	OldValue interface{}
	Config   *config.Config
	Err      error
}

// =============================================================================
// EXECUTION
// =============================================================================

// Execute turns a parsed command into a tea.Cmd. Parse errors come back
// as a ResultMsg so the caller has a single message type to render.
func Execute(ctx *Context, res ParseResult) tea.Cmd {
	if !res.IsCommand {
		return nil
	}
	if res.Error != nil {
		err := res.Error
		name := res.CommandName
		return func() tea.Msg { return ResultMsg{Command: name, Err: err} }
	}

	cmd := res.Command
	args := res.Args
	if cmd.RawText && res.RawArgs != "" {
		args = []string{res.RawArgs}
	}
	log.Printf("COMMAND | name=%s args=%d", cmd.Name, len(args))
	if cmd.Handler != nil {
		return cmd.Handler(ctx, args)
	}
	return dispatch(ctx, cmd.Name, cmd.Action, args)
}

// Run executes a command synchronously and returns its message. The REPL
// uses it where there is no bubbletea runtime.
func Run(ctx *Context, res ParseResult) tea.Msg {
	cmd := Execute(ctx, res)
	if cmd == nil {
		return nil
	}
	return cmd()
}

func dispatch(ctx *Context, name, action string, args []string) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Controller == nil {
			return ResultMsg{Command: name, Err: fmt.Errorf("%s: no backend connection", name)}
		}
		r := ctx.Controller.Dispatch(ctx.base(), action, args)
		return ResultMsg{Command: name, Text: r.Text, Err: r.Err}
	}
}

// =============================================================================
// HANDLER IMPLEMENTATIONS
// =============================================================================

// HandleHelp renders help for every command or a single one.
func HandleHelp(ctx *Context, args []string) tea.Cmd {
	topic := ""
	if len(args) > 0 {
		topic = args[0]
	}
	var reg *Registry
	if ctx != nil {
		reg = ctx.Registry
	}
	if reg == nil {
		reg = NewRegistry()
	}
	text := HelpText(reg, topic)
	return func() tea.Msg {
		return ShowHelpMsg{Topic: topic, Text: text}
	}
}

// HandleQuit exits the application.
func HandleQuit(ctx *Context, args []string) tea.Cmd {
	return tea.Quit
}

// HandleRepo handles "/repo add <url>".
func HandleRepo(ctx *Context, args []string) tea.Cmd {
	url := ""
	if len(args) > 1 {
		url = strings.Join(args[1:], " ")
	}
	return dispatch(ctx, "/repo", controller.ActionAddRepo, []string{url})
}

// HandleExport writes the transcript to a Markdown or JSON file.
func HandleExport(ctx *Context, args []string) tea.Cmd {
	format, dir := "md", "."
	if len(args) > 0 {
		format = args[0]
	}
	if len(args) > 1 {
		dir = strings.Join(args[1:], " ")
	}
	return func() tea.Msg {
		if ctx == nil || ctx.Controller == nil {
			return ResultMsg{Command: "/export", Err: fmt.Errorf("/export: nothing to export")}
		}
		opts := export.DefaultOptions()
		opts.OutputDir = dir
		exporter, err := export.ForFormat(format, opts)
		if err != nil {
			return ResultMsg{Command: "/export", Err: err}
		}

		conv := export.FromMessages(ctx.Controller.Transcript().Messages())
		conv.Provider = ctx.Controller.Prefs().Provider()
		conv.Model = ctx.Controller.Prefs().Model()
		if ctx.Config != nil {
			conv.Server = ctx.Config.Server.URL
		}

		path, err := export.ExportToFile(conv, exporter, opts)
		if err != nil {
			return ResultMsg{Command: "/export", Err: err}
		}
		log.Printf("EXPORT | format=%s path=%s messages=%d", format, path, len(conv.Messages))
		return ResultMsg{Command: "/export", Text: "Exported to " + path}
	}
}

// HandleConfig shows all settings, one setting, or sets one.
// Changes are saved to the config file.
func HandleConfig(ctx *Context, args []string) tea.Cmd {
	if ctx == nil || ctx.Config == nil {
		return func() tea.Msg {
			return ResultMsg{Command: "/config", Err: fmt.Errorf("/config: configuration not loaded")}
		}
	}
	cfg := ctx.Config

	switch len(args) {
	case 0:
		var b strings.Builder
		for i, key := range config.Keys() {
			if i > 0 {
				b.WriteString("\n")
			}
			val, _ := cfg.Get(key)
			fmt.Fprintf(&b, "%s = %v", key, val)
		}
		text := b.String()
		return func() tea.Msg { return ResultMsg{Command: "/config", Text: text} }

	case 1:
		val, err := cfg.Get(args[0])
		if err != nil {
			return func() tea.Msg { return ResultMsg{Command: "/config", Err: err} }
		}
		text := fmt.Sprintf("%s = %v", args[0], val)
		return func() tea.Msg { return ResultMsg{Command: "/config", Text: text} }
	}

	key := args[0]
	value := strings.Join(args[1:], " ")
	return func() tea.Msg {
		oldVal, _ := cfg.Get(key)
		if err := cfg.Set(key, value); err != nil {
			return ConfigUpdateMsg{Key: key, Err: err}
		}
		if err := cfg.Validate(); err != nil {
			_ = cfg.Set(key, oldVal)
			return ConfigUpdateMsg{Key: key, Err: err}
		}
		if err := config.Save(cfg); err != nil {
			return ConfigUpdateMsg{Key: key, Err: err}
		}
		newVal, _ := cfg.Get(key)
		return ConfigUpdateMsg{Key: key, Value: newVal, OldValue: oldVal, Config: cfg}
	}
}

// =============================================================================
// HELP TEXT
// =============================================================================

// HelpText lists commands by category. A topic naming a command shows
// only that command.
func HelpText(reg *Registry, topic string) string {
	if topic != "" {
		name := topic
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		if cmd := reg.Get(strings.ToLower(name)); cmd != nil {
			return commandHelp(cmd)
		}
		return fmt.Sprintf("No command %s. Type /help for the list.", name)
	}

	groups := reg.ByCategory()
	var b strings.Builder
	for _, category := range categoryOrder {
		cmds := groups[category]
		if len(cmds) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(category + ":\n")
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&b, "  %-26s %s\n", usage, cmd.Description)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func commandHelp(cmd *Command) string {
	var b strings.Builder
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	b.WriteString(usage + "\n  " + cmd.Description)
	if len(cmd.Aliases) > 0 {
		b.WriteString("\n  aliases: " + strings.Join(cmd.Aliases, ", "))
	}
	for _, arg := range cmd.Args {
		req := "optional"
		if arg.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "\n  %s (%s): %s", arg.Name, req, arg.Description)
	}
	return b.String()
}

// Redact replaces secret arguments in a command line with asterisks, for
// history files and echo.
func Redact(reg *Registry, input string) string {
	name := ExtractCommandName(input)
	cmd := reg.Get(strings.ToLower(name))
	if cmd == nil {
		return input
	}
	args := splitCommandLine(strings.TrimSpace(strings.TrimSpace(input)[len(name):]))
	changed := false
	for i, def := range cmd.Args {
		if def.Secret && i < len(args) {
			args[i] = strings.Repeat("*", 8)
			changed = true
		}
	}
	if !changed {
		return input
	}
	return strings.TrimSpace(name + " " + strings.Join(args, " "))
}
