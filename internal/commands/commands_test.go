// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modia-tui/internal/apitest"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/export"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"/provider openai", true},
		{"  /help", true},
		{"hello", false},
		{"what does /reload do?", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsCommand(tc.input); got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/help", "/help"},
		{"/provider openai", "/provider"},
		{"  /stats  ", "/stats"},
		{"hello", ""},
	}

	for _, tc := range tests {
		if got := ExtractCommandName(tc.input); got != tc.want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestGetPartialCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/pro", "/pro"},
		{"/provider ", ""},
		{"hello", ""},
	}

	for _, tc := range tests {
		if got := GetPartialCommand(tc.input); got != tc.want {
			t.Errorf("GetPartialCommand(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"openai", []string{"openai"}},
		{`"how do plugins load"`, []string{"how do plugins load"}},
		{`'single quoted' next`, []string{"single quoted", "next"}},
		{`"say \"hi\""`, []string{`say "hi"`}},
		{`sk-1 ""`, []string{"sk-1", ""}},
		{"  spaced   out  ", []string{"spaced", "out"}},
	}

	for _, tc := range tests {
		got := ParseArgs(tc.input)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") || len(got) != len(tc.want) {
			t.Errorf("ParseArgs(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse("how do I install plugins?")
	if res.IsCommand {
		t.Fatal("chat text parsed as a command")
	}

	res = p.Parse("/P openai")
	if res.Error != nil || res.Command == nil || res.Command.Name != "/provider" {
		t.Fatalf("Parse(/P openai) = %+v", res)
	}
	if len(res.Args) != 1 || res.Args[0] != "openai" || res.RawArgs != "openai" {
		t.Errorf("args = %q raw = %q", res.Args, res.RawArgs)
	}

	res = p.Parse("/launch")
	if !errors.Is(res.Error, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v", res.Error)
	}

	res = p.Parse("/repo remove x")
	var ve *ValidationError
	if !errors.As(res.Error, &ve) || ve.Arg != "verb" {
		t.Errorf("enum validation error = %v", res.Error)
	}

	res = p.Parse("/key")
	if !errors.As(res.Error, &ve) || ve.Arg != "api_key" {
		t.Errorf("required validation error = %v", res.Error)
	}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_ActionsExist(t *testing.T) {
	b := apitest.New(t)
	ctrl := controller.New(controller.Options{Client: b.Client()})
	actions := ctrl.Actions()

	for _, cmd := range NewRegistry().All() {
		if cmd.Handler == nil && cmd.Action == "" {
			t.Errorf("%s has neither handler nor action", cmd.Name)
		}
		if cmd.Action != "" {
			if _, ok := actions[cmd.Action]; !ok {
				t.Errorf("%s maps to unknown action %q", cmd.Name, cmd.Action)
			}
		}
	}
}

func TestRegistry_Aliases(t *testing.T) {
	r := NewRegistry()
	for alias, want := range map[string]string{"/h": "/help", "/q": "/quit", "/m": "/model", "/status": "/health"} {
		cmd := r.Get(alias)
		if cmd == nil || cmd.Name != want {
			t.Errorf("Get(%q) = %v, want %s", alias, cmd, want)
		}
	}
	if r.Get("/nonexistent") != nil {
		t.Error("/nonexistent should return nil")
	}
}

func TestHelpText(t *testing.T) {
	r := NewRegistry()

	all := HelpText(r, "")
	for _, want := range []string{"Conversation:", "Model:", "Knowledge base:", "/key <api_key> [base_url]", "/rebuild"} {
		if !strings.Contains(all, want) {
			t.Errorf("help missing %q", want)
		}
	}
	if strings.Index(all, "Conversation:") > strings.Index(all, "Settings:") {
		t.Error("categories out of order")
	}

	one := HelpText(r, "search")
	if !strings.HasPrefix(one, "/search <query>") || !strings.Contains(one, "aliases: /s") {
		t.Errorf("HelpText(search) = %q", one)
	}
	if got := HelpText(r, "nope"); !strings.Contains(got, "No command /nope") {
		t.Errorf("HelpText(nope) = %q", got)
	}
}

func TestRedact(t *testing.T) {
	r := NewRegistry()
	if got := Redact(r, "/key sk-secret https://api.example.com"); got != "/key ******** https://api.example.com" {
		t.Errorf("Redact = %q", got)
	}
	if got := Redact(r, "/provider openai"); got != "/provider openai" {
		t.Errorf("Redact changed a non-secret command: %q", got)
	}
}

// =============================================================================
// EXECUTION TESTS
// =============================================================================

func newContext(t *testing.T) (*Context, *apitest.Backend) {
	t.Helper()
	b := apitest.New(t)
	ctrl := controller.New(controller.Options{Client: b.Client()})
	reg := NewRegistry()
	return NewContext(ctrl, config.Default(), reg), b
}

func run(t *testing.T, ctx *Context, input string) tea.Msg {
	t.Helper()
	return Run(ctx, NewParser(ctx.Registry).Parse(input))
}

func TestExecute_DispatchesActions(t *testing.T) {
	ctx, b := newContext(t)

	msg, ok := run(t, ctx, "/stats").(ResultMsg)
	if !ok || msg.Err != nil || msg.Text != "Docs: 10 · Embeddings: text-embedding-3" {
		t.Fatalf("/stats = %#v", msg)
	}

	msg = run(t, ctx, "/repo add https://github.com/x/y.git").(ResultMsg)
	if msg.Err != nil || msg.Text != "https://github.com/x/y.git" {
		t.Errorf("/repo add = %#v", msg)
	}
	if b.Count(http.MethodPost, "/api/repos") != 1 {
		t.Error("repo not posted")
	}

	msg = run(t, ctx, "/explain").(ResultMsg)
	if msg.Text != "Explain mode on." {
		t.Errorf("/explain = %q", msg.Text)
	}
}

func TestExecute_SearchKeepsRawText(t *testing.T) {
	ctx, b := newContext(t)

	msg := run(t, ctx, `/search plugin   "life cycle"`).(ResultMsg)
	if msg.Err != nil {
		t.Fatal(msg.Err)
	}
	req, ok := b.Last(http.MethodGet, "/api/db/search")
	if !ok {
		t.Fatal("search not requested")
	}
	if got := req.Query.Get("query"); got != `plugin   "life cycle"` {
		t.Errorf("query = %q", got)
	}
}

func TestExecute_ReportsParseErrors(t *testing.T) {
	ctx, b := newContext(t)

	msg := run(t, ctx, "/search").(ResultMsg)
	if msg.Err == nil {
		t.Fatal("expected validation error")
	}
	if len(b.Requests()) != 0 {
		t.Error("invalid command reached the backend")
	}
}

func TestExecute_ChatTextIsNotACommand(t *testing.T) {
	ctx, _ := newContext(t)
	if msg := run(t, ctx, "hello there"); msg != nil {
		t.Errorf("chat text produced %#v", msg)
	}
}

func TestExecute_Help(t *testing.T) {
	ctx, _ := newContext(t)
	msg, ok := run(t, ctx, "/help raw").(ShowHelpMsg)
	if !ok || !strings.HasPrefix(msg.Text, "/raw") {
		t.Errorf("/help raw = %#v", msg)
	}
}

func TestHandleConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MODIA_HOME", dir)
	ctx, _ := newContext(t)

	msg := run(t, ctx, "/config chat.top_k").(ResultMsg)
	if msg.Text != "chat.top_k = 5" {
		t.Errorf("get = %q", msg.Text)
	}

	upd := run(t, ctx, "/config chat.top_k 8").(ConfigUpdateMsg)
	if upd.Err != nil || upd.Value != 8 || upd.OldValue != 5 {
		t.Fatalf("set = %#v", upd)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.toml")); err != nil {
		t.Errorf("config not saved: %v", err)
	}

	upd = run(t, ctx, "/config chat.top_k 500").(ConfigUpdateMsg)
	if upd.Err == nil {
		t.Error("out of range value accepted")
	}
	if v, _ := ctx.Config.Get("chat.top_k"); v != 8 {
		t.Errorf("invalid value not rolled back: %v", v)
	}

	all := run(t, ctx, "/config").(ResultMsg)
	if !strings.Contains(all.Text, "server.url = ") {
		t.Errorf("/config = %q", all.Text)
	}
}

func TestHandleExport(t *testing.T) {
	ctx, _ := newContext(t)
	dir := t.TempDir()

	msg := run(t, ctx, "/export md "+dir).(ResultMsg)
	if !errors.Is(msg.Err, export.ErrEmpty) {
		t.Fatalf("empty transcript exported: %#v", msg)
	}

	if res := ctx.Controller.Send(context.Background(), "what is a plugin?"); res.Err != nil {
		t.Fatal(res.Err)
	}
	msg = run(t, ctx, "/export json "+dir).(ResultMsg)
	if msg.Err != nil {
		t.Fatal(msg.Err)
	}
	path := strings.TrimPrefix(msg.Text, "Exported to ")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "what is a plugin?") {
		t.Errorf("export missing the question:\n%s", data)
	}

	if msg := run(t, ctx, "/export html"); msg.(ResultMsg).Err == nil {
		t.Error("html format accepted")
	}
}

// =============================================================================
// COMPLETION TESTS
// =============================================================================

func TestCompleter_Commands(t *testing.T) {
	c := NewCompleter(NewRegistry())

	got := c.Complete("/re")
	values := make([]string, len(got))
	for i, comp := range got {
		values[i] = comp.Value
	}
	if strings.Join(values, ",") != "/repo,/repos,/rebuild" {
		t.Errorf("Complete(/re) = %v", values)
	}

	if c.Complete("hello") != nil {
		t.Error("chat text should not complete")
	}
}

func TestCompleter_Arguments(t *testing.T) {
	c := NewCompleter(NewRegistry())
	c.ProvidersFn = func() []string { return []string{"ollama", "openai", "anthropic"} }
	c.ModelsFn = func() []string { return []string{"", "gpt-4o", "gpt-4o-mini"} }

	got := c.Complete("/provider o")
	if len(got) != 2 || got[0].Value != "ollama" || got[1].Value != "openai" {
		t.Errorf("provider completion = %+v", got)
	}

	got = c.Complete("/model ")
	if len(got) != 2 || got[0].Value != "gpt-4o" {
		t.Errorf("model completion = %+v", got)
	}

	got = c.Complete("/config chat.")
	if len(got) == 0 {
		t.Error("config keys not completed")
	}

	if got := c.Complete("/stats x"); got != nil {
		t.Errorf("argless command completed: %+v", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct{ input, value, want string }{
		{"/pro", "/provider", "/provider "},
		{"/provider op", "openai", "/provider openai "},
		{"/model ", "gpt-4o", "/model gpt-4o "},
	}
	for _, tc := range tests {
		if got := Apply(tc.input, tc.value); got != tc.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", tc.input, tc.value, got, tc.want)
		}
	}
}

func TestCompletionState(t *testing.T) {
	var cs CompletionState
	cs.Update([]Completion{{Value: "a"}, {Value: "b"}})
	if !cs.Visible || cs.Accept() != "a" {
		t.Fatal("first completion not selected")
	}
	cs.Prev()
	if cs.Accept() != "b" {
		t.Error("Prev did not wrap")
	}
	cs.Next()
	if cs.Accept() != "a" {
		t.Error("Next did not wrap")
	}
	cs.Clear()
	if cs.Visible || cs.Accept() != "" {
		t.Error("Clear left state behind")
	}
}
