// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/apitest"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testEnv struct {
	app     *App
	backend *apitest.Backend
	store   *storage.MemoryStore
	out     *bytes.Buffer
	errOut  *bytes.Buffer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("MODIA_HOME", t.TempDir())

	b := apitest.New(t)
	store := storage.NewMemoryStore()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	app := &App{
		Config: config.Default(),
		Client: b.Client(),
		Prefs:  store,
		Out:    out,
		Err:    errOut,
		In:     strings.NewReader(""),
		Width:  80,
	}
	return &testEnv{app: app, backend: b, store: store, out: out, errOut: errOut}
}

// run parses argv and executes it against the test app.
func (e *testEnv) run(t *testing.T, argv ...string) error {
	t.Helper()
	e.out.Reset()
	e.errOut.Reset()
	cmd, args := ParseArgs(argv)
	return Execute(context.Background(), e.app, cmd, args)
}

// decode unmarshals the JSON response envelope and its data.
func decode(t *testing.T, buf *bytes.Buffer, data interface{}) Response {
	t.Helper()
	var raw struct {
		Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("response is not JSON: %v\n%s", err, buf.String())
	}
	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("data does not decode: %v\n%s", err, raw.Data)
		}
	}
	return raw.Response
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		argv    []string
		wantCmd Command
		check   func(*testing.T, Args)
	}{
		{
			name:    "no arguments starts the TUI",
			argv:    nil,
			wantCmd: CmdTUI,
		},
		{
			name:    "ask with flags and question words",
			argv:    []string{"ask", "-e", "how", "--provider", "openai", "do", "plugins", "load?"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				if a.Query != "how do plugins load?" {
					t.Errorf("Query = %q", a.Query)
				}
				if !a.ExplainMode || a.Provider != "openai" {
					t.Errorf("ExplainMode = %v, Provider = %q", a.ExplainMode, a.Provider)
				}
			},
		},
		{
			name:    "words after double dash stay in the question",
			argv:    []string{"a", "--", "--raw", "is", "literal"},
			wantCmd: CmdAsk,
			check: func(t *testing.T, a Args) {
				if a.Query != "--raw is literal" || a.RawMode {
					t.Errorf("Query = %q, RawMode = %v", a.Query, a.RawMode)
				}
			},
		},
		{
			name:    "global flags anywhere",
			argv:    []string{"status", "--json", "--server=http://10.0.0.5:8000"},
			wantCmd: CmdStatus,
			check: func(t *testing.T, a Args) {
				if a.Format() != FormatJSON || a.Server != "http://10.0.0.5:8000" {
					t.Errorf("Format = %v, Server = %q", a.Format(), a.Server)
				}
			},
		},
		{
			name:    "subcommand is lowercased",
			argv:    []string{"providers", "USE", "openai"},
			wantCmd: CmdProviders,
			check: func(t *testing.T, a Args) {
				if a.Subcommand != "use" {
					t.Errorf("Subcommand = %q", a.Subcommand)
				}
				if len(a.Rest) != 2 {
					t.Errorf("Rest = %v", a.Rest)
				}
			},
		},
		{
			name:    "aliases",
			argv:    []string{"kb", "stats"},
			wantCmd: CmdDB,
		},
		{
			name:    "unknown word",
			argv:    []string{"stauts"},
			wantCmd: CmdUnknown,
			check: func(t *testing.T, a Args) {
				if a.Subcommand != "stauts" {
					t.Errorf("Subcommand = %q", a.Subcommand)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args := ParseArgs(tt.argv)
			if cmd != tt.wantCmd {
				t.Fatalf("command = %s, want %s", cmd, tt.wantCmd)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestArgParser(t *testing.T) {
	p := NewArgParser([]string{"delete", "--all", "doc-1", "--limit", "5", "--yes=false"}, "all", "yes")

	if p.Subcommand() != "delete" {
		t.Errorf("Subcommand() = %q", p.Subcommand())
	}
	if !p.BoolFlag("all") {
		t.Error("BoolFlag(all) should be true")
	}
	if p.Positional(1) != "doc-1" {
		t.Errorf("declared boolean consumed its neighbour: Positional(1) = %q", p.Positional(1))
	}
	if n, err := p.FlagInt("limit", 20); err != nil || n != 5 {
		t.Errorf("FlagInt(limit) = %d, %v", n, err)
	}
	if p.BoolFlag("yes") {
		t.Error("--yes=false should be false")
	}
	if !p.HasFlag("yes") {
		t.Error("HasFlag(yes) should be true")
	}

	bad := NewArgParser([]string{"search", "x", "--k", "zero"})
	if _, err := bad.FlagInt("k", 5); err == nil {
		t.Error("FlagInt should reject a non-number")
	} else if GetExitCode(err) != ExitUsageError {
		t.Errorf("exit code = %d, want %d", GetExitCode(err), ExitUsageError)
	}
}

func TestSuggestCommand(t *testing.T) {
	tests := map[string]string{
		"stauts":   "status",
		"provders": "providers",
		"memroy":   "memory",
		"xyzzy":    "",
	}
	for in, want := range tests {
		if got := SuggestCommand(in); got != want {
			t.Errorf("SuggestCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

// =============================================================================
// ERRORS AND OUTPUT
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", ErrMissingArgument("question", "modia ask x"), ExitUsageError},
		{"controller validation", &controller.ValidationError{Field: "api_key", Message: "Enter an API key."}, ExitUsageError},
		{"config", config.ValidateErrors{{Field: "chat.top_k", Message: "must be positive"}}, ExitConfigError},
		{"not found", &NotFoundError{Resource: "provider", ID: "x"}, ExitNotFoundError},
		{"http 404", NewCommandError("providers", "remove", "x", &api.ClientError{Type: api.ErrTypeHTTPStatus, StatusCode: 404}), ExitNotFoundError},
		{"timeout", NewCommandError("ask", "send", "x", context.DeadlineExceeded), ExitTimeoutError},
		{"offline", &api.ClientError{Type: api.ErrTypeConnection, Message: "refused"}, ExitNetworkError},
		{"cancelled", ErrCancelled, ExitGeneralError},
		{"operation in flight", controller.ErrOperationInFlight, ExitBackendError},
		{"http 500", &api.ClientError{Type: api.ErrTypeHTTPStatus, StatusCode: 500}, ExitBackendError},
		{"generic", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEmit_Formats(t *testing.T) {
	var buf bytes.Buffer
	textRan := false
	data := MessageData{Message: "hello"}

	if err := Emit(&buf, FormatText, "x", data, func() { textRan = true }); err != nil {
		t.Fatal(err)
	}
	if !textRan || buf.Len() != 0 {
		t.Errorf("text format: ran=%v wrote=%q", textRan, buf.String())
	}

	buf.Reset()
	if err := Emit(&buf, FormatJSON, "x", data, nil); err != nil {
		t.Fatal(err)
	}
	var got MessageData
	resp := decode(t, &buf, &got)
	if !resp.Success || resp.Command != "x" || got.Message != "hello" {
		t.Errorf("json response = %+v, data = %+v", resp, got)
	}

	buf.Reset()
	if err := Emit(&buf, FormatYAML, "x", data, nil); err != nil {
		t.Fatal(err)
	}
	yaml := buf.String()
	for _, want := range []string{"success: true", "command: x", "message: hello"} {
		if !strings.Contains(yaml, want) {
			t.Errorf("yaml missing %q:\n%s", want, yaml)
		}
	}
}

func TestDisplayError(t *testing.T) {
	var out, errOut bytes.Buffer
	err := &NotFoundError{Resource: "provider", ID: "nope"}

	DisplayError(&out, &errOut, err, FormatJSON, "providers")
	var details map[string]interface{}
	resp := decode(t, &out, &details)
	if resp.Success || resp.Error == nil {
		t.Fatalf("error response = %+v", resp)
	}
	if details["error_type"] != "not_found_error" || details["id"] != "nope" {
		t.Errorf("details = %v", details)
	}
	if errOut.Len() != 0 {
		t.Errorf("structured errors should not use stderr: %q", errOut.String())
	}

	out.Reset()
	offline := &api.ClientError{Type: api.ErrTypeConnection, Message: "connection refused"}
	DisplayError(&out, &errOut, offline, FormatText, "status")
	if !strings.Contains(errOut.String(), "[ERROR]") || !strings.Contains(errOut.String(), "backend running") {
		t.Errorf("text error = %q", errOut.String())
	}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_Text(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "ask", "what", "is", "modia?"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(env.out.String(), "echo: what is modia?") {
		t.Errorf("output = %q", env.out.String())
	}
	if !strings.Contains(env.out.String(), "ollama/llama3.1:8b") {
		t.Errorf("meta line missing: %q", env.out.String())
	}
}

func TestAsk_JSONWithOverrides(t *testing.T) {
	env := newTestEnv(t)
	_ = env.store.Set(storage.KeyProvider, "ollama")

	if err := env.run(t, "ask", "--json", "-p", "openai", "-m", "gpt-4o", "-e", "hi"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	var data AskData
	resp := decode(t, env.out, &data)
	if !resp.Success || data.Answer != "echo: hi" || !data.ExplainMode {
		t.Errorf("response = %+v, data = %+v", resp, data)
	}
	if data.Provider != "openai" || data.Model != "gpt-4o" {
		t.Errorf("provider/model = %s/%s", data.Provider, data.Model)
	}

	var req api.AskRequest
	if err := env.backend.DecodeLast(http.MethodPost, "/api/ask", &req); err != nil {
		t.Fatal(err)
	}
	if req.Provider == nil || *req.Provider != "openai" || !req.ExplainMode {
		t.Errorf("request = %+v", req)
	}
	if got, _ := env.store.Get(storage.KeyProvider); got != "ollama" {
		t.Errorf("durable provider changed to %q", got)
	}
}

func TestAsk_QuestionFromStdin(t *testing.T) {
	env := newTestEnv(t)
	env.app.In = strings.NewReader("  piped question\n")

	if err := env.run(t, "ask", "-q"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(env.out.String(), "echo: piped question") {
		t.Errorf("output = %q", env.out.String())
	}
}

func TestAsk_MissingQuestion(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "ask")
	if GetExitCode(err) != ExitUsageError {
		t.Fatalf("err = %v, exit = %d", err, GetExitCode(err))
	}
	if env.backend.Count(http.MethodPost, "/api/ask") != 0 {
		t.Error("nothing should be sent")
	}
}

func TestAsk_BackendError(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Fail(http.MethodPost, "/api/ask", http.StatusInternalServerError, "model crashed")

	err := env.run(t, "ask", "hi")
	if err == nil || !strings.Contains(err.Error(), "model crashed") {
		t.Fatalf("err = %v", err)
	}
	if GetExitCode(err) != ExitBackendError {
		t.Errorf("exit = %d", GetExitCode(err))
	}
}

// =============================================================================
// STATUS
// =============================================================================

func TestStatus_Online(t *testing.T) {
	env := newTestEnv(t)
	_ = env.store.Set(storage.KeyProvider, "openai")

	if err := env.run(t, "status", "--json"); err != nil {
		t.Fatalf("status: %v", err)
	}
	var data StatusData
	decode(t, env.out, &data)
	if !data.Online || data.DBPath != "/data/modia_db" {
		t.Errorf("data = %+v", data)
	}
	if data.Documents == nil || *data.Documents != 10 || data.Embeddings != "text-embedding-3" {
		t.Errorf("stats = %v / %q", data.Documents, data.Embeddings)
	}
	if data.Session.Provider != "openai" || data.LLMModel != "llama3.1:8b" {
		t.Errorf("session = %+v, llm = %q", data.Session, data.LLMModel)
	}
}

func TestStatus_OfflineIsNotAnError(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Close()

	if err := env.run(t, "status"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(env.out.String(), "[FAIL]") {
		t.Errorf("output = %q", env.out.String())
	}
}

// =============================================================================
// PROVIDERS
// =============================================================================

func TestProviders_List(t *testing.T) {
	env := newTestEnv(t)
	_ = env.store.Set(storage.KeyProvider, "openai")

	if err := env.run(t, "providers", "--json"); err != nil {
		t.Fatalf("providers: %v", err)
	}
	var data []ProviderData
	decode(t, env.out, &data)
	if len(data) != 3 {
		t.Fatalf("providers = %+v", data)
	}
	if !data[0].Default || !data[0].Configured || data[0].Selected {
		t.Errorf("ollama = %+v", data[0])
	}
	if !data[1].Selected {
		t.Errorf("openai should be selected: %+v", data[1])
	}
}

func TestProviders_Use(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "providers", "use", "openai", "gpt-4o"); err != nil {
		t.Fatalf("use: %v", err)
	}
	if p, _ := env.store.Get(storage.KeyProvider); p != "openai" {
		t.Errorf("provider = %q", p)
	}
	if m, _ := env.store.Get(storage.KeyModel); m != "gpt-4o" {
		t.Errorf("model = %q", m)
	}
	if !strings.Contains(env.out.String(), "provider=openai") {
		t.Errorf("output = %q", env.out.String())
	}

	err := env.run(t, "providers", "use", "nope")
	if GetExitCode(err) != ExitNotFoundError {
		t.Errorf("unknown provider: err = %v", err)
	}
}

func TestProviders_ConfigureKeepsSelection(t *testing.T) {
	env := newTestEnv(t)
	_ = env.store.Set(storage.KeyProvider, "ollama")

	if err := env.run(t, "providers", "configure", "openai", "--key", "sk-test"); err != nil {
		t.Fatalf("configure: %v", err)
	}
	var req api.ConfigureRequest
	if err := env.backend.DecodeLast(http.MethodPost, "/api/llm/configure", &req); err != nil {
		t.Fatal(err)
	}
	if req.Provider != "openai" || req.APIKey != "sk-test" {
		t.Errorf("request = %+v", req)
	}
	if env.backend.Count(http.MethodPost, "/api/llm/set-default") != 1 {
		t.Error("configure should make the provider the backend default")
	}
	if p, _ := env.store.Get(storage.KeyProvider); p != "ollama" {
		t.Errorf("durable provider changed to %q", p)
	}
}

func TestProviders_ConfigureNeedsKeyWhenNotInteractive(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "providers", "configure", "openai")
	if GetExitCode(err) != ExitUsageError {
		t.Fatalf("err = %v", err)
	}
	if env.backend.Count(http.MethodPost, "/api/llm/configure") != 0 {
		t.Error("nothing should be sent")
	}
}

func TestProviders_RemoveUnknown(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "providers", "remove", "nope")
	var nf *NotFoundError
	if !errors.As(err, &nf) || GetExitCode(err) != ExitNotFoundError {
		t.Fatalf("err = %v", err)
	}
}

func TestProviders_UnknownSubcommand(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "providers", "frobnicate"); GetExitCode(err) != ExitUsageError {
		t.Errorf("err = %v", err)
	}
}

// =============================================================================
// REPOS, DB, MEMORY
// =============================================================================

func TestRepos_AddAndSync(t *testing.T) {
	env := newTestEnv(t)
	url := "https://github.com/org/docs.git"

	if err := env.run(t, "repos", "add", url, "--json"); err != nil {
		t.Fatalf("add: %v", err)
	}
	var repos ReposData
	decode(t, env.out, &repos)
	if len(repos.URLs) != 1 || repos.URLs[0] != url {
		t.Errorf("urls = %v", repos.URLs)
	}

	if err := env.run(t, "repos", "sync", "--json"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	var op OperationData
	decode(t, env.out, &op)
	if len(op.Steps) != 1 || op.Steps[0].Name != "Clone/Pull repos" || !op.Steps[0].OK {
		t.Errorf("steps = %+v", op.Steps)
	}
	if !strings.Contains(op.Log, "Sync repos") {
		t.Errorf("log = %q", op.Log)
	}
}

func TestRepos_SyncBusy(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Lock()
	env.backend.Busy = true
	env.backend.Unlock()

	err := env.run(t, "repos", "sync")
	if !errors.Is(err, api.ErrBusy) || GetExitCode(err) != ExitBackendError {
		t.Fatalf("err = %v, exit = %d", err, GetExitCode(err))
	}
}

func TestDB_StatsAndRebuild(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "db"); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(env.out.String(), "Docs: 10 · Embeddings: text-embedding-3") {
		t.Errorf("stats = %q", env.out.String())
	}

	if err := env.run(t, "db", "rebuild", "--json"); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	var op OperationData
	decode(t, env.out, &op)
	if len(op.Steps) != 3 {
		t.Errorf("steps = %+v", op.Steps)
	}
	var req api.RebuildRequest
	if err := env.backend.DecodeLast(http.MethodPost, "/api/db/rebuild", &req); err != nil {
		t.Fatal(err)
	}
	if !req.SyncRepos {
		t.Error("rebuild should sync repos first")
	}
}

func TestDB_Search(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "db", "search", "plugins", "--k", "1", "--json"); err != nil {
		t.Fatalf("search: %v", err)
	}
	var hits []SearchHit
	decode(t, env.out, &hits)
	if len(hits) != 1 || hits[0].Rank != 1 || hits[0].Source != "docs/plugins.md" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Score == nil || *hits[0].Score != 1.0 {
		t.Errorf("score = %v", hits[0].Score)
	}

	req, _ := env.backend.Last(http.MethodGet, "/api/db/search")
	if req.Query.Get("with_scores") != "true" || req.Query.Get("k") != "1" {
		t.Errorf("query = %v", req.Query)
	}

	if err := env.run(t, "db", "search"); GetExitCode(err) != ExitUsageError {
		t.Errorf("missing query: err = %v", err)
	}
}

func TestDB_List(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "db", "list", "--limit", "1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	out := env.out.String()
	if !strings.Contains(out, "Documents (1 of 1)") || !strings.Contains(out, "docs/plugins.md") {
		t.Errorf("output = %q", out)
	}
}

func TestDB_DeleteAllRequiresYes(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "db", "delete", "--all")
	if GetExitCode(err) != ExitUsageError {
		t.Fatalf("err = %v", err)
	}
	if env.backend.Count(http.MethodDelete, "/api/db/delete") != 0 {
		t.Fatal("delete sent without confirmation")
	}

	if err := env.run(t, "db", "delete", "--all", "--yes"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(env.out.String(), "All documents deleted") {
		t.Errorf("output = %q", env.out.String())
	}
}

func TestDB_DeleteIDsWithPrompt(t *testing.T) {
	env := newTestEnv(t)
	env.app.Interactive = true
	env.app.In = strings.NewReader("y\n")

	if err := env.run(t, "db", "delete", "doc-1", "doc-2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var req api.DeleteRequest
	if err := env.backend.DecodeLast(http.MethodDelete, "/api/db/delete", &req); err != nil {
		t.Fatal(err)
	}
	if len(req.IDs) != 2 || req.DeleteAll {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(env.errOut.String(), "[y/N]") {
		t.Errorf("prompt = %q", env.errOut.String())
	}
}

func TestMemory_ShowAndClear(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Lock()
	env.backend.Memory = []api.MemoryEntry{{Role: "user", Content: "hello"}, {Role: "assistant", Content: "hi"}}
	env.backend.Unlock()

	if err := env.run(t, "memory", "--json"); err != nil {
		t.Fatalf("show: %v", err)
	}
	var data MemoryData
	decode(t, env.out, &data)
	if len(data.Entries) != 2 || data.Entries[0].Content != "hello" {
		t.Errorf("entries = %+v", data.Entries)
	}

	if err := env.run(t, "memory", "clear"); GetExitCode(err) != ExitUsageError {
		t.Fatalf("clear without --yes: err = %v", err)
	}
	if err := env.run(t, "mem", "clear", "-y"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !strings.Contains(env.out.String(), "Memory cleared") {
		t.Errorf("output = %q", env.out.String())
	}
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_GetAndSet(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "config", "get", "chat.top_k"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if strings.TrimSpace(env.out.String()) != "5" {
		t.Errorf("top_k = %q", env.out.String())
	}

	if err := env.run(t, "config", "get", "chat.nope"); GetExitCode(err) != ExitUsageError {
		t.Errorf("unknown key: err = %v", err)
	}

	if err := env.run(t, "config", "set", "chat.top_k", "8"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if env.app.Config.Chat.TopK != 8 {
		t.Errorf("in-memory top_k = %d", env.app.Config.Chat.TopK)
	}
	path := filepath.Join(os.Getenv("MODIA_HOME"), "config.toml")
	saved, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not saved: %v", err)
	}
	if !strings.Contains(string(saved), "top_k = 8") {
		t.Errorf("saved config:\n%s", saved)
	}

	err = env.run(t, "config", "set", "chat.top_k", "0")
	if GetExitCode(err) != ExitConfigError {
		t.Errorf("invalid value: err = %v, exit = %d", err, GetExitCode(err))
	}
}

func TestConfig_Keys(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "config", "keys"); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"server.url", "chat.top_k", "storage.prefs_path"} {
		if !strings.Contains(env.out.String(), key) {
			t.Errorf("keys missing %s", key)
		}
	}
}

// =============================================================================
// CHAT REPL
// =============================================================================

func TestREPL_Handle(t *testing.T) {
	env := newTestEnv(t)
	repl := NewREPL(env.app, Args{})
	ctx := context.Background()

	if repl.Handle(ctx, "   ") {
		t.Error("blank input should not end the session")
	}
	if repl.Handle(ctx, "hello there") {
		t.Error("a question should not end the session")
	}
	if !strings.Contains(env.out.String(), "echo: hello there") {
		t.Errorf("output = %q", env.out.String())
	}

	env.out.Reset()
	repl.Handle(ctx, "/help")
	if !strings.Contains(env.out.String(), "/quit") {
		t.Errorf("help = %q", env.out.String())
	}

	env.out.Reset()
	repl.Handle(ctx, "/explain")
	if !repl.Controller().Prefs().Snapshot().ExplainMode {
		t.Error("/explain should toggle explain mode")
	}

	if !repl.Handle(ctx, "/quit") {
		t.Error("/quit should end the session")
	}
	if !repl.Handle(ctx, "exit") {
		t.Error("exit should end the session")
	}
}

func TestREPL_BackendErrorIsPrinted(t *testing.T) {
	env := newTestEnv(t)
	env.backend.Fail(http.MethodPost, "/api/ask", http.StatusServiceUnavailable, "LLM offline")
	repl := NewREPL(env.app, Args{})

	if repl.Handle(context.Background(), "hi") {
		t.Fatal("an error should not end the session")
	}
	if !strings.Contains(env.errOut.String(), "LLM offline") {
		t.Errorf("stderr = %q", env.errOut.String())
	}
}

func TestChat_RequiresTerminal(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "chat")
	var tty *TTYRequiredError
	if !errors.As(err, &tty) {
		t.Fatalf("err = %v", err)
	}
}

// =============================================================================
// CONFIRM, VERSION, UNKNOWN
// =============================================================================

func TestConfirm(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		input       string
		yes         bool
		format      OutputFormat
		wantErr     bool
	}{
		{"yes flag", false, "", true, FormatJSON, false},
		{"accepted", true, "y\n", false, FormatText, false},
		{"declined", true, "n\n", false, FormatText, true},
		{"empty answer declines", true, "\n", false, FormatText, true},
		{"not interactive", false, "y\n", false, FormatText, true},
		{"structured output", true, "y\n", false, FormatJSON, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}, In: strings.NewReader(tt.input), Interactive: tt.interactive}
			err := Confirm(app, "delete things", tt.yes, tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("Confirm() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVersion_JSON(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "version", "--json"); err != nil {
		t.Fatal(err)
	}
	var data VersionData
	decode(t, env.out, &data)
	if data.Version != Version || data.GoVersion == "" {
		t.Errorf("data = %+v", data)
	}
}

func TestUnknownCommand_Suggests(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, "stauts")
	if GetExitCode(err) != ExitUsageError {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "modia status") {
		t.Errorf("err = %v", err)
	}
}

func TestHelp(t *testing.T) {
	env := newTestEnv(t)

	if err := env.run(t, "--help"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.out.String(), fmt.Sprintf("Version: %s", Version)) {
		t.Errorf("usage = %q", env.out.String())
	}
}
