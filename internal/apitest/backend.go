// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apitest provides an in-memory Modia backend for tests.
//
// Backend serves every endpoint the client uses from a small mutable state
// and records each request, so tests can assert both what was rendered and
// what was (or was not) sent over the wire. Individual routes can be
// overridden with Respond, Fail or Raw.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/jeranaias/modia-tui/internal/api"
)

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// Backend is a fake Modia backend.
type Backend struct {
	URL    string
	server *httptest.Server

	mu        sync.Mutex
	requests  []Request
	overrides map[string]http.HandlerFunc

	// State served by the default handlers. Tests may mutate it directly
	// before issuing requests, or under Lock/Unlock afterwards.
	Providers []api.Provider
	Repos     []string
	Memory    []api.MemoryEntry
	Documents []api.Document
	Stats     api.StatsResponse
	Busy      bool
}

// New starts a Backend and registers its shutdown with t.Cleanup.
func New(t testing.TB) *Backend {
	t.Helper()

	docs := 10
	embedding := "text-embedding-3"
	b := &Backend{
		overrides: make(map[string]http.HandlerFunc),
		Providers: []api.Provider{
			{Name: "ollama", Default: true, Registered: true, Models: []string{"llama3.1:8b", "mistral"}},
			{Name: "openai", Models: []string{"gpt-4o", "gpt-4o-mini"}},
			{Name: "anthropic", Models: []string{}},
		},
		Documents: []api.Document{
			{Content: "Hytale servers load plugins from the mods folder.", Metadata: map[string]any{"source": "docs/plugins.md"}},
			{Content: "Use /reload to pick up configuration changes.", Metadata: map[string]any{"source": "docs/commands.md"}},
		},
		Stats: api.StatsResponse{TotalDocuments: &docs, EmbeddingModel: &embedding},
	}

	b.server = httptest.NewServer(b.routes())
	b.URL = b.server.URL
	t.Cleanup(b.server.Close)
	return b
}

// Client returns an api.Client pointed at the backend.
func (b *Backend) Client() *api.Client {
	return api.NewClient(b.URL)
}

// Lock guards direct state mutation after the server has started.
func (b *Backend) Lock() { b.mu.Lock() }

// Unlock releases Lock.
func (b *Backend) Unlock() { b.mu.Unlock() }

// Close stops the server early.
func (b *Backend) Close() { b.server.Close() }

// =============================================================================
// OVERRIDES
// =============================================================================

// Respond makes method+path always answer with status and a JSON body.
func (b *Backend) Respond(method, path string, status int, body any) {
	b.override(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

// Fail makes method+path answer with status and {"detail": detail}.
// An empty detail sends an empty JSON object.
func (b *Backend) Fail(method, path string, status int, detail string) {
	if detail == "" {
		b.Respond(method, path, status, map[string]any{})
		return
	}
	b.Respond(method, path, status, map[string]string{"detail": detail})
}

// Raw makes method+path answer with status and a literal body.
func (b *Backend) Raw(method, path string, status int, body string) {
	b.override(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Handle installs an arbitrary handler for method+path.
func (b *Backend) Handle(method, path string, h http.HandlerFunc) {
	b.override(method, path, h)
}

func (b *Backend) override(method, path string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = h
}

// =============================================================================
// RECORDING
// =============================================================================

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many times method+path was called.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to method+path.
func (b *Backend) Last(method, path string) (Request, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// DecodeLast unmarshals the body of the most recent method+path request.
func (b *Backend) DecodeLast(method, path string, v any) error {
	req, ok := b.Last(method, path)
	if !ok {
		return fmt.Errorf("no %s %s request recorded", method, path)
	}
	return json.Unmarshal(req.Body, v)
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Body:   body,
		})
		h := b.overrides[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if h != nil {
			h(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// ROUTES
// =============================================================================

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Get("/api/health", b.health)
	r.Get("/api/config", b.config)

	r.Post("/api/ask", b.ask)
	r.Get("/api/memory", b.memory)
	r.Delete("/api/memory", b.clearMemory)

	r.Route("/api/db", func(r chi.Router) {
		r.Get("/search", b.search)
		r.Get("/stats", b.stats)
		r.Get("/list", b.list)
		r.Post("/rebuild", b.rebuild)
		r.Delete("/delete", b.deleteDocs)
	})

	r.Route("/api/llm", func(r chi.Router) {
		r.Get("/providers", b.providers)
		r.Post("/configure", b.configure)
		r.Post("/set-default", b.setDefault)
		r.Delete("/remove/{provider}", b.remove)
	})

	r.Route("/api/repos", func(r chi.Router) {
		r.Get("/", b.listRepos)
		r.Post("/", b.addRepo)
		r.Post("/sync", b.syncRepos)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func (b *Backend) health(w http.ResponseWriter, r *http.Request) {
	exists := true
	writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", DBExists: &exists, DBPath: "/data/modia_db"})
}

func (b *Backend) config(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.ServerConfig{
		DBPath:         "/data/modia_db",
		LLMModel:       "llama3.1:8b",
		EmbeddingModel: "text-embedding-3",
		Temperature:    0.2,
		MaxMemory:      6,
		TopK:           5,
		Valid:          true,
	})
}

func (b *Backend) ask(w http.ResponseWriter, r *http.Request) {
	var req api.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		detail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	provider, model := "ollama", "llama3.1:8b"
	if req.Provider != nil {
		provider = *req.Provider
	}
	if req.Model != nil {
		model = *req.Model
	}
	answer := "echo: " + req.Message

	b.mu.Lock()
	b.Memory = append(b.Memory,
		api.MemoryEntry{Role: "user", Content: req.Message},
		api.MemoryEntry{Role: "assistant", Content: answer})
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.AskResponse{Answer: answer, Provider: provider, Model: model})
}

func (b *Backend) memory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	mem := append([]api.MemoryEntry{}, b.Memory...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.MemoryResponse{Memory: mem})
}

func (b *Backend) clearMemory(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.Memory = nil
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Memory cleared"})
}

func (b *Backend) search(w http.ResponseWriter, r *http.Request) {
	k, err := strconv.Atoi(r.URL.Query().Get("k"))
	if err != nil || k <= 0 {
		k = 5
	}
	withScores := r.URL.Query().Get("with_scores") == "true"

	b.mu.Lock()
	docs := append([]api.Document{}, b.Documents...)
	b.mu.Unlock()

	results := make([]api.SearchResult, 0, k)
	for i, d := range docs {
		if i >= k {
			break
		}
		res := api.SearchResult{Content: d.Content, Metadata: d.Metadata}
		if withScores {
			score := 1.0 / float64(i+1)
			res.Score = &score
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, api.SearchResponse{Results: results})
}

func (b *Backend) stats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	stats := b.Stats
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, stats)
}

func (b *Backend) list(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	b.mu.Lock()
	docs := append([]api.Document{}, b.Documents...)
	b.mu.Unlock()
	if len(docs) > limit {
		docs = docs[:limit]
	}
	writeJSON(w, http.StatusOK, api.DocumentsResponse{Documents: docs, Total: len(docs)})
}

func (b *Backend) rebuild(w http.ResponseWriter, r *http.Request) {
	var req api.RebuildRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	busy := b.Busy
	b.mu.Unlock()
	if busy {
		detail(w, http.StatusConflict, "An operation is already running. Try again in a few seconds.")
		return
	}

	var steps []api.Step
	if req.SyncRepos {
		steps = append(steps, step("Clone/Pull repos", 120))
	}
	steps = append(steps, step("Extract chunks", 40), step("Build DB", 300))

	var logs []string
	for _, s := range steps {
		logs = append(logs, "== "+s.Name+" ==", s.Logs)
	}
	writeJSON(w, http.StatusOK, api.OperationResponse{
		Message: "Rebuild complete",
		Logs:    strings.Join(logs, "\n\n"),
		Steps:   steps,
	})
}

func (b *Backend) deleteDocs(w http.ResponseWriter, r *http.Request) {
	var req api.DeleteRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case req.DeleteAll:
		b.Documents = nil
		writeJSON(w, http.StatusOK, api.MessageResponse{Message: "All documents deleted"})
	case len(req.IDs) > 0:
		writeJSON(w, http.StatusOK, api.MessageResponse{Message: fmt.Sprintf("%d document(s) deleted", len(req.IDs))})
	default:
		detail(w, http.StatusBadRequest, "Provide 'ids' or 'delete_all=true'")
	}
}

func (b *Backend) providers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	providers := append([]api.Provider{}, b.Providers...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.ProvidersResponse{Providers: providers})
}

func (b *Backend) configure(w http.ResponseWriter, r *http.Request) {
	var req api.ConfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Provider == "" {
		detail(w, http.StatusBadRequest, "provider required")
		return
	}

	b.mu.Lock()
	found := false
	for i := range b.Providers {
		if b.Providers[i].Name == req.Provider {
			b.Providers[i].Configured = true
			b.Providers[i].Registered = true
			found = true
		}
	}
	b.mu.Unlock()
	if !found {
		detail(w, http.StatusBadRequest, "Unsupported provider: "+req.Provider)
		return
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Provider '" + req.Provider + "' configured"})
}

func (b *Backend) setDefault(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("provider")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Providers {
		b.Providers[i].Default = b.Providers[i].Name == name
	}
	writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Default provider set: " + name})
}

func (b *Backend) remove(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Providers {
		if b.Providers[i].Name == name {
			b.Providers[i].Configured = false
			writeJSON(w, http.StatusOK, api.MessageResponse{Message: "Configuration for '" + name + "' removed"})
			return
		}
	}
	detail(w, http.StatusNotFound, "Provider '"+name+"' not found")
}

func (b *Backend) listRepos(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	urls := append([]string{}, b.Repos...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, api.ReposResponse{Path: "repository/repos.txt", URLs: urls})
}

func (b *Backend) addRepo(w http.ResponseWriter, r *http.Request) {
	var req api.RepoRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	u := strings.TrimSpace(req.URL)
	if u == "" {
		detail(w, http.StatusBadRequest, "URL required")
		return
	}

	b.mu.Lock()
	exists := false
	for _, existing := range b.Repos {
		if existing == u {
			exists = true
		}
	}
	if !exists {
		b.Repos = append(b.Repos, u)
	}
	urls := append([]string{}, b.Repos...)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, api.ReposResponse{Message: "Repo added", URLs: urls})
}

func (b *Backend) syncRepos(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	busy := b.Busy
	b.mu.Unlock()
	if busy {
		detail(w, http.StatusConflict, "An operation is already running. Try again in a few seconds.")
		return
	}
	s := step("Clone/Pull repos", 120)
	writeJSON(w, http.StatusOK, api.OperationResponse{Message: "Sync complete", Logs: s.Logs, Steps: []api.Step{s}})
}

func step(name string, ms float64) api.Step {
	return api.Step{Name: name, OK: true, DurationMS: &ms, Logs: name + ": ok"}
}
