// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/model"
	"github.com/jeranaias/modia-tui/internal/session"
	"github.com/jeranaias/modia-tui/internal/util"
)

// Placeholder is the text of an AI entry awaiting its answer.
const Placeholder = "Thinking..."

// sourceSnippetRunes caps each listed source.
const sourceSnippetRunes = 300

// Source listing fallbacks.
const (
	SourcesEmpty       = "Sources (RAG): no results."
	SourcesUnavailable = "Sources (RAG): unavailable."
	SourcesError       = "Sources (RAG): error querying."
)

// =============================================================================
// TOGGLES
// =============================================================================

// ToggleExplain flips explain mode. No request is made.
func (c *Controller) ToggleExplain() bool {
	on := c.prefs.ToggleExplain()
	log.Printf("TOGGLE | explain=%t", on)
	c.notify()
	return on
}

// ToggleRaw flips raw mode. No request is made.
func (c *Controller) ToggleRaw() bool {
	on := c.prefs.ToggleRaw()
	log.Printf("TOGGLE | raw=%t", on)
	c.notify()
	return on
}

// ClearChat resets the transcript to its greeting.
func (c *Controller) ClearChat() {
	c.transcript.Clear()
	c.notify()
}

// =============================================================================
// SEND
// =============================================================================

// SendResult describes one Send call.
type SendResult struct {
	// Sent is false when the input was blank and nothing happened.
	Sent bool
	// UserID and ReplyID identify the two transcript entries.
	UserID  string
	ReplyID string
	// SourcesID is set when a sources entry was added.
	SourcesID string
	// Answer is the final text of the reply entry.
	Answer string
	// Err is the request failure, or ErrSendInFlight.
	Err error
}

// Send submits input as a chat question.
//
// Blank input is a no-op. Otherwise a user entry and a placeholder reply
// are appended, status turns busy, and the question is posted. In raw mode
// the sources listing is fetched first and, if the answer arrives, added
// to the transcript before the placeholder receives the answer. On failure
// the placeholder shows "Error: <detail>". The sending flag is always
// cleared on return.
//
// Sends are serialized: a call made while another is pending returns
// ErrSendInFlight without touching the transcript.
func (c *Controller) Send(ctx context.Context, input string) SendResult {
	text := util.NormalizeInput(input)
	if text == "" {
		return SendResult{}
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return SendResult{Err: ErrSendInFlight}
	}
	c.sending = true
	topK := c.topK
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
		c.notify()
	}()

	res := SendResult{Sent: true}
	res.UserID = c.transcript.Append(model.NewMessage(model.RoleUser, text))
	placeholder := model.NewMessage(model.RoleAI, Placeholder)
	placeholder.Pending = true
	res.ReplyID = c.transcript.Append(placeholder)
	c.setStatus(StateBusy, LabelThinking)

	prefs := c.prefs.Snapshot()
	start := time.Now()
	log.Printf("CHAT_SEND | chars=%d explain=%t raw=%t provider=%s model=%s",
		util.RuneLen(text), prefs.ExplainMode, prefs.RawMode, session.Label(prefs.Provider), session.Label(prefs.Model))

	var sources RagResult
	if prefs.RawMode {
		sources = c.FetchRagSources(ctx, text)
	}

	resp, err := c.client.Ask(ctx, api.AskRequest{
		Message:     text,
		TopK:        topK,
		ExplainMode: prefs.ExplainMode,
		Provider:    api.StringPtr(prefs.Provider),
		Model:       api.StringPtr(prefs.Model),
	})
	if err != nil {
		res.Err = err
		res.Answer = "Error: " + err.Error()
		c.transcript.Update(res.ReplyID, func(m *model.Message) {
			m.Text = res.Answer
			m.Pending = false
			m.Failed = true
		})
		c.setStatus(StateError, LabelError)
		log.Printf("CHAT_ERROR | duration=%s error=%v", time.Since(start).Round(time.Millisecond), err)
		return res
	}

	if sources.Text != "" {
		res.SourcesID = c.transcript.Append(model.NewSourcesMessage(sources.Text))
		c.notify()
	}

	res.Answer = resp.Answer
	c.transcript.Update(res.ReplyID, func(m *model.Message) {
		m.Text = resp.Answer
		m.Pending = false
		m.Provider = resp.Provider
		m.Model = resp.Model
	})
	c.setStatus(StateReady, LabelReady)
	log.Printf("CHAT_REPLY | chars=%d duration=%s provider=%s model=%s",
		util.RuneLen(resp.Answer), time.Since(start).Round(time.Millisecond), resp.Provider, resp.Model)
	return res
}

// Sending reports whether a send is pending.
func (c *Controller) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// =============================================================================
// SOURCES
// =============================================================================

// RagResult is the outcome of a sources lookup. It always carries
// displayable Text; Degraded is set when the lookup failed.
type RagResult struct {
	Text     string
	Count    int
	Degraded bool
	Reason   string
}

// FetchRagSources lists the top retrieval results for query. It never
// fails: errors produce a degraded result with fallback text.
func (c *Controller) FetchRagSources(ctx context.Context, query string) RagResult {
	c.mu.Lock()
	k := c.topK
	c.mu.Unlock()

	results, err := c.client.Search(ctx, query, k, false)
	if err != nil {
		log.Printf("RAG_DEGRADED | error=%v", err)
		if api.StatusCode(err) != 0 {
			return RagResult{Text: SourcesUnavailable, Degraded: true, Reason: err.Error()}
		}
		return RagResult{Text: SourcesError, Degraded: true, Reason: err.Error()}
	}
	if len(results) == 0 {
		return RagResult{Text: SourcesEmpty}
	}
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return RagResult{Text: FormatSources(results, k), Count: len(results)}
}

// FormatSources renders a numbered listing of at most k results, each
// trimmed and cut to 300 characters.
func FormatSources(results []api.SearchResult, k int) string {
	lines := []string{fmt.Sprintf("Sources (RAG) - top %d:", k)}
	for i, r := range results {
		if k > 0 && i >= k {
			break
		}
		snippet := util.Truncate(strings.TrimSpace(r.Content), sourceSnippetRunes)
		lines = append(lines, fmt.Sprintf("\n[%d] %s", i+1, snippet))
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// HEALTH
// =============================================================================

// HealthResult is the outcome of a health probe.
type HealthResult struct {
	Online   bool
	Reason   string
	DBExists *bool
	DBPath   string
}

// CheckHealth probes the backend and sets the status to ready or offline.
// It never fails and writes nothing to the operations log.
func (c *Controller) CheckHealth(ctx context.Context) HealthResult {
	resp, err := c.client.Health(ctx)
	switch {
	case err != nil:
		c.setStatus(StateOffline, LabelOffline)
		log.Printf("HEALTH | online=false error=%v", err)
		return HealthResult{Reason: err.Error()}
	case resp.Status != "ok":
		c.setStatus(StateOffline, LabelOffline)
		log.Printf("HEALTH | online=false status=%q", resp.Status)
		return HealthResult{Reason: fmt.Sprintf("backend status %q", resp.Status)}
	}
	c.setStatus(StateReady, LabelReady)
	log.Printf("HEALTH | online=true")
	return HealthResult{Online: true, DBExists: resp.DBExists, DBPath: resp.DBPath}
}

// =============================================================================
// SERVER MEMORY AND SEARCH
// =============================================================================

// MemoryText renders the backend's conversational memory.
func (c *Controller) MemoryText(ctx context.Context) (string, error) {
	entries, err := c.client.Memory(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "Server memory is empty.", nil
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", e.Role, util.Truncate(strings.TrimSpace(e.Content), sourceSnippetRunes))
	}
	return b.String(), nil
}

// ForgetMemory clears the backend's conversational memory and the local
// transcript.
func (c *Controller) ForgetMemory(ctx context.Context) (string, error) {
	msg, err := c.client.ClearMemory(ctx)
	if err != nil {
		return "", err
	}
	c.ClearChat()
	if msg == "" {
		msg = "Memory cleared."
	}
	return msg, nil
}

// SearchText runs a scored retrieval query and renders it.
func (c *Controller) SearchText(ctx context.Context, query string) (string, error) {
	query = util.NormalizeInput(query)
	if query == "" {
		return "", &ValidationError{Field: "query", Message: "Enter a search query."}
	}
	c.mu.Lock()
	k := c.topK
	c.mu.Unlock()

	results, err := c.client.Search(ctx, query, k, true)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return SourcesEmpty, nil
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		score := "-"
		if r.Score != nil {
			score = fmt.Sprintf("%.3f", *r.Score)
		}
		src := ""
		if s, ok := r.Metadata["source"].(string); ok && s != "" {
			src = " " + s
		}
		fmt.Fprintf(&b, "[%d] score=%s%s\n%s", i+1, score, src, util.Truncate(strings.TrimSpace(r.Content), sourceSnippetRunes))
	}
	return b.String(), nil
}
