// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/opslog"
)

// =============================================================================
// OPERATION WRAPPER
// =============================================================================

// RunOp runs an admin operation. It logs title, clears the step display
// and sets a busy status; afterwards the status is ready, or on failure
// error with "Error: <message>" in the log. The failure is returned for
// callers that want it but has already been reported.
//
// Operations are serialized. A second call while one runs returns
// ErrOperationInFlight without doing anything.
func (c *Controller) RunOp(ctx context.Context, title string, fn func(context.Context) error) error {
	c.mu.Lock()
	if c.opActive {
		c.mu.Unlock()
		return ErrOperationInFlight
	}
	c.opActive = true
	c.stepsText = opslog.NoSteps
	c.lastSteps = nil
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.opActive = false
		c.mu.Unlock()
		c.notify()
	}()

	c.ops.Log(title)
	c.setStatus(StateBusy, LabelWorking)
	start := time.Now()
	log.Printf("OP_START | title=%q", title)

	if err := fn(ctx); err != nil {
		c.ops.Log("Error: " + err.Error())
		c.setStatus(StateError, LabelError)
		log.Printf("OP_FAILED | title=%q duration=%s error=%v", title, time.Since(start).Round(time.Millisecond), err)
		return err
	}

	c.setStatus(StateReady, LabelReady)
	log.Printf("OP_DONE | title=%q duration=%s", title, time.Since(start).Round(time.Millisecond))
	return nil
}

func (c *Controller) renderSteps(steps []api.Step) {
	text := opslog.RenderSteps(steps)
	c.mu.Lock()
	c.stepsText = text
	c.lastSteps = append([]api.Step(nil), steps...)
	c.mu.Unlock()
	c.notify()
}

// Steps returns the rendered step progress.
func (c *Controller) Steps() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepsText
}

// LastSteps returns the steps reported by the last finished operation.
func (c *Controller) LastSteps() []api.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Step(nil), c.lastSteps...)
}

// =============================================================================
// REPOSITORIES
// =============================================================================

// AddRepo registers a source repository. Blank input does nothing.
func (c *Controller) AddRepo(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	return c.RunOp(ctx, "Adding repo...", func(ctx context.Context) error {
		if _, err := c.client.AddRepo(ctx, url); err != nil {
			return err
		}
		_ = c.RefreshRepos(ctx)
		c.ops.Log("Repo added.")
		return nil
	})
}

// SyncRepos clones or pulls every registered repository.
func (c *Controller) SyncRepos(ctx context.Context) error {
	return c.RunOp(ctx, "Syncing repos (git clone/pull)...", func(ctx context.Context) error {
		resp, err := c.client.SyncRepos(ctx)
		if err != nil {
			return err
		}
		c.renderSteps(resp.Steps)
		c.ops.Block("Sync repos", orDefault(resp.Logs, "Sync finished."))
		return nil
	})
}

// RefreshRepos renders the registered repository URLs, one per line.
func (c *Controller) RefreshRepos(ctx context.Context) error {
	urls, err := c.client.ListRepos(ctx)
	text := "No additional repos."
	switch {
	case err != nil:
		text = failureText(err, "Could not read repos")
	case len(urls) > 0:
		text = strings.Join(urls, "\n")
	}

	c.mu.Lock()
	c.reposText = text
	c.mu.Unlock()
	c.notify()
	return err
}

// Repos returns the rendered repository list.
func (c *Controller) Repos() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reposText
}

// =============================================================================
// DATABASE
// =============================================================================

// RebuildDB syncs repos and rebuilds the knowledge base, then refreshes
// the stats.
func (c *Controller) RebuildDB(ctx context.Context) error {
	return c.RunOp(ctx, "Rebuilding database (extract chunks, build DB)...", func(ctx context.Context) error {
		resp, err := c.client.Rebuild(ctx, true)
		if err != nil {
			return err
		}
		c.renderSteps(resp.Steps)
		c.ops.Block("Rebuild DB", orDefault(resp.Logs, "Rebuild finished."))
		_ = c.RefreshDBStats(ctx)
		return nil
	})
}

// RefreshDBStats renders "Docs: N · Embeddings: M", with "?" for
// anything the backend did not report.
func (c *Controller) RefreshDBStats(ctx context.Context) error {
	stats, err := c.client.Stats(ctx)
	var text string
	if err != nil {
		text = failureText(err, "Could not read stats")
	} else {
		text = FormatStats(stats)
	}

	c.mu.Lock()
	c.statsText = text
	c.mu.Unlock()
	c.notify()
	return err
}

// Stats returns the rendered DB statistics.
func (c *Controller) Stats() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statsText
}

// FormatStats renders DB statistics.
func FormatStats(s *api.StatsResponse) string {
	docs, embedding := "?", "?"
	if s != nil && s.TotalDocuments != nil {
		docs = strconv.Itoa(*s.TotalDocuments)
	}
	if s != nil && s.EmbeddingModel != nil {
		embedding = *s.EmbeddingModel
	}
	return fmt.Sprintf("Docs: %s · Embeddings: %s", docs, embedding)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
