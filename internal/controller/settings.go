// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/session"
	"github.com/jeranaias/modia-tui/internal/storage"
)

// =============================================================================
// MENU PANEL
// =============================================================================

// ToggleMenu shows or hides the settings panel and returns whether it is
// now visible. On reveal the provider list, repo list and DB stats are
// refreshed in the background, independently of each other; Wait blocks
// until they finish.
func (c *Controller) ToggleMenu(ctx context.Context) bool {
	c.mu.Lock()
	c.menuOpen = !c.menuOpen
	open := c.menuOpen
	c.mu.Unlock()
	c.notify()

	if open {
		c.refreshMenu(ctx)
	}
	return open
}

// MenuOpen reports whether the settings panel is visible.
func (c *Controller) MenuOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.menuOpen
}

func (c *Controller) refreshMenu(ctx context.Context) {
	refreshers := []func(context.Context) error{
		func(ctx context.Context) error { return c.LoadProviders(ctx, false) },
		c.RefreshRepos,
		c.RefreshDBStats,
	}
	for _, fn := range refreshers {
		c.bg.Add(1)
		go func(fn func(context.Context) error) {
			defer c.bg.Done()
			_ = fn(ctx)
			c.notify()
		}(fn)
	}
}

// =============================================================================
// PROVIDERS AND MODELS
// =============================================================================

// LoadProviders fetches the provider catalog and rebuilds the provider
// selector: a "(default)" entry, then one entry per provider with the
// backend default annotated. Unless keepSelection is set, the selector is
// reset to the stored provider. The model selector is always repopulated.
// A failed fetch is written to the operations log.
func (c *Controller) LoadProviders(ctx context.Context, keepSelection bool) error {
	providers, err := c.client.Providers(ctx)
	if err != nil {
		c.ops.Log(failureText(err, "Could not load providers"))
		c.notify()
		return err
	}

	options := make([]Option, 0, len(providers)+1)
	options = append(options, DefaultOption)
	for _, p := range providers {
		label := p.Name
		if p.Default {
			label += " (default)"
		}
		options = append(options, Option{Value: p.Name, Label: label})
	}

	stored := c.stored(storage.KeyProvider)

	c.mu.Lock()
	c.catalog = providers
	c.providerOptions = options
	if !keepSelection {
		c.providerChoice = ""
		if hasOption(options, stored) {
			c.providerChoice = stored
		}
	}
	c.mu.Unlock()

	c.PopulateModels(providers)
	log.Printf("PROVIDERS_LOADED | count=%d keep=%t", len(providers), keepSelection)
	return nil
}

// PopulateModels rebuilds the model selector from the models of the
// currently chosen provider. A provider absent from catalog yields only
// the "(default)" entry. The stored model is restored if it is offered.
func (c *Controller) PopulateModels(catalog []api.Provider) {
	stored := c.stored(storage.KeyModel)

	c.mu.Lock()
	var models []string
	for _, p := range catalog {
		if p.Name == c.providerChoice {
			models = p.Models
			break
		}
	}
	options := make([]Option, 0, len(models)+1)
	options = append(options, DefaultOption)
	for _, m := range models {
		options = append(options, Option{Value: m, Label: m})
	}
	c.modelOptions = options
	c.modelChoice = ""
	if hasOption(options, stored) {
		c.modelChoice = stored
	}
	c.mu.Unlock()
	c.notify()
}

// SelectProvider changes the provider selector. The model selection is
// reset, both are persisted, and only then is the model list rebuilt.
func (c *Controller) SelectProvider(name string) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	c.providerChoice = name
	c.modelChoice = ""
	catalog := c.catalog
	c.mu.Unlock()

	err := session.Persist(c.prefs.Store(), name, "")
	if err != nil {
		log.Printf("PREFS_ERROR | error=%v", err)
	}
	c.PopulateModels(catalog)
	return err
}

// SelectModel changes the model selector and persists it.
func (c *Controller) SelectModel(name string) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	c.modelChoice = name
	c.mu.Unlock()

	err := c.prefs.Store().Set(storage.KeyModel, name)
	if err != nil {
		log.Printf("PREFS_ERROR | error=%v", err)
	}
	c.notify()
	return err
}

// CycleProvider moves the provider selector by delta options, wrapping.
func (c *Controller) CycleProvider(delta int) error {
	c.mu.Lock()
	next := cycle(c.providerOptions, c.providerChoice, delta)
	c.mu.Unlock()
	return c.SelectProvider(next)
}

// CycleModel moves the model selector by delta options, wrapping.
func (c *Controller) CycleModel(delta int) error {
	c.mu.Lock()
	next := cycle(c.modelOptions, c.modelChoice, delta)
	c.mu.Unlock()
	return c.SelectModel(next)
}

// ApplyModel commits the selector values to the session and durable
// storage. Chat requests use the applied values only.
func (c *Controller) ApplyModel() error {
	c.mu.Lock()
	provider, model := c.providerChoice, c.modelChoice
	c.mu.Unlock()

	err := c.prefs.Apply(provider, model)
	c.ops.Log(fmt.Sprintf("Applied: provider=%s model=%s", session.Label(provider), session.Label(model)))
	log.Printf("MODEL_APPLIED | provider=%s model=%s", session.Label(provider), session.Label(model))
	c.notify()
	return err
}

// CurrentModelText renders the applied provider and model.
func (c *Controller) CurrentModelText() string {
	s := c.prefs.Snapshot()
	return fmt.Sprintf("Current: provider=%s · model=%s", session.Label(s.Provider), session.Label(s.Model))
}

// Selection returns the current selector values.
func (c *Controller) Selection() (provider, model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.providerChoice, c.modelChoice
}

// Catalog returns the last fetched provider catalog.
func (c *Controller) Catalog() []api.Provider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Provider(nil), c.catalog...)
}

// SaveAPIKey stores key (and an optional base URL) for the selected
// provider, makes it the backend default and reloads the catalog keeping
// the selection. A missing provider or key is logged and nothing is sent.
func (c *Controller) SaveAPIKey(ctx context.Context, key, baseURL string) error {
	c.mu.Lock()
	provider := strings.TrimSpace(c.providerChoice)
	c.mu.Unlock()
	key = strings.TrimSpace(key)
	baseURL = strings.TrimSpace(baseURL)

	if provider == "" {
		return c.invalid("provider", "Choose a provider first.")
	}
	if key == "" {
		return c.invalid("api_key", "Enter an API key.")
	}

	return c.RunOp(ctx, "Saving API key...", func(ctx context.Context) error {
		msg, err := c.client.Configure(ctx, api.ConfigureRequest{
			Provider: provider,
			APIKey:   key,
			BaseURL:  api.StringPtr(baseURL),
		})
		if err != nil {
			return err
		}

		// Best effort; the key is already stored.
		if _, err := c.client.SetDefault(ctx, provider); err != nil {
			log.Printf("SET_DEFAULT_FAILED | provider=%s error=%v", provider, err)
		}

		if msg == "" {
			msg = "API key saved."
		}
		c.ops.Log(msg)
		log.Printf("API_KEY_SAVED | provider=%s base_url=%t", provider, baseURL != "")
		return c.LoadProviders(ctx, true)
	})
}

func (c *Controller) invalid(field, msg string) error {
	c.ops.Log(msg)
	c.notify()
	return &ValidationError{Field: field, Message: msg}
}

func (c *Controller) stored(key string) string {
	v, err := c.prefs.Store().Get(key)
	if err != nil {
		log.Printf("PREFS_ERROR | key=%s error=%v", key, err)
		return ""
	}
	return v
}

func hasOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func cycle(options []Option, current string, delta int) string {
	if len(options) == 0 {
		return ""
	}
	idx := 0
	for i, o := range options {
		if o.Value == current {
			idx = i
			break
		}
	}
	n := len(options)
	idx = ((idx+delta)%n + n) % n
	return options[idx].Value
}
