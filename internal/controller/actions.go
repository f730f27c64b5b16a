// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Result is the typed outcome of an action: text to show, or an error.
type Result struct {
	Text string
	Err  error
}

// OK reports whether the action succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Action is a named user action bound to the controller. Actions that
// take free text (send, search) use a single argument verbatim and join
// several with spaces.
type Action func(ctx context.Context, args []string) Result

// Action names.
const (
	ActionSend      = "send"
	ActionExplain   = "explain"
	ActionRaw       = "raw"
	ActionClear     = "clear"
	ActionMenu      = "menu"
	ActionHealth    = "health"
	ActionProviders = "providers"
	ActionProvider  = "provider"
	ActionModel     = "model"
	ActionApply     = "apply"
	ActionSaveKey   = "save-key"
	ActionAddRepo   = "add-repo"
	ActionSync      = "sync"
	ActionRepos     = "repos"
	ActionRebuild   = "rebuild"
	ActionStats     = "stats"
	ActionMemory    = "memory"
	ActionForget    = "forget"
	ActionSearch    = "search"
)

// Actions returns the table of every user action. Front ends bind keys,
// buttons and slash commands to these names instead of calling handlers
// directly.
func (c *Controller) Actions() map[string]Action {
	return map[string]Action{
		ActionSend: func(ctx context.Context, args []string) Result {
			res := c.Send(ctx, freeText(args))
			return Result{Text: res.Answer, Err: res.Err}
		},
		ActionExplain: func(ctx context.Context, args []string) Result {
			return Result{Text: "Explain mode " + onOff(c.ToggleExplain()) + "."}
		},
		ActionRaw: func(ctx context.Context, args []string) Result {
			return Result{Text: "Raw sources " + onOff(c.ToggleRaw()) + "."}
		},
		ActionClear: func(ctx context.Context, args []string) Result {
			c.ClearChat()
			return Result{Text: "Chat cleared."}
		},
		ActionMenu: func(ctx context.Context, args []string) Result {
			if c.ToggleMenu(ctx) {
				return Result{Text: "Settings opened."}
			}
			return Result{Text: "Settings closed."}
		},
		ActionHealth: func(ctx context.Context, args []string) Result {
			h := c.CheckHealth(ctx)
			if !h.Online {
				return Result{Text: "Backend offline: " + h.Reason}
			}
			return Result{Text: "Backend online."}
		},
		ActionProviders: func(ctx context.Context, args []string) Result {
			if err := c.LoadProviders(ctx, false); err != nil {
				return Result{Err: err}
			}
			return Result{Text: c.providersText()}
		},
		ActionProvider: func(ctx context.Context, args []string) Result {
			if len(c.Catalog()) == 0 {
				if err := c.LoadProviders(ctx, true); err != nil {
					return Result{Err: err}
				}
			}
			err := c.SelectProvider(firstArg(args))
			return Result{Text: c.selectionText(), Err: err}
		},
		ActionModel: func(ctx context.Context, args []string) Result {
			err := c.SelectModel(firstArg(args))
			return Result{Text: c.selectionText(), Err: err}
		},
		ActionApply: func(ctx context.Context, args []string) Result {
			err := c.ApplyModel()
			return Result{Text: c.CurrentModelText(), Err: err}
		},
		ActionSaveKey: func(ctx context.Context, args []string) Result {
			key := firstArg(args)
			baseURL := ""
			if len(args) > 1 {
				baseURL = args[1]
			}
			err := c.SaveAPIKey(ctx, key, baseURL)
			return Result{Text: c.ops.String(), Err: err}
		},
		ActionAddRepo: func(ctx context.Context, args []string) Result {
			err := c.AddRepo(ctx, strings.Join(args, " "))
			return Result{Text: c.Repos(), Err: err}
		},
		ActionSync: func(ctx context.Context, args []string) Result {
			err := c.SyncRepos(ctx)
			return Result{Text: c.Steps(), Err: err}
		},
		ActionRepos: func(ctx context.Context, args []string) Result {
			err := c.RefreshRepos(ctx)
			return Result{Text: c.Repos(), Err: err}
		},
		ActionRebuild: func(ctx context.Context, args []string) Result {
			err := c.RebuildDB(ctx)
			return Result{Text: c.Steps(), Err: err}
		},
		ActionStats: func(ctx context.Context, args []string) Result {
			err := c.RefreshDBStats(ctx)
			return Result{Text: c.Stats(), Err: err}
		},
		ActionMemory: func(ctx context.Context, args []string) Result {
			text, err := c.MemoryText(ctx)
			return Result{Text: text, Err: err}
		},
		ActionForget: func(ctx context.Context, args []string) Result {
			text, err := c.ForgetMemory(ctx)
			return Result{Text: text, Err: err}
		},
		ActionSearch: func(ctx context.Context, args []string) Result {
			text, err := c.SearchText(ctx, freeText(args))
			return Result{Text: text, Err: err}
		},
	}
}

// Dispatch runs the named action.
func (c *Controller) Dispatch(ctx context.Context, name string, args []string) Result {
	action, ok := c.Actions()[name]
	if !ok {
		return Result{Err: fmt.Errorf("%w: %s", ErrUnknownAction, name)}
	}
	return action(ctx, args)
}

// ActionNames returns every action name, sorted.
func (c *Controller) ActionNames() []string {
	actions := c.Actions()
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Controller) providersText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]string, 0, len(c.catalog))
	for _, p := range c.catalog {
		marker := "  "
		if p.Name == c.providerChoice {
			marker = "> "
		}
		line := marker + p.Name
		if p.Default {
			line += " (default)"
		}
		if p.Configured {
			line += " [configured]"
		}
		if len(p.Models) > 0 {
			line += ": " + strings.Join(p.Models, ", ")
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "No providers reported."
	}
	return strings.Join(lines, "\n")
}

func (c *Controller) selectionText() string {
	provider, model := c.Selection()
	return fmt.Sprintf("Selected: provider=%s · model=%s (use /apply to use it)", labelOf(provider), labelOf(model))
}

func labelOf(v string) string {
	if v == "" {
		return DefaultOption.Label
	}
	return v
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func freeText(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return strings.Join(args, " ")
}
