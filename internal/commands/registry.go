// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/provider <name>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Action is the controller action the command dispatches, if any.
	Action string

	// Handler overrides Action for commands that need local logic.
	Handler func(ctx *Context, args []string) tea.Cmd

	// RawText passes the argument text unsplit, as a single argument, so
	// quotes and spacing in free text survive.
	RawText bool

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string

	// Secret arguments are masked when echoed back.
	Secret bool
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString   ArgType = iota // Free-form string
	ArgTypeProvider                // Provider name from the catalog
	ArgTypeModel                   // Model offered by the selected provider
	ArgTypeEnum                    // One of predefined values
	ArgTypeConfig                  // Config key
)

// Categories in help display order.
const (
	CategoryConversation = "Conversation"
	CategoryModel        = "Model"
	CategoryKnowledge    = "Knowledge base"
	CategorySettings     = "Settings"
)

var categoryOrder = []string{CategoryConversation, CategoryModel, CategoryKnowledge, CategorySettings}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	return r.aliases[name]
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = CategorySettings
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Conversation
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Usage:       "/help [command]",
		Category:    CategoryConversation,
		Handler:     HandleHelp,
	})
	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit Modia",
		Category:    CategoryConversation,
		Handler:     HandleQuit,
	})
	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/c"},
		Description: "Clear the chat window",
		Category:    CategoryConversation,
		Action:      controller.ActionClear,
	})
	r.Register(&Command{
		Name:        "/explain",
		Description: "Toggle explain mode",
		Category:    CategoryConversation,
		Action:      controller.ActionExplain,
	})
	r.Register(&Command{
		Name:        "/raw",
		Description: "Toggle raw sources under answers",
		Category:    CategoryConversation,
		Action:      controller.ActionRaw,
	})
	r.Register(&Command{
		Name:        "/memory",
		Description: "Show the server's conversation memory",
		Category:    CategoryConversation,
		Action:      controller.ActionMemory,
	})
	r.Register(&Command{
		Name:        "/forget",
		Description: "Clear the server's conversation memory",
		Category:    CategoryConversation,
		Action:      controller.ActionForget,
	})
	r.Register(&Command{
		Name:        "/export",
		Aliases:     []string{"/save"},
		Description: "Save the conversation to a file",
		Usage:       "/export [md|json] [dir]",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"md", "json"}, Description: "File format"},
			{Name: "dir", Type: ArgTypeString, Description: "Output directory"},
		},
		Category: CategoryConversation,
		Handler:  HandleExport,
	})

	// Model
	r.Register(&Command{
		Name:        "/menu",
		Aliases:     []string{"/settings"},
		Description: "Show or hide the settings panel",
		Category:    CategoryModel,
		Action:      controller.ActionMenu,
	})
	r.Register(&Command{
		Name:        "/providers",
		Description: "List LLM providers and their models",
		Category:    CategoryModel,
		Action:      controller.ActionProviders,
	})
	r.Register(&Command{
		Name:        "/provider",
		Aliases:     []string{"/p"},
		Description: "Select a provider (empty for backend default)",
		Usage:       "/provider [name]",
		Args: []ArgDef{
			{Name: "name", Type: ArgTypeProvider, Description: "Provider name"},
		},
		Category: CategoryModel,
		Action:   controller.ActionProvider,
	})
	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Select a model (empty for provider default)",
		Usage:       "/model [name]",
		Args: []ArgDef{
			{Name: "name", Type: ArgTypeModel, Description: "Model name"},
		},
		Category: CategoryModel,
		Action:   controller.ActionModel,
	})
	r.Register(&Command{
		Name:        "/apply",
		Description: "Use the selected provider and model for chat",
		Category:    CategoryModel,
		Action:      controller.ActionApply,
	})
	r.Register(&Command{
		Name:        "/key",
		Description: "Save an API key for the selected provider",
		Usage:       "/key <api_key> [base_url]",
		Args: []ArgDef{
			{Name: "api_key", Required: true, Type: ArgTypeString, Description: "Provider API key", Secret: true},
			{Name: "base_url", Type: ArgTypeString, Description: "Optional API base URL"},
		},
		Category: CategoryModel,
		Action:   controller.ActionSaveKey,
	})

	// Knowledge base
	r.Register(&Command{
		Name:        "/repo",
		Description: "Register a git repository as a source",
		Usage:       "/repo add <url>",
		Args: []ArgDef{
			{Name: "verb", Required: true, Type: ArgTypeEnum, Values: []string{"add"}, Description: "Repository action"},
			{Name: "url", Required: true, Type: ArgTypeString, Description: "Git URL"},
		},
		Category: CategoryKnowledge,
		Handler:  HandleRepo,
	})
	r.Register(&Command{
		Name:        "/repos",
		Description: "List registered repositories",
		Category:    CategoryKnowledge,
		Action:      controller.ActionRepos,
	})
	r.Register(&Command{
		Name:        "/sync",
		Description: "Clone or pull every registered repository",
		Category:    CategoryKnowledge,
		Action:      controller.ActionSync,
	})
	r.Register(&Command{
		Name:        "/rebuild",
		Description: "Sync repositories and rebuild the database",
		Category:    CategoryKnowledge,
		Action:      controller.ActionRebuild,
	})
	r.Register(&Command{
		Name:        "/stats",
		Description: "Show database statistics",
		Category:    CategoryKnowledge,
		Action:      controller.ActionStats,
	})
	r.Register(&Command{
		Name:        "/search",
		Aliases:     []string{"/s"},
		Description: "Search the knowledge base with scores",
		Usage:       "/search <query>",
		Args: []ArgDef{
			{Name: "query", Required: true, Type: ArgTypeString, Description: "Search text"},
		},
		Category: CategoryKnowledge,
		Action:   controller.ActionSearch,
		RawText:  true,
	})

	// Settings
	r.Register(&Command{
		Name:        "/health",
		Aliases:     []string{"/status"},
		Description: "Check that the backend is reachable",
		Category:    CategorySettings,
		Action:      controller.ActionHealth,
	})
	r.Register(&Command{
		Name:        "/config",
		Description: "Show or edit client configuration",
		Usage:       "/config [key] [value]",
		Args: []ArgDef{
			{Name: "key", Type: ArgTypeConfig, Description: "Config key"},
			{Name: "value", Type: ArgTypeString, Description: "New value"},
		},
		Category: CategorySettings,
		Handler:  HandleConfig,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Context gives handlers access to the controller and configuration.
// Config may be nil.
type Context struct {
	Controller *controller.Controller
	Config     *config.Config
	Registry   *Registry

	// Base is the parent context of backend calls. Nil means Background.
	Base context.Context
}

// NewContext creates a command context.
func NewContext(ctrl *controller.Controller, cfg *config.Config, reg *Registry) *Context {
	return &Context{Controller: ctrl, Config: cfg, Registry: reg}
}

func (c *Context) base() context.Context {
	if c == nil || c.Base == nil {
		return context.Background()
	}
	return c.Base
}

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	Value       string
	Display     string
	Description string

	// Score for ranking (higher = better match)
	Score int
}
