// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modia-tui/internal/commands"
	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/ui/components"
	"github.com/jeranaias/modia-tui/internal/ui/styles"
)

// Panel operation names reported in OpDoneMsg.
const (
	opSaveKey = "Save key"
	opAddRepo = "Add repo"
	opSync    = "Sync"
	opRebuild = "Rebuild DB"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	// Controller does all backend work. Required.
	Controller *controller.Controller
	// Config supplies display defaults. Nil uses config.Default().
	Config *config.Config
	// Theme is the style set. Nil builds one from Config.UI.Theme.
	Theme *styles.Theme
	// Context is the parent of every backend call. Nil means Background.
	Context context.Context
	// OnConfig is called after a configuration change is applied, so the
	// caller can retarget the HTTP client.
	OnConfig func(*config.Config)
}

// Model is the Bubble Tea model for the chat view and settings menu.
type Model struct {
	ctx      context.Context
	ctrl     *controller.Controller
	cfg      *config.Config
	theme    *styles.Theme
	keyMap   KeyMap
	onConfig func(*config.Config)

	// Dimensions
	width  int
	height int

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  components.Spinner
	status   *components.StatusBar
	panel    *components.SettingsPanel
	markdown *components.Markdown
	cache    *renderCache

	// Slash commands
	registry   *commands.Registry
	parser     *commands.Parser
	completer  *commands.Completer
	completion *commands.CompletionState
	cmdCtx     *commands.Context

	// changes is signalled by the controller from any goroutine.
	changes chan struct{}

	// One-line feedback above the input; overlay replaces the transcript
	// with help or a multi-line command result until Esc.
	notice    string
	noticeErr bool
	overlay   string

	lastCount   int
	lastMenu    bool
	lastOverlay string
}

// New creates a chat model bound to a controller.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	ctrl := opts.Controller

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your sources, or type /help"
	ti.CharLimit = 4096
	ti.Focus()

	registry := commands.NewRegistry()
	completer := commands.NewCompleter(registry)
	completer.ProvidersFn = func() []string { return providerNames(ctrl) }
	completer.ModelsFn = func() []string { return modelNames(ctrl) }

	cmdCtx := commands.NewContext(ctrl, cfg, registry)
	cmdCtx.Base = ctx

	changes := make(chan struct{}, 1)
	ctrl.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	ctrl.SetTopK(cfg.Chat.TopK)

	m := Model{
		ctx:        ctx,
		ctrl:       ctrl,
		cfg:        cfg,
		theme:      theme,
		keyMap:     DefaultKeyMap(),
		onConfig:   opts.OnConfig,
		width:      80,
		height:     24,
		viewport:   viewport.New(80, 16),
		input:      ti,
		spinner:    components.NewSpinner(),
		status:     components.NewStatusBar(theme),
		panel:      components.NewSettingsPanel(theme),
		cache:      newRenderCache(),
		registry:   registry,
		parser:     commands.NewParser(registry),
		completer:  completer,
		completion: &commands.CompletionState{},
		cmdCtx:     cmdCtx,
		changes:    changes,
	}
	if cfg.Chat.RenderMarkdown {
		m.markdown = components.NewMarkdown(76)
	}
	m.refresh()
	return m
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts cursor blinking, the change listener and the health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		waitForChange(m.changes),
		healthCmd(m.ctx, m.ctrl),
	)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChangedMsg:
		cmds = append(cmds, waitForChange(m.changes), m.syncSpinner())

	case SendDoneMsg:
		if errors.Is(msg.Result.Err, controller.ErrSendInFlight) {
			m.setNotice("A question is already pending.", true)
		}
		cmds = append(cmds, m.syncSpinner())

	case HealthMsg:
		if !msg.Result.Online {
			m.setNotice("Backend offline: "+msg.Result.Reason, true)
		}

	case OpDoneMsg:
		m.handleOpDone(msg)
		cmds = append(cmds, m.syncSpinner())

	case commands.ResultMsg:
		m.showResult(msg)

	case commands.ShowHelpMsg:
		m.overlay = msg.Text

	case commands.ConfigUpdateMsg:
		if msg.Err != nil {
			m.setNotice(msg.Err.Error(), true)
			break
		}
		m.applyConfig(msg.Config)
		m.setNotice(msg.Key+" = "+formatValue(msg.Value), false)

	case ConfigReloadedMsg:
		if msg.Config != nil {
			m.applyConfig(msg.Config)
			m.setNotice("Configuration reloaded.", false)
		}

	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keyMap.Menu):
		m.toggleMenu()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	if m.ctrl.MenuOpen() {
		cmd = m.handleMenuKey(msg)
	} else {
		cmd = m.handleChatKey(msg)
	}
	m.refresh()
	return m, cmd
}

func (m *Model) toggleMenu() {
	if m.ctrl.ToggleMenu(m.ctx) {
		m.panel.Reset()
		m.completion.Clear()
		m.overlay = ""
	}
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Close):
		m.toggleMenu()
	case key.Matches(msg, m.keyMap.Next):
		return m.panel.Next()
	case key.Matches(msg, m.keyMap.Prev):
		return m.panel.Prev()
	case key.Matches(msg, m.keyMap.Left) && m.panel.IsSelector():
		m.cycleSelector(-1)
	case key.Matches(msg, m.keyMap.Right) && m.panel.IsSelector():
		m.cycleSelector(1)
	case key.Matches(msg, m.keyMap.Send):
		return m.activate()
	default:
		return m.panel.Update(msg)
	}
	return nil
}

func (m *Model) cycleSelector(delta int) {
	var err error
	if m.panel.Focus() == components.FieldProvider {
		err = m.ctrl.CycleProvider(delta)
	} else {
		err = m.ctrl.CycleModel(delta)
	}
	if err != nil {
		m.setNotice(err.Error(), true)
	}
}

// activate runs the focused panel button.
func (m *Model) activate() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	switch m.panel.Action() {
	case components.PanelApply:
		if err := ctrl.ApplyModel(); err != nil {
			m.setNotice(err.Error(), true)
		}
	case components.PanelSaveKey:
		apiKey, baseURL := m.panel.APIKey(), m.panel.BaseURL()
		return opCmd(opSaveKey, func() error { return ctrl.SaveAPIKey(ctx, apiKey, baseURL) })
	case components.PanelAddRepo:
		url := m.panel.RepoURL()
		return opCmd(opAddRepo, func() error { return ctrl.AddRepo(ctx, url) })
	case components.PanelSync:
		return opCmd(opSync, func() error { return ctrl.SyncRepos(ctx) })
	case components.PanelRebuild:
		return opCmd(opRebuild, func() error { return ctrl.RebuildDB(ctx) })
	}
	return nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keyMap.Close):
		switch {
		case m.overlay != "":
			m.overlay = ""
		case m.completion.Visible:
			m.completion.Clear()
		default:
			m.setNotice("", false)
		}
	case key.Matches(msg, m.keyMap.Explain):
		m.ctrl.ToggleExplain()
	case key.Matches(msg, m.keyMap.Raw):
		m.ctrl.ToggleRaw()
	case key.Matches(msg, m.keyMap.Clear):
		m.ctrl.ClearChat()
		m.overlay = ""
		m.cache.reset()
	case key.Matches(msg, m.keyMap.Next):
		m.complete()
	case key.Matches(msg, m.keyMap.Prev) && m.completion.Visible:
		m.completion.Prev()
	case key.Matches(msg, m.keyMap.Up) && m.completion.Visible:
		m.completion.Prev()
	case key.Matches(msg, m.keyMap.Down) && m.completion.Visible:
		m.completion.Next()
	case key.Matches(msg, m.keyMap.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keyMap.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keyMap.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keyMap.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keyMap.Send):
		if m.completion.Visible {
			m.acceptCompletion()
			return nil
		}
		return m.submit()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.completion.Visible {
			m.completion.Update(m.completer.Complete(m.input.Value()))
		}
		return cmd
	}
	return nil
}

// submit sends the input as a question or runs it as a slash command.
func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if commands.IsCommand(text) {
		m.input.Reset()
		m.completion.Clear()
		m.overlay = ""
		log.Printf("TUI_COMMAND | input=%q", commands.Redact(m.registry, text))
		return commands.Execute(m.cmdCtx, m.parser.Parse(text))
	}

	if m.ctrl.Sending() {
		m.setNotice("A question is already pending.", true)
		return nil
	}
	m.input.Reset()
	m.overlay = ""
	m.setNotice("", false)
	return sendCmd(m.ctx, m.ctrl, text)
}

// =============================================================================
// COMPLETION
// =============================================================================

// complete shows completions for the input, applies a single match, or
// cycles the visible list.
func (m *Model) complete() {
	if m.completion.Visible {
		m.completion.Next()
		return
	}
	matches := m.completer.Complete(m.input.Value())
	switch len(matches) {
	case 0:
	case 1:
		m.setInput(commands.Apply(m.input.Value(), matches[0].Value))
	default:
		m.completion.Update(matches)
	}
}

func (m *Model) acceptCompletion() {
	if value := m.completion.Accept(); value != "" {
		m.setInput(commands.Apply(m.input.Value(), value))
	}
	m.completion.Clear()
}

func (m *Model) setInput(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// =============================================================================
// RESULT HANDLING
// =============================================================================

func (m *Model) handleOpDone(msg OpDoneMsg) {
	if msg.Err != nil {
		m.setNotice(msg.Op+" failed: "+msg.Err.Error(), true)
		return
	}
	switch msg.Op {
	case opSaveKey:
		m.panel.ClearKeyForm()
	case opAddRepo:
		m.panel.ClearRepoURL()
	}
	m.setNotice(msg.Op+" finished.", false)
}

// showResult puts a one-line result in the notice and anything longer in
// the overlay.
func (m *Model) showResult(msg commands.ResultMsg) {
	if msg.Err != nil {
		m.setNotice(msg.Err.Error(), true)
		return
	}
	text := strings.TrimRight(msg.Text, "\n")
	if strings.Contains(text, "\n") {
		m.overlay = msg.Command + "\n\n" + text
		m.setNotice("", false)
		return
	}
	m.setNotice(text, false)
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.UI.Theme != m.cfg.UI.Theme {
		*m.theme = *styles.NewTheme(cfg.UI.Theme)
	}
	m.cfg = cfg
	m.cmdCtx.Config = cfg
	m.ctrl.SetTopK(cfg.Chat.TopK)
	switch {
	case cfg.Chat.RenderMarkdown && m.markdown == nil:
		m.markdown = components.NewMarkdown(76)
	case !cfg.Chat.RenderMarkdown:
		m.markdown = nil
	}
	m.cache.reset()
	if m.onConfig != nil {
		m.onConfig(cfg)
	}
}

// syncSpinner runs the spinner while a question or operation is pending.
func (m *Model) syncSpinner() tea.Cmd {
	v := m.ctrl.View()
	busy := v.Sending || v.OpActive
	switch {
	case busy && !m.spinner.IsActive():
		if v.Sending {
			m.spinner.SetMessage("Thinking")
		} else {
			m.spinner.SetMessage("Working")
		}
		return m.spinner.Start()
	case !busy && m.spinner.IsActive():
		m.spinner.Stop()
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Controller returns the bound controller.
func (m Model) Controller() *controller.Controller {
	return m.ctrl
}

// Notice returns the one-line feedback text.
func (m Model) Notice() string {
	return m.notice
}

// Overlay returns the help or result text shown over the transcript.
func (m Model) Overlay() string {
	return m.overlay
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

func providerNames(ctrl *controller.Controller) []string {
	var names []string
	for _, p := range ctrl.Catalog() {
		names = append(names, p.Name)
	}
	return names
}

func modelNames(ctrl *controller.Controller) []string {
	provider, _ := ctrl.Selection()
	for _, p := range ctrl.Catalog() {
		if p.Name == provider {
			return p.Models
		}
	}
	return nil
}
