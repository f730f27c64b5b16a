// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/ui/styles"
)

// =============================================================================
// FOCUS FIELDS
// =============================================================================

// Field is a focusable element of the settings panel.
type Field int

const (
	FieldProvider Field = iota
	FieldModel
	FieldApply
	FieldAPIKey
	FieldBaseURL
	FieldSaveKey
	FieldRepoURL
	FieldAddRepo
	FieldSync
	FieldRebuild
	fieldCount
)

// PanelAction is what pressing Enter on the focused field asks for.
type PanelAction int

const (
	PanelNone PanelAction = iota
	PanelApply
	PanelSaveKey
	PanelAddRepo
	PanelSync
	PanelRebuild
)

var fieldActions = map[Field]PanelAction{
	FieldApply:   PanelApply,
	FieldAPIKey:  PanelSaveKey,
	FieldBaseURL: PanelSaveKey,
	FieldSaveKey: PanelSaveKey,
	FieldRepoURL: PanelAddRepo,
	FieldAddRepo: PanelAddRepo,
	FieldSync:    PanelSync,
	FieldRebuild: PanelRebuild,
}

// opsLogLines is how much of the operations log the panel shows.
const opsLogLines = 8

// =============================================================================
// SETTINGS PANEL
// =============================================================================

// SettingsPanel holds the focus and text inputs of the settings menu.
// Selector values and texts come from the controller snapshot at render.
type SettingsPanel struct {
	Width int

	theme   *styles.Theme
	focus   Field
	apiKey  textinput.Model
	baseURL textinput.Model
	repoURL textinput.Model
}

// NewSettingsPanel creates a panel focused on the provider selector.
func NewSettingsPanel(theme *styles.Theme) *SettingsPanel {
	key := textinput.New()
	key.Placeholder = "API key"
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'
	key.Prompt = ""

	base := textinput.New()
	base.Placeholder = "Base URL (optional)"
	base.Prompt = ""

	repo := textinput.New()
	repo.Placeholder = "https://github.com/org/repo.git"
	repo.Prompt = ""

	return &SettingsPanel{
		Width:   80,
		theme:   theme,
		apiKey:  key,
		baseURL: base,
		repoURL: repo,
	}
}

// Focus returns the focused field.
func (p *SettingsPanel) Focus() Field {
	return p.focus
}

// SetFocus moves focus to f.
func (p *SettingsPanel) SetFocus(f Field) tea.Cmd {
	p.focus = ((f % fieldCount) + fieldCount) % fieldCount
	p.apiKey.Blur()
	p.baseURL.Blur()
	p.repoURL.Blur()
	if in := p.input(); in != nil {
		return in.Focus()
	}
	return nil
}

// Next moves focus forward, wrapping around.
func (p *SettingsPanel) Next() tea.Cmd {
	return p.SetFocus(p.focus + 1)
}

// Prev moves focus backward, wrapping around.
func (p *SettingsPanel) Prev() tea.Cmd {
	return p.SetFocus(p.focus - 1)
}

// Reset blurs every input and focuses the provider selector.
func (p *SettingsPanel) Reset() {
	p.SetFocus(FieldProvider)
}

// IsSelector reports whether the focused field is a provider or model selector.
func (p *SettingsPanel) IsSelector() bool {
	return p.focus == FieldProvider || p.focus == FieldModel
}

// IsInput reports whether the focused field takes typed text.
func (p *SettingsPanel) IsInput() bool {
	return p.input() != nil
}

// Action returns what Enter does on the focused field.
func (p *SettingsPanel) Action() PanelAction {
	return fieldActions[p.focus]
}

func (p *SettingsPanel) input() *textinput.Model {
	switch p.focus {
	case FieldAPIKey:
		return &p.apiKey
	case FieldBaseURL:
		return &p.baseURL
	case FieldRepoURL:
		return &p.repoURL
	default:
		return nil
	}
}

// Update forwards msg to the focused text input.
func (p *SettingsPanel) Update(msg tea.Msg) tea.Cmd {
	in := p.input()
	if in == nil {
		return nil
	}
	var cmd tea.Cmd
	*in, cmd = in.Update(msg)
	return cmd
}

// APIKey returns the typed key.
func (p *SettingsPanel) APIKey() string { return p.apiKey.Value() }

// BaseURL returns the typed base URL.
func (p *SettingsPanel) BaseURL() string { return p.baseURL.Value() }

// RepoURL returns the typed repository URL.
func (p *SettingsPanel) RepoURL() string { return p.repoURL.Value() }

// ClearKeyForm empties the API key and base URL inputs.
func (p *SettingsPanel) ClearKeyForm() {
	p.apiKey.SetValue("")
	p.baseURL.SetValue("")
}

// ClearRepoURL empties the repository input.
func (p *SettingsPanel) ClearRepoURL() {
	p.repoURL.SetValue("")
}

// =============================================================================
// RENDERING
// =============================================================================

// Render draws the panel for a controller snapshot.
func (p *SettingsPanel) Render(v controller.View) string {
	t := p.theme
	inner := p.Width - 4
	if inner < 30 {
		inner = 30
	}

	var b strings.Builder
	b.WriteString(t.PanelTitle.Render("Settings"))
	b.WriteString("\n\n")

	b.WriteString(p.row("Provider", p.selector(FieldProvider, v.ProviderOptions, v.ProviderChoice)))
	b.WriteString(p.row("Model", p.selector(FieldModel, v.ModelOptions, v.ModelChoice)+"  "+p.button(FieldApply, "Apply")))
	b.WriteString(t.HeaderMeta.Render(v.CurrentModel))
	b.WriteString("\n\n")

	b.WriteString(p.row("API key", p.field(FieldAPIKey, p.apiKey)))
	b.WriteString(p.row("Base URL", p.field(FieldBaseURL, p.baseURL)+"  "+p.button(FieldSaveKey, "Save key")))
	b.WriteString("\n")

	b.WriteString(t.PanelTitle.Render("Repositories"))
	b.WriteString("\n")
	b.WriteString(t.Field.Render(orPlaceholder(v.Repos, "Loading…")))
	b.WriteString("\n")
	b.WriteString(p.row("Repo URL", p.field(FieldRepoURL, p.repoURL)+"  "+p.button(FieldAddRepo, "Add")+" "+p.button(FieldSync, "Sync")))
	b.WriteString("\n")

	b.WriteString(t.PanelTitle.Render("Knowledge base"))
	b.WriteString("\n")
	b.WriteString(t.Field.Render(orPlaceholder(v.Stats, "Loading…")) + "  " + p.button(FieldRebuild, "Rebuild DB"))
	b.WriteString("\n\n")

	b.WriteString(t.PanelTitle.Render("Steps"))
	b.WriteString("\n")
	for _, line := range strings.Split(v.Steps, "\n") {
		b.WriteString(t.StepLine(line))
		b.WriteString("\n")
	}

	if log := tailLines(v.OpsLog, opsLogLines); log != "" {
		b.WriteString("\n")
		b.WriteString(t.PanelTitle.Render("Log"))
		b.WriteString("\n")
		b.WriteString(t.OpsLog.Width(inner).Render(log))
	}

	return t.Panel.Width(inner).Render(strings.TrimRight(b.String(), "\n"))
}

func (p *SettingsPanel) row(label, content string) string {
	return p.theme.FieldLabel.Width(10).Render(label) + content + "\n"
}

func (p *SettingsPanel) selector(f Field, options []controller.Option, choice string) string {
	label := choice
	for _, o := range options {
		if o.Value == choice {
			label = o.Label
			break
		}
	}
	text := "‹ " + label + " ›"
	if p.focus == f {
		return p.theme.FieldFocused.Render(text)
	}
	return p.theme.Field.Render(text)
}

func (p *SettingsPanel) field(f Field, in textinput.Model) string {
	view := lipgloss.NewStyle().Width(30).Render(in.View())
	if p.focus == f {
		return p.theme.FieldFocused.Render("> ") + view
	}
	return "  " + view
}

func (p *SettingsPanel) button(f Field, label string) string {
	if p.focus == f {
		return p.theme.ButtonFocused.Render(label)
	}
	return p.theme.Button.Render(label)
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// tailLines returns the last n lines of s.
func tailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
