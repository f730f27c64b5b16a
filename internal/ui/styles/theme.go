// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/modia-tui/internal/controller"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Header
	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderMeta  lipgloss.Style

	// Transcript
	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	ErrorBubble     lipgloss.Style
	SourcesBlock    lipgloss.Style
	Timestamp       lipgloss.Style
	Notice          lipgloss.Style

	// Status
	StatusReady   lipgloss.Style
	StatusBusy    lipgloss.Style
	StatusError   lipgloss.Style
	StatusOffline lipgloss.Style
	ToggleOn      lipgloss.Style
	ToggleOff     lipgloss.Style

	// Input
	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	SendButton       lipgloss.Style
	SendButtonBusy   lipgloss.Style
	CompletionItem   lipgloss.Style
	CompletionActive lipgloss.Style
	Hint             lipgloss.Style
	ShortcutKey      lipgloss.Style

	// Settings panel
	Panel          lipgloss.Style
	PanelTitle     lipgloss.Style
	FieldLabel     lipgloss.Style
	Field          lipgloss.Style
	FieldFocused   lipgloss.Style
	OptionSelected lipgloss.Style
	Button         lipgloss.Style
	ButtonFocused  lipgloss.Style
	OpsLog         lipgloss.Style
	StepOK         lipgloss.Style
	StepFailed     lipgloss.Style

	// Code
	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
}

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// NewTheme creates a theme. mode "dark" or "light" overrides background
// detection; anything else detects it.
func NewTheme(mode string) *Theme {
	profile := termenv.ColorProfile()
	isDark := termenv.HasDarkBackground()

	switch strings.ToLower(mode) {
	case ModeDark:
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case ModeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)
	t.HeaderMeta = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Transcript
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)
	t.ErrorBubble = t.AssistantBubble.
		Foreground(ErrorBubbleFg).
		BorderForeground(Rose)
	t.SourcesBlock = lipgloss.NewStyle().
		Foreground(SourcesFg).
		Background(SourcesBg).
		Padding(0, 1)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Notice = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	// Status
	t.StatusReady = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	t.StatusBusy = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.StatusOffline = lipgloss.NewStyle().Foreground(TextMuted).Bold(true)
	t.ToggleOn = lipgloss.NewStyle().Foreground(TextInverse).Background(Amber).Padding(0, 1)
	t.ToggleOff = lipgloss.NewStyle().Foreground(TextSecondary).Background(Overlay).Padding(0, 1)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(OverlayDim).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.SendButton = lipgloss.NewStyle().Foreground(TextInverse).Background(Cyan).Padding(0, 1)
	t.SendButtonBusy = lipgloss.NewStyle().Foreground(TextMuted).Background(Overlay).Padding(0, 1)
	t.CompletionItem = lipgloss.NewStyle().Foreground(TextSecondary).Padding(0, 1)
	t.CompletionActive = lipgloss.NewStyle().Foreground(TextInverse).Background(Purple).Padding(0, 1)
	t.Hint = lipgloss.NewStyle().Foreground(TextMuted)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan)

	// Settings panel
	t.Panel = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.PanelTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.FieldLabel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.Field = lipgloss.NewStyle().Foreground(TextPrimary)
	t.FieldFocused = lipgloss.NewStyle().Foreground(Purple).Bold(true)
	t.OptionSelected = lipgloss.NewStyle().Foreground(TextInverse).Background(Purple)
	t.Button = lipgloss.NewStyle().Foreground(TextPrimary).Background(Overlay).Padding(0, 1)
	t.ButtonFocused = lipgloss.NewStyle().Foreground(TextInverse).Background(Purple).Padding(0, 1)
	t.OpsLog = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StepOK = lipgloss.NewStyle().Foreground(Emerald)
	t.StepFailed = lipgloss.NewStyle().Foreground(Rose)

	// Code
	t.CodeBlock = lipgloss.NewStyle().
		Background(SourcesBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Purple).
		Padding(0, 1)
}

// StatusStyle returns the indicator style for a controller state.
func (t *Theme) StatusStyle(state controller.State) lipgloss.Style {
	switch state {
	case controller.StateBusy:
		return t.StatusBusy
	case controller.StateError:
		return t.StatusError
	case controller.StateOffline:
		return t.StatusOffline
	default:
		return t.StatusReady
	}
}

// Toggle renders a labeled on/off pill.
func (t *Theme) Toggle(label string, on bool) string {
	if on {
		return t.ToggleOn.Render(label + " on")
	}
	return t.ToggleOff.Render(label + " off")
}

// StepLine colors a rendered step line by its leading glyph.
func (t *Theme) StepLine(line string) string {
	switch {
	case strings.HasPrefix(line, "✓"):
		return t.StepOK.Render(line)
	case strings.HasPrefix(line, "✗"):
		return t.StepFailed.Render(line)
	default:
		return t.OpsLog.Render(line)
	}
}
