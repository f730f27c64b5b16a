// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/modia-tui/internal/controller"
	"github.com/jeranaias/modia-tui/internal/model"
	"github.com/jeranaias/modia-tui/internal/opslog"
	"github.com/jeranaias/modia-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme(styles.ModeDark)
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestSplitFences(t *testing.T) {
	segs := SplitFences("intro\n```go\nfmt.Println()\n```\noutro")
	if len(segs) != 3 {
		t.Fatalf("SplitFences() = %d segments, want 3: %+v", len(segs), segs)
	}
	if segs[0].Code || segs[0].Text != "intro" {
		t.Errorf("segment 0 = %+v", segs[0])
	}
	if !segs[1].Code || segs[1].Language != "go" || segs[1].Text != "fmt.Println()" {
		t.Errorf("segment 1 = %+v", segs[1])
	}
	if segs[2].Code || segs[2].Text != "outro" {
		t.Errorf("segment 2 = %+v", segs[2])
	}
}

func TestSplitFences_Unclosed(t *testing.T) {
	segs := SplitFences("a\n```\nx := 1")
	if len(segs) != 2 {
		t.Fatalf("SplitFences() = %d segments, want 2", len(segs))
	}
	if !segs[1].Code || segs[1].Text != "x := 1" || segs[1].Language != "" {
		t.Errorf("unclosed fence = %+v", segs[1])
	}
}

func TestSplitFences_NoFences(t *testing.T) {
	segs := SplitFences("just prose\nover two lines")
	if len(segs) != 1 || segs[0].Code {
		t.Fatalf("SplitFences() = %+v", segs)
	}
}

func TestSourcesBlock_KeepsText(t *testing.T) {
	out := NewSourcesBlock("Sources (RAG) - top 5:\n[1] hello").Render(testTheme())
	for _, want := range []string{"Sources (RAG) - top 5:", "[1] hello"} {
		if !strings.Contains(out, want) {
			t.Errorf("sources block missing %q:\n%s", want, out)
		}
	}
}

func TestCodeBlock_LanguageBadge(t *testing.T) {
	out := NewCodeBlock("python", "print(1)").Render(testTheme())
	if !strings.Contains(out, "python") {
		t.Errorf("code block missing language badge:\n%s", out)
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestRenderMessage(t *testing.T) {
	theme := testTheme()

	answered := *model.NewMessage(model.RoleAI, "the answer")
	answered.Provider = "openai"
	answered.Model = "gpt-4o"

	failed := *model.NewMessage(model.RoleAI, "Error: overloaded")
	failed.Failed = true

	pending := *model.NewMessage(model.RoleAI, controller.Placeholder)
	pending.Pending = true

	tests := []struct {
		name  string
		msg   model.Message
		opts  MessageOptions
		wants []string
	}{
		{"user", *model.NewMessage(model.RoleUser, "hello there"), MessageOptions{}, []string{"You", "hello there"}},
		{"answer metadata", answered, MessageOptions{}, []string{"Modia", "openai/gpt-4o", "the answer"}},
		{"failure", failed, MessageOptions{}, []string{"Error: overloaded"}},
		{"pending", pending, MessageOptions{SpinnerFrame: "|"}, []string{"| Thinking..."}},
		{"sources", *model.NewSourcesMessage("Sources (RAG): no results."), MessageOptions{}, []string{"Sources", "Sources (RAG): no results."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderMessage(theme, tt.msg, tt.opts)
			for _, want := range tt.wants {
				if !strings.Contains(out, want) {
					t.Errorf("RenderMessage() missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRenderMessage_Timestamp(t *testing.T) {
	m := *model.NewMessage(model.RoleUser, "hi")
	m.Timestamp = time.Date(2025, 1, 2, 13, 4, 5, 0, time.UTC)

	out := RenderMessage(testTheme(), m, MessageOptions{ShowTimestamps: true})
	if !strings.Contains(out, "13:04:05") {
		t.Errorf("timestamp missing:\n%s", out)
	}
	out = RenderMessage(testTheme(), m, MessageOptions{})
	if strings.Contains(out, "13:04:05") {
		t.Errorf("timestamp shown while disabled:\n%s", out)
	}
}

func TestRenderTranscript_Order(t *testing.T) {
	tr := model.NewTranscript()
	tr.Append(model.NewMessage(model.RoleUser, "first question"))
	tr.Append(model.NewMessage(model.RoleAI, "first answer"))

	out := RenderTranscript(testTheme(), tr.Messages(), MessageOptions{Width: 60})
	greeting := strings.Index(out, "Modia")
	q := strings.Index(out, "first question")
	a := strings.Index(out, "first answer")
	if greeting < 0 || q < greeting || a < q {
		t.Errorf("transcript out of order (greeting=%d question=%d answer=%d)", greeting, q, a)
	}
}

func TestMarkdown_NilPassesThrough(t *testing.T) {
	var md *Markdown
	if got := md.Render("**bold**"); got != "**bold**" {
		t.Errorf("nil Markdown.Render() = %q", got)
	}
	md.SetWidth(10)
}

func TestMarkdown_Render(t *testing.T) {
	md := NewMarkdownWithStyle(40, "notty")
	out := md.Render("# Title\n\nsome **bold** text")
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("Markdown.Render() = %q", out)
	}
	if got := md.Render("   "); got != "   " {
		t.Errorf("blank input changed: %q", got)
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar_Render(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetWidth(120)

	v := controller.View{
		State:        controller.StateReady,
		StatusLabel:  controller.LabelReady,
		SendLabel:    controller.SendIdle,
		ExplainMode:  true,
		CurrentModel: "Current: provider=(default) · model=(default)",
	}
	out := bar.Render(v)
	for _, want := range []string{"● Ready", "Explain on", "Raw off", "Send", "Current: provider=(default)"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q: %q", want, out)
		}
	}
	if w := lipgloss.Width(out); w > 120 {
		t.Errorf("status bar width = %d, want <= 120", w)
	}

	v.Sending = true
	v.SendLabel = controller.SendSending
	v.StatusLabel = controller.LabelThinking
	out = bar.Render(v)
	if !strings.Contains(out, "Sending...") || !strings.Contains(out, "Thinking") {
		t.Errorf("busy status bar = %q", out)
	}
}

func TestStatusBar_NarrowDropsModel(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetWidth(30)
	out := bar.Render(controller.View{StatusLabel: controller.LabelReady, SendLabel: "Send", CurrentModel: "Current: provider=openai · model=gpt-4o"})
	if strings.Contains(out, "Current") {
		t.Errorf("narrow bar kept model text: %q", out)
	}
}

func TestRenderShortcuts_Fits(t *testing.T) {
	out := RenderShortcuts(testTheme(), ChatShortcuts, 20)
	if !strings.Contains(out, "Enter") {
		t.Errorf("first shortcut missing: %q", out)
	}
	if strings.Contains(out, "Ctrl+O") {
		t.Errorf("shortcuts overflowed: %q", out)
	}
	if all := RenderShortcuts(testTheme(), ChatShortcuts, 0); !strings.Contains(all, "/help") {
		t.Errorf("unbounded shortcuts missing /help: %q", all)
	}
}

// =============================================================================
// SETTINGS PANEL TESTS
// =============================================================================

func TestSettingsPanel_FocusCycle(t *testing.T) {
	p := NewSettingsPanel(testTheme())
	if p.Focus() != FieldProvider || !p.IsSelector() {
		t.Fatalf("initial focus = %v", p.Focus())
	}
	p.Next()
	if p.Focus() != FieldModel {
		t.Errorf("Next() focus = %v, want FieldModel", p.Focus())
	}
	p.Prev()
	p.Prev()
	if p.Focus() != FieldRebuild {
		t.Errorf("Prev() wrap focus = %v, want FieldRebuild", p.Focus())
	}
	p.Next()
	if p.Focus() != FieldProvider {
		t.Errorf("Next() wrap focus = %v, want FieldProvider", p.Focus())
	}
}

func TestSettingsPanel_Actions(t *testing.T) {
	p := NewSettingsPanel(testTheme())
	tests := []struct {
		field Field
		want  PanelAction
	}{
		{FieldProvider, PanelNone},
		{FieldApply, PanelApply},
		{FieldAPIKey, PanelSaveKey},
		{FieldSaveKey, PanelSaveKey},
		{FieldRepoURL, PanelAddRepo},
		{FieldSync, PanelSync},
		{FieldRebuild, PanelRebuild},
	}
	for _, tt := range tests {
		p.SetFocus(tt.field)
		if got := p.Action(); got != tt.want {
			t.Errorf("Action() on %v = %v, want %v", tt.field, got, tt.want)
		}
	}
}

func TestSettingsPanel_TypingAndMasking(t *testing.T) {
	p := NewSettingsPanel(testTheme())
	p.SetFocus(FieldAPIKey)
	if !p.IsInput() {
		t.Fatal("API key field should take input")
	}
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("sk-secret")})
	if p.APIKey() != "sk-secret" {
		t.Fatalf("APIKey() = %q", p.APIKey())
	}

	p.Width = 100
	out := p.Render(controller.View{
		ProviderOptions: []controller.Option{controller.DefaultOption},
		ModelOptions:    []controller.Option{controller.DefaultOption},
		Steps:           opslog.NoSteps,
	})
	if strings.Contains(out, "sk-secret") {
		t.Error("rendered panel leaked the API key")
	}
	for _, want := range []string{"Settings", "(default)", "Save key", opslog.NoSteps} {
		if !strings.Contains(out, want) {
			t.Errorf("panel missing %q", want)
		}
	}

	p.SetFocus(FieldSync)
	p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if p.APIKey() != "sk-secret" {
		t.Error("typing on a button changed the key")
	}

	p.ClearKeyForm()
	if p.APIKey() != "" || p.BaseURL() != "" {
		t.Error("ClearKeyForm() left values")
	}
}

func TestTailLines(t *testing.T) {
	if got := tailLines("a\nb\nc\n", 2); got != "b\nc" {
		t.Errorf("tailLines() = %q", got)
	}
	if got := tailLines("", 2); got != "" {
		t.Errorf("tailLines(empty) = %q", got)
	}
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinner_Lifecycle(t *testing.T) {
	s := NewSpinner()
	if s.IsActive() || s.Frame() != "" || s.View() != "" {
		t.Fatal("new spinner should be inactive and blank")
	}
	if cmd := s.Start(); cmd == nil {
		t.Error("Start() should return a tick")
	}
	if cmd := s.Start(); cmd != nil {
		t.Error("second Start() should not tick again")
	}
	if s.Frame() == "" || !strings.Contains(s.View(), "Thinking") {
		t.Errorf("active spinner view = %q", s.View())
	}
	s.Stop()
	if s.View() != "" {
		t.Error("stopped spinner should render nothing")
	}
	if _, cmd := s.Update(nil); cmd != nil {
		t.Error("inactive spinner should not tick")
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := map[time.Duration]string{
		4 * time.Second:  "4s",
		65 * time.Second: "1m05s",
	}
	for d, want := range tests {
		if got := formatElapsed(d); got != want {
			t.Errorf("formatElapsed(%v) = %q, want %q", d, got, want)
		}
	}
}
