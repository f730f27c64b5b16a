// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/modia-tui/internal/config"
	"github.com/jeranaias/modia-tui/internal/controller"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// ChangedMsg reports that controller state changed on some goroutine.
type ChangedMsg struct{}

// SendDoneMsg is the outcome of a chat send.
type SendDoneMsg struct {
	Result controller.SendResult
}

// HealthMsg is the outcome of the startup health check.
type HealthMsg struct {
	Result controller.HealthResult
}

// OpDoneMsg is the outcome of a settings panel operation.
type OpDoneMsg struct {
	Op  string
	Err error
}

// ConfigReloadedMsg carries a configuration re-read from disk.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// waitForChange blocks until the controller signals a change.
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changes
		return ChangedMsg{}
	}
}

func sendCmd(ctx context.Context, ctrl *controller.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		return SendDoneMsg{Result: ctrl.Send(ctx, text)}
	}
}

func healthCmd(ctx context.Context, ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return HealthMsg{Result: ctrl.CheckHealth(ctx)}
	}
}

func opCmd(op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Op: op, Err: fn()}
	}
}
