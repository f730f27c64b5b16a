// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package controller implements the Modia chat client controller.
package controller

import (
	"context"
	"sync"

	"github.com/jeranaias/modia-tui/internal/api"
	"github.com/jeranaias/modia-tui/internal/model"
	"github.com/jeranaias/modia-tui/internal/opslog"
	"github.com/jeranaias/modia-tui/internal/session"
)

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is the subset of *api.Client the controller uses.
type Backend interface {
	Health(ctx context.Context) (*api.HealthResponse, error)
	Ask(ctx context.Context, req api.AskRequest) (*api.AskResponse, error)
	Search(ctx context.Context, query string, k int, withScores bool) ([]api.SearchResult, error)
	Providers(ctx context.Context) ([]api.Provider, error)
	Configure(ctx context.Context, req api.ConfigureRequest) (string, error)
	SetDefault(ctx context.Context, provider string) (string, error)
	ListRepos(ctx context.Context) ([]string, error)
	AddRepo(ctx context.Context, url string) (*api.ReposResponse, error)
	SyncRepos(ctx context.Context) (*api.OperationResponse, error)
	Rebuild(ctx context.Context, syncRepos bool) (*api.OperationResponse, error)
	Stats(ctx context.Context) (*api.StatsResponse, error)
	Memory(ctx context.Context) ([]api.MemoryEntry, error)
	ClearMemory(ctx context.Context) (string, error)
}

var _ Backend = (*api.Client)(nil)

// =============================================================================
// STATUS
// =============================================================================

// State is the chat status indicator state.
type State int

const (
	StateReady State = iota
	StateBusy
	StateError
	StateOffline
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateError:
		return "error"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Status labels.
const (
	LabelReady    = "● Ready"
	LabelThinking = "● Thinking…"
	LabelWorking  = "● Working…"
	LabelError    = "● Error"
	LabelOffline  = "● Offline"
)

// Send control labels.
const (
	SendIdle    = "Send"
	SendSending = "Sending..."
)

// Option is one entry of a provider or model selector.
type Option struct {
	Value string
	Label string
}

// DefaultOption is the leading "use backend default" selector entry.
var DefaultOption = Option{Value: "", Label: "(default)"}

// =============================================================================
// CONTROLLER
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Client talks to the backend. Required.
	Client Backend
	// Prefs is the session state. Nil creates an in-memory session.
	Prefs *session.Preferences
	// TopK is sent with every question and used for source listings (default 5).
	TopK int
}

// Controller owns the chat transcript, session preferences, settings panel
// state and operations log, and performs every backend round trip.
//
// Methods are safe to call from multiple goroutines; bubbletea commands
// run concurrently with the update loop. Network calls never hold the lock.
type Controller struct {
	client     Backend
	prefs      *session.Preferences
	transcript *model.Transcript
	ops        *opslog.Log

	mu       sync.Mutex
	topK     int
	state    State
	label    string
	sending  bool
	opActive bool
	menuOpen bool

	catalog         []api.Provider
	providerOptions []Option
	modelOptions    []Option
	providerChoice  string
	modelChoice     string

	reposText string
	statsText string
	stepsText string
	lastSteps []api.Step

	onChange func()
	bg       sync.WaitGroup
}

// New creates a controller.
func New(opts Options) *Controller {
	if opts.Prefs == nil {
		opts.Prefs = session.New(nil, false, false)
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &Controller{
		client:          opts.Client,
		prefs:           opts.Prefs,
		transcript:      model.NewTranscript(),
		ops:             opslog.New(),
		topK:            opts.TopK,
		state:           StateReady,
		label:           LabelReady,
		providerOptions: []Option{DefaultOption},
		modelOptions:    []Option{DefaultOption},
		providerChoice:  opts.Prefs.Provider(),
		modelChoice:     opts.Prefs.Model(),
		stepsText:       opslog.NoSteps,
	}
}

// OnChange registers fn to be called after any visible state changes.
// fn runs on the goroutine that made the change and must not block.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetTopK changes how many chunks are requested per question.
func (c *Controller) SetTopK(k int) {
	if k <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topK = k
}

func (c *Controller) setStatus(state State, label string) {
	c.mu.Lock()
	c.state = state
	c.label = label
	c.mu.Unlock()
	c.notify()
}

// Status returns the indicator state and its label.
func (c *Controller) Status() (State, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.label
}

// Wait blocks until background menu refreshes finish.
func (c *Controller) Wait() {
	c.bg.Wait()
}

// Transcript returns the chat transcript.
func (c *Controller) Transcript() *model.Transcript {
	return c.transcript
}

// Ops returns the operations log.
func (c *Controller) Ops() *opslog.Log {
	return c.ops
}

// Prefs returns the session preferences.
func (c *Controller) Prefs() *session.Preferences {
	return c.prefs
}

// =============================================================================
// VIEW SNAPSHOT
// =============================================================================

// View is a consistent snapshot of everything a front end renders.
type View struct {
	State       State
	StatusLabel string
	Sending     bool
	SendLabel   string
	OpActive    bool

	ExplainMode bool
	RawMode     bool

	Messages []model.Message

	MenuOpen        bool
	ProviderOptions []Option
	ProviderChoice  string
	ModelOptions    []Option
	ModelChoice     string
	CurrentModel    string
	Repos           string
	Stats           string
	Steps           string
	OpsLog          string
}

// View returns the current snapshot.
func (c *Controller) View() View {
	prefs := c.prefs.Snapshot()

	c.mu.Lock()
	v := View{
		State:           c.state,
		StatusLabel:     c.label,
		Sending:         c.sending,
		SendLabel:       SendIdle,
		OpActive:        c.opActive,
		ExplainMode:     prefs.ExplainMode,
		RawMode:         prefs.RawMode,
		MenuOpen:        c.menuOpen,
		ProviderOptions: append([]Option(nil), c.providerOptions...),
		ProviderChoice:  c.providerChoice,
		ModelOptions:    append([]Option(nil), c.modelOptions...),
		ModelChoice:     c.modelChoice,
		Repos:           c.reposText,
		Stats:           c.statsText,
		Steps:           c.stepsText,
	}
	c.mu.Unlock()

	if v.Sending {
		v.SendLabel = SendSending
	}
	v.Messages = c.transcript.Messages()
	v.CurrentModel = c.CurrentModelText()
	v.OpsLog = c.ops.String()
	return v
}
