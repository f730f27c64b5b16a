// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - Structured (JSON and YAML) output for CLI commands.
//
// Every command that supports --json/--yaml builds one of the data types
// below and hands it to Emit. YAML output uses the same field names as
// JSON: the response is converted through its JSON form first.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how a command writes its result.
type OutputFormat int

const (
	FormatText OutputFormat = iota
	FormatJSON
	FormatYAML
)

// String returns the format name.
func (f OutputFormat) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "text"
	}
}

// Response is the envelope of every structured result.
type Response struct {
	Success bool        `json:"success"`
	Command string      `json:"command,omitempty"`
	Data    interface{} `json:"data"`
	// Error is the error message when Success is false, null otherwise.
	Error     *string `json:"error"`
	Timestamp string  `json:"timestamp"`
}

// NewResponse creates a successful response.
func NewResponse(command string, data interface{}) *Response {
	return &Response{
		Success:   true,
		Command:   command,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// NewErrorResponse creates a failed response.
func NewErrorResponse(command string, err error) *Response {
	msg := err.Error()
	return &Response{
		Command:   command,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Write encodes r to w. FormatText is treated as JSON.
func (r *Response) Write(w io.Writer, format OutputFormat) error {
	if format != FormatYAML {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	generic, err := toGeneric(r)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// toGeneric round-trips v through JSON so the YAML encoder sees the JSON
// field names and omitempty rules.
func toGeneric(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Emit writes data as a structured response, or runs text for FormatText.
func Emit(w io.Writer, format OutputFormat, command string, data interface{}, text func()) error {
	if format == FormatText {
		text()
		return nil
	}
	return NewResponse(command, data).Write(w, format)
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// VersionData is returned by the version command.
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version,omitempty"`
}

// AskData is returned by the ask command.
type AskData struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Provider    string `json:"provider,omitempty"`
	Model       string `json:"model,omitempty"`
	ExplainMode bool   `json:"explain_mode"`
	Sources     string `json:"sources,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
}

// StatusData is returned by the status command.
type StatusData struct {
	Server     string          `json:"server"`
	Online     bool            `json:"online"`
	Reason     string          `json:"reason,omitempty"`
	DBExists   *bool           `json:"db_exists,omitempty"`
	DBPath     string          `json:"db_path,omitempty"`
	Documents  *int            `json:"total_documents,omitempty"`
	Embeddings string          `json:"embedding_model,omitempty"`
	LLMModel   string          `json:"llm_model,omitempty"`
	Session    StatusSession   `json:"session"`
	Client     StatusClientCfg `json:"client"`
}

// StatusSession is the durable provider/model selection and chat defaults.
type StatusSession struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	ExplainMode bool   `json:"explain_mode"`
	RawMode     bool   `json:"raw_mode"`
	TopK        int    `json:"top_k"`
}

// StatusClientCfg lists client-side file locations.
type StatusClientCfg struct {
	ConfigPath string `json:"config_path"`
	PrefsPath  string `json:"prefs_path"`
	LogPath    string `json:"log_path"`
}

// ProviderData describes one provider in providers list.
type ProviderData struct {
	Name       string   `json:"name"`
	Default    bool     `json:"default"`
	Configured bool     `json:"configured"`
	Selected   bool     `json:"selected"`
	Models     []string `json:"models"`
}

// SelectionData is the applied provider and model.
type SelectionData struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// MessageData carries a backend acknowledgement.
type MessageData struct {
	Message string `json:"message"`
}

// OperationData is the outcome of repos sync and db rebuild.
type OperationData struct {
	Steps []StepData `json:"steps"`
	Log   string     `json:"log"`
}

// StepData is one stage of an operation.
type StepData struct {
	Name       string   `json:"name"`
	OK         bool     `json:"ok"`
	DurationMs *float64 `json:"duration_ms,omitempty"`
}

// ReposData is returned by repos list and add.
type ReposData struct {
	URLs []string `json:"urls"`
}

// DBStatsData is returned by db stats.
type DBStatsData struct {
	TotalDocuments *int    `json:"total_documents"`
	EmbeddingModel *string `json:"embedding_model"`
}

// SearchHit is one db search result.
type SearchHit struct {
	Rank    int                    `json:"rank"`
	Score   *float64               `json:"score,omitempty"`
	Source  string                 `json:"source,omitempty"`
	Content string                 `json:"content"`
	Meta    map[string]interface{} `json:"metadata,omitempty"`
}

// DocumentsData is returned by db list.
type DocumentsData struct {
	Total     int         `json:"total"`
	Documents []SearchHit `json:"documents"`
}

// MemoryData is returned by memory show.
type MemoryData struct {
	Entries []MemoryEntryData `json:"entries"`
}

// MemoryEntryData is one remembered turn.
type MemoryEntryData struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConfigValueData is returned by config get and set.
type ConfigValueData struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}
