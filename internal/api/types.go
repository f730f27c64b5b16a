// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

// =============================================================================
// CHAT
// =============================================================================

// AskRequest is the body of POST /api/ask.
// Provider and Model are sent as null when empty so the backend uses its defaults.
type AskRequest struct {
	Message     string  `json:"message"`
	TopK        int     `json:"top_k"`
	ExplainMode bool    `json:"explain_mode"`
	Provider    *string `json:"provider"`
	Model       *string `json:"model"`
}

// AskResponse is the answer returned by POST /api/ask.
type AskResponse struct {
	Answer   string `json:"answer"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// MemoryEntry is one turn of the server-side conversational memory.
type MemoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MemoryResponse is returned by GET /api/memory.
type MemoryResponse struct {
	Memory []MemoryEntry `json:"memory"`
}

// =============================================================================
// KNOWLEDGE BASE
// =============================================================================

// SearchResult is a single retrieved chunk.
type SearchResult struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Score    *float64       `json:"score,omitempty"`
}

// SearchResponse is returned by GET /api/db/search.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Document is a stored chunk as returned by GET /api/db/list.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentsResponse is returned by GET /api/db/list.
type DocumentsResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// DeleteRequest is the body of DELETE /api/db/delete.
type DeleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"delete_all"`
}

// RebuildRequest is the body of POST /api/db/rebuild.
type RebuildRequest struct {
	SyncRepos bool `json:"sync_repos"`
}

// StatsResponse is returned by GET /api/db/stats.
// Both fields are optional; nil means the backend did not report them.
type StatsResponse struct {
	TotalDocuments *int    `json:"total_documents,omitempty"`
	EmbeddingModel *string `json:"embedding_model,omitempty"`
}

// Step is one stage of a multi-step backend operation.
type Step struct {
	Name       string   `json:"name"`
	OK         bool     `json:"ok"`
	DurationMS *float64 `json:"duration_ms,omitempty"`
	Logs       string   `json:"logs,omitempty"`
}

// OperationResponse is returned by repo sync and DB rebuild.
type OperationResponse struct {
	Message string `json:"message,omitempty"`
	Logs    string `json:"logs,omitempty"`
	Steps   []Step `json:"steps,omitempty"`
}

// =============================================================================
// PROVIDERS
// =============================================================================

// Provider describes one LLM integration known to the backend.
type Provider struct {
	Name       string   `json:"name"`
	Default    bool     `json:"default"`
	Configured bool     `json:"configured,omitempty"`
	Registered bool     `json:"registered,omitempty"`
	Models     []string `json:"models"`
}

// ProvidersResponse is returned by GET /api/llm/providers.
type ProvidersResponse struct {
	Providers []Provider `json:"providers"`
}

// ConfigureRequest is the body of POST /api/llm/configure.
type ConfigureRequest struct {
	Provider string  `json:"provider"`
	APIKey   string  `json:"api_key"`
	BaseURL  *string `json:"base_url"`
}

// MessageResponse is the generic {message} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// =============================================================================
// REPOS, HEALTH, CONFIG
// =============================================================================

// RepoRequest is the body of POST /api/repos.
type RepoRequest struct {
	URL string `json:"url"`
}

// ReposResponse is returned by GET and POST /api/repos.
type ReposResponse struct {
	Message string   `json:"message,omitempty"`
	Path    string   `json:"path,omitempty"`
	URLs    []string `json:"urls"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string `json:"status"`
	DBExists *bool  `json:"db_exists,omitempty"`
	DBPath   string `json:"db_path,omitempty"`
}

// ServerConfig is the backend configuration reported by GET /api/config.
type ServerConfig struct {
	DBPath         string  `json:"db_path"`
	LLMModel       string  `json:"llm_model"`
	EmbeddingModel string  `json:"embedding_model"`
	Temperature    float64 `json:"temperature"`
	MaxMemory      int     `json:"max_memory"`
	TopK           int     `json:"top_k"`
	Valid          bool    `json:"valid"`
}

// StringPtr returns nil for an empty string, else a pointer to s.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
