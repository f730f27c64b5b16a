// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the Modia backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	// Detail is the backend's {detail} text, empty when the body had none.
	Detail string
	Cause  error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeHTTPStatus
	ErrTypeBusy
	ErrTypeInvalidRequest
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeHTTPStatus:
		return "http_status"
	case ErrTypeBusy:
		return "busy"
	case ErrTypeInvalidRequest:
		return "invalid_request"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrTimeout = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrBusy    = &ClientError{Type: ErrTypeBusy, Message: "another operation is running"}

	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed response body"}
)

// Is matches ClientErrors by type, so errors.Is(err, api.ErrTimeout)
// holds for any timeout regardless of message.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// IsOffline reports whether err means the backend could not be reached at all.
func IsOffline(err error) bool {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Type == ErrTypeConnection || ce.Type == ErrTypeTimeout
}

// Detail returns the backend-provided detail carried by err, or "".
func Detail(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Detail
	}
	return ""
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.StatusCode
	}
	return 0
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// DefaultBaseURL is where the backend listens when started with its defaults.
const DefaultBaseURL = "http://127.0.0.1:8000"

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://127.0.0.1:8000)
	BaseURL string

	// Timeout bounds every request. Rebuilds run scripts server-side,
	// so the default is generous (default: 120s)
	Timeout time.Duration

	// RequestsPerSecond limits outgoing requests; 0 disables the limiter.
	RequestsPerSecond float64

	// UserAgent sent with every request.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   120 * time.Second,
		UserAgent: "modia-tui",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Modia backend API.
//
// The Client is safe for concurrent use. The base URL may be changed at
// runtime with SetBaseURL (for example after a config reload).
//
// Example:
//
//	client := api.NewClient("http://127.0.0.1:8000")
//	resp, err := client.Ask(ctx, api.AskRequest{Message: "hello", TopK: 5})
type Client struct {
	mu         sync.RWMutex
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for baseURL with default settings.
func NewClient(baseURL string) *Client {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	return NewClientWithConfig(cfg)
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "modia-tui"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
	c.limiter = newLimiter(config.RequestsPerSecond)
	return c
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// BaseURL returns the current backend URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config.BaseURL
}

// SetBaseURL points the client at a different backend.
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.BaseURL = strings.TrimRight(baseURL, "/")
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Timeout = d
	c.httpClient.Timeout = d
}

// SetRateLimit replaces the request limiter; rps <= 0 disables it.
func (c *Client) SetRateLimit(rps float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.RequestsPerSecond = rps
	c.limiter = newLimiter(rps)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// maxBodySize caps how much of a response body is read.
const maxBodySize = 16 << 20

// do performs one JSON round trip. A non-2xx status becomes a ClientError
// whose Message is the body's detail field, or "HTTP <code>" when absent.
// A 2xx body that is not valid JSON is an ErrTypeInvalidResponse error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	c.mu.RLock()
	base := c.config.BaseURL
	agent := c.config.UserAgent
	limiter := c.limiter
	httpClient := c.httpClient
	c.mu.RUnlock()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return &ClientError{Type: ErrTypeTimeout, Message: "rate limiter wait aborted", Cause: err}
		}
	}

	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", agent)

	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Printf("API_ERROR | method=%s path=%s error=%v", method, path, err)
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return transportError(err)
	}
	log.Printf("API_REQUEST | method=%s path=%s status=%d duration=%s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			log.Printf("API_DECODE | path=%s error=%v", path, err)
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed response body", Cause: err}
		}
	}
	return nil
}

// doLenient is do for endpoints whose acknowledgement body is optional:
// a malformed 2xx body leaves out at its zero value.
func (c *Client) doLenient(ctx context.Context, method, path string, query url.Values, body, out any) error {
	err := c.do(ctx, method, path, query, body, out)
	if errors.Is(err, ErrInvalidResponse) {
		return nil
	}
	return err
}

func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "backend unreachable", Cause: err}
}

func statusError(code int, body []byte) error {
	errType := ErrTypeHTTPStatus
	if code == http.StatusConflict {
		errType = ErrTypeBusy
	}
	detail := detailFromBody(body)
	msg := detail
	if msg == "" {
		msg = "HTTP " + strconv.Itoa(code)
	}
	return &ClientError{Type: errType, Message: msg, StatusCode: code, Detail: detail}
}

// detailFromBody extracts {detail} from an error body. The detail may be a
// plain string or a structured validation list; the latter is returned as
// compact JSON.
func detailFromBody(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}
	if string(payload.Detail) == "null" {
		return ""
	}
	return string(payload.Detail)
}

// =============================================================================
// CHAT
// =============================================================================

// Health fetches GET /api/health. Any non-2xx status is an error.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask sends a chat message.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	var out AskResponse
	if err := c.doLenient(ctx, http.MethodPost, "/api/ask", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Memory returns the server-side conversational memory.
func (c *Client) Memory(ctx context.Context) ([]MemoryEntry, error) {
	var out MemoryResponse
	if err := c.do(ctx, http.MethodGet, "/api/memory", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Memory, nil
}

// ClearMemory wipes the server-side conversational memory.
func (c *Client) ClearMemory(ctx context.Context) (string, error) {
	var out MessageResponse
	if err := c.doLenient(ctx, http.MethodDelete, "/api/memory", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// =============================================================================
// KNOWLEDGE BASE
// =============================================================================

// Search runs a retrieval query and returns up to k results.
func (c *Client) Search(ctx context.Context, query string, k int, withScores bool) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("k", strconv.Itoa(k))
	if withScores {
		q.Set("with_scores", "true")
	}
	var out SearchResponse
	if err := c.do(ctx, http.MethodGet, "/api/db/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Stats fetches knowledge-base statistics.
func (c *Client) Stats(ctx context.Context) (*StatsResponse, error) {
	var out StatsResponse
	if err := c.doLenient(ctx, http.MethodGet, "/api/db/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Rebuild triggers a knowledge-base rebuild, optionally syncing repos first.
func (c *Client) Rebuild(ctx context.Context, syncRepos bool) (*OperationResponse, error) {
	var out OperationResponse
	if err := c.doLenient(ctx, http.MethodPost, "/api/db/rebuild", nil, RebuildRequest{SyncRepos: syncRepos}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDocuments returns up to limit stored documents.
func (c *Client) ListDocuments(ctx context.Context, limit int) (*DocumentsResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out DocumentsResponse
	if err := c.do(ctx, http.MethodGet, "/api/db/list", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDocuments removes documents by id, or every document when all is true.
func (c *Client) DeleteDocuments(ctx context.Context, ids []string, all bool) (string, error) {
	if !all && len(ids) == 0 {
		return "", &ClientError{Type: ErrTypeInvalidRequest, Message: "no document ids given"}
	}
	var out MessageResponse
	if err := c.doLenient(ctx, http.MethodDelete, "/api/db/delete", nil, DeleteRequest{IDs: ids, DeleteAll: all}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// =============================================================================
// PROVIDERS
// =============================================================================

// Providers fetches the provider catalog.
func (c *Client) Providers(ctx context.Context) ([]Provider, error) {
	var out ProvidersResponse
	if err := c.doLenient(ctx, http.MethodGet, "/api/llm/providers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Providers, nil
}

// Configure stores an API key (and optional base URL) for a provider.
func (c *Client) Configure(ctx context.Context, req ConfigureRequest) (string, error) {
	var out MessageResponse
	if err := c.doLenient(ctx, http.MethodPost, "/api/llm/configure", nil, req, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// SetDefault marks provider as the backend default.
func (c *Client) SetDefault(ctx context.Context, provider string) (string, error) {
	q := url.Values{}
	q.Set("provider", provider)
	var out MessageResponse
	if err := c.doLenient(ctx, http.MethodPost, "/api/llm/set-default", q, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// RemoveProvider deletes the stored configuration of provider.
func (c *Client) RemoveProvider(ctx context.Context, provider string) (string, error) {
	var out MessageResponse
	path := "/api/llm/remove/" + url.PathEscape(provider)
	if err := c.doLenient(ctx, http.MethodDelete, path, nil, nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// =============================================================================
// REPOS AND CONFIG
// =============================================================================

// ListRepos returns the configured source repository URLs.
func (c *Client) ListRepos(ctx context.Context) ([]string, error) {
	var out ReposResponse
	if err := c.doLenient(ctx, http.MethodGet, "/api/repos", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.URLs, nil
}

// AddRepo registers a source repository URL.
func (c *Client) AddRepo(ctx context.Context, repoURL string) (*ReposResponse, error) {
	var out ReposResponse
	if err := c.doLenient(ctx, http.MethodPost, "/api/repos", nil, RepoRequest{URL: repoURL}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncRepos clones or pulls every registered repository.
func (c *Client) SyncRepos(ctx context.Context) (*OperationResponse, error) {
	var out OperationResponse
	if err := c.doLenient(ctx, http.MethodPost, "/api/repos/sync", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ServerConfig fetches the backend's effective configuration.
func (c *Client) ServerConfig(ctx context.Context) (*ServerConfig, error) {
	var out ServerConfig
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// String implements fmt.Stringer for logging.
func (c *Client) String() string {
	return fmt.Sprintf("api.Client{%s}", c.BaseURL())
}
