// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is where a locally running `penny serve` listens.
	DefaultBaseURL = "http://127.0.0.1:8787"

	// DefaultTimeout bounds single-shot requests. Streaming requests have no
	// client timeout; their lifetime is context-controlled.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion from a
	// misbehaving backend.
	MaxResponseSize = 2 * 1024 * 1024 // 2MB
)

var (
	// PERFORMANCE: Connection pooling reduces handshake overhead when the TUI
	// issues repeated asks against the same backend.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests (no timeout,
	// context-controlled).
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
)

// =============================================================================
// ERRORS
// =============================================================================

// APIError is an error payload returned by the advisor API.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("advisor error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("advisor error (HTTP %d)", e.Status)
}

// StreamOpenError indicates the streaming channel could not be opened at all:
// transport failure, a non-success status, or a missing body. Callers are
// expected to fall back to the single-shot endpoint when they see it.
type StreamOpenError struct {
	Err error
}

// Error implements the error interface.
func (e *StreamOpenError) Error() string {
	return fmt.Sprintf("open stream: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamOpenError) Unwrap() error {
	return e.Err
}

// apiErrorFrom extracts the server's error envelope from a failed response,
// falling back to the raw body text.
func apiErrorFrom(status int, body []byte) error {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		msg = envelope.Error.Message
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{Status: status, Message: msg}
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// AskRequest is the body shared by both ask endpoints. Analytics carries the
// local spending snapshot and marshals to null when absent; the backend
// answers from whatever it receives.
type AskRequest struct {
	Analytics any    `json:"analytics"`
	Question  string `json:"question"`
	Model     string `json:"model,omitempty"`
}

// AskResponse is the single-shot answer.
type AskResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
}

// StatusResponse reports LLM provider readiness from GET /api/llm/status.
type StatusResponse struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Error    string `json:"error,omitempty"`
}

// PingResponse carries the raw result of a one-token chat probe from
// GET /api/llm/ping, useful when status alone does not explain a failure.
type PingResponse struct {
	OK           bool   `json:"ok"`
	Status       int    `json:"status,omitempty"`
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to a running advisor backend.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a client for the backend at baseURL. An empty baseURL
// selects the local default.
func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// BaseURL returns the backend address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ask performs a single-shot question round trip.
func (c *Client) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	var out AskResponse
	if err := c.postJSON(ctx, "/api/ask", req, &out); err != nil {
		return AskResponse{}, err
	}
	return out, nil
}

// Status reports whether the backend's configured LLM provider is reachable.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	if err := c.getJSON(ctx, "/api/llm/status", &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

// Ping performs a minimal chat completion through the backend to surface
// provider response details.
func (c *Client) Ping(ctx context.Context) (PingResponse, error) {
	var out PingResponse
	if err := c.getJSON(ctx, "/api/llm/ping", &out); err != nil {
		return PingResponse{}, err
	}
	return out, nil
}

// Health checks that the backend process itself is up.
func (c *Client) Health(ctx context.Context) error {
	return c.getJSON(ctx, "/api/health", nil)
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiErrorFrom(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
