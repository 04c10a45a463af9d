// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL points at the hosted OpenAI API. Any compatible
	// provider (Groq, Together, OpenRouter, a local proxy) works by
	// overriding the base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when neither config nor the request names one.
	DefaultModel = "gpt-4o-mini"

	// DefaultProvider labels status reports when LLM_PROVIDER is unset.
	DefaultProvider = "openai"

	// DefaultTimeout bounds a full chat completion round trip.
	DefaultTimeout = 60 * time.Second

	// DefaultProbeTimeout bounds the diagnostic ping completion.
	DefaultProbeTimeout = 12 * time.Second

	// DefaultStatusTimeout bounds the /models reachability check.
	DefaultStatusTimeout = 8 * time.Second

	// excerptLimit caps provider response bodies quoted in diagnostics.
	excerptLimit = 2000
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for programmatic handling.
type ErrorType int

const (
	// ErrTypeNoKey means no API key is configured.
	ErrTypeNoKey ErrorType = iota

	// ErrTypeConnection means the provider could not be reached.
	ErrTypeConnection

	// ErrTypeTimeout means the request exceeded its deadline.
	ErrTypeTimeout

	// ErrTypeHTTP means the provider answered with a non-2xx status.
	ErrTypeHTTP

	// ErrTypeNoContent means the provider answered but carried no usable
	// completion text.
	ErrTypeNoContent
)

// ClientError wraps provider errors with a type for programmatic handling.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Common errors returned by the client.
var (
	// ErrNoAPIKey is returned before any request is made when the key is
	// missing. The message matches what status reports show.
	ErrNoAPIKey = &ClientError{
		Type:    ErrTypeNoKey,
		Message: "OPENAI_API_KEY not set",
	}

	// ErrNoContent is returned when a completion succeeds at the HTTP
	// level but none of the known content fields carry text.
	ErrNoContent = &ClientError{
		Type:    ErrTypeNoContent,
		Message: "provider returned no content",
	}
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// ClientConfig holds provider settings for a Client.
type ClientConfig struct {
	// APIKey authenticates against the provider. Empty means requests
	// fail fast with ErrNoAPIKey.
	APIKey string

	// BaseURL is the provider root, without a trailing slash.
	BaseURL string

	// Model is the default model for completions.
	Model string

	// Provider is a display label for status reports.
	Provider string

	// Timeout bounds chat completion requests.
	Timeout time.Duration

	// ProbeTimeout bounds diagnostic probe requests.
	ProbeTimeout time.Duration

	// StatusTimeout bounds reachability checks.
	StatusTimeout time.Duration
}

// DefaultConfig returns settings drawn from the environment, falling back
// to the hosted OpenAI defaults. OPENAI_API_KEY, OPENAI_BASE_URL,
// OPENAI_MODEL, and LLM_PROVIDER are honored.
func DefaultConfig() ClientConfig {
	cfg := ClientConfig{
		APIKey:        os.Getenv("OPENAI_API_KEY"),
		BaseURL:       os.Getenv("OPENAI_BASE_URL"),
		Model:         os.Getenv("OPENAI_MODEL"),
		Provider:      strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))),
		Timeout:       DefaultTimeout,
		ProbeTimeout:  DefaultProbeTimeout,
		StatusTimeout: DefaultStatusTimeout,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	return cfg
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is an HTTP client for an OpenAI-compatible completions provider.
type Client struct {
	apiKey   string
	baseURL  string
	model    string
	provider string

	httpClient   *http.Client
	probeClient  *http.Client
	statusClient *http.Client
}

// NewClient creates a client from the environment-derived defaults.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
// Zero values fall back to package defaults; the API key is never filled
// in implicitly.
func NewClientWithConfig(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = DefaultStatusTimeout
	}
	return &Client{
		apiKey:       strings.TrimSpace(cfg.APIKey),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		model:        cfg.Model,
		provider:     cfg.Provider,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		probeClient:  &http.Client{Timeout: cfg.ProbeTimeout},
		statusClient: &http.Client{Timeout: cfg.StatusTimeout},
	}
}

// BaseURL returns the provider root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.model
}

// Provider returns the provider label used in status reports.
func (c *Client) Provider() string {
	return c.provider
}

// ResolveModel returns override when set, otherwise the configured default.
func (c *Client) ResolveModel(override string) string {
	if override != "" {
		return override
	}
	return c.model
}

// HasAPIKey reports whether the client can authenticate at all.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// =============================================================================
// CHAT MESSAGES
// =============================================================================

// Chat roles on the completions wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in a chat completions request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type chatResponse struct {
	Choices    []chatChoice `json:"choices"`
	OutputText string       `json:"output_text"`
}

// content pulls completion text out of whichever field the provider used.
// Strict Chat Completions put it under message.content; some compatible
// providers use choices[].text or a top-level output_text instead.
func (r *chatResponse) content() string {
	if len(r.Choices) > 0 {
		if c := r.Choices[0].Message.Content; c != "" {
			return c
		}
		if c := r.Choices[0].Text; c != "" {
			return c
		}
	}
	return r.OutputText
}

// collapseSystem folds all system messages into one leading system entry
// and keeps user and assistant messages in their original order. Other
// roles are dropped.
func collapseSystem(messages []ChatMessage) []ChatMessage {
	var system []string
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
		}
	}
	out := make([]ChatMessage, 0, len(messages))
	if len(system) > 0 {
		out = append(out, ChatMessage{Role: RoleSystem, Content: strings.Join(system, "\n\n")})
	}
	for _, m := range messages {
		if m.Role == RoleUser || m.Role == RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// GENERATE
// =============================================================================

// Generate runs one chat completion and returns its text content.
// An empty model falls back to the configured default. Content may live in
// several places depending on the provider; all known spots are tried
// before giving up with ErrNoContent.
func (c *Client) Generate(ctx context.Context, messages []ChatMessage, model string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	payload := chatRequest{
		Model:       c.ResolveModel(model),
		Messages:    collapseSystem(messages),
		Temperature: 0.2,
		Stream:      false,
	}
	status, raw, err := c.postChat(ctx, c.httpClient, payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", &ClientError{
			Type:    ErrTypeHTTP,
			Message: fmt.Sprintf("HTTP %d: %s", status, util.TruncateRunesNoEllipsis(string(raw), excerptLimit)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &ClientError{Type: ErrTypeNoContent, Message: "malformed completion response", Cause: err}
	}
	content := parsed.content()
	if content == "" {
		return "", ErrNoContent
	}
	return content, nil
}

// postChat sends one completions request and returns the raw status and
// body. Transport failures come back as typed errors.
func (c *Client) postChat(ctx context.Context, client *http.Client, payload chatRequest) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, &ClientError{Type: ErrTypeConnection, Message: "failed to encode request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, nil, &ClientError{Type: ErrTypeTimeout, Message: "chat completion timed out", Cause: err}
		}
		return 0, nil, &ClientError{Type: ErrTypeConnection, Message: "chat completion request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}
	return resp.StatusCode, raw, nil
}

// =============================================================================
// STATUS
// =============================================================================

// StatusReport describes provider reachability for health endpoints.
type StatusReport struct {
	OK       bool   `json:"ok"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Error    string `json:"error,omitempty"`
}

// Status checks that the provider is configured and reachable by listing
// models. It always returns a report; failures land in the Error field so
// callers can surface them verbatim.
func (c *Client) Status(ctx context.Context) StatusReport {
	report := StatusReport{Provider: c.provider, Model: c.model}
	if c.apiKey == "" {
		report.Error = "OPENAI_API_KEY not set"
		return report
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.statusClient.Do(req)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		report.Error = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body))
		return report
	}
	report.OK = true
	return report
}

// =============================================================================
// PROBE
// =============================================================================

// ProbeReport carries the raw outcome of a minimal completion, for
// debugging provider and account problems.
type ProbeReport struct {
	OK           bool   `json:"ok"`
	Status       int    `json:"status,omitempty"`
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Probe sends a single "ping" completion at temperature zero and reports
// the raw status plus a body excerpt. Like Status it never returns an
// error; everything lands in the report.
func (c *Client) Probe(ctx context.Context, model string) ProbeReport {
	if c.apiKey == "" {
		return ProbeReport{Error: "OPENAI_API_KEY not set"}
	}

	payload := chatRequest{
		Model:       c.ResolveModel(model),
		Messages:    []ChatMessage{{Role: RoleUser, Content: "ping"}},
		Temperature: 0.0,
		Stream:      false,
	}
	status, raw, err := c.postChat(ctx, c.probeClient, payload)
	if err != nil {
		return ProbeReport{Error: err.Error()}
	}

	excerpt := util.TruncateRunesNoEllipsis(string(raw), excerptLimit)
	if status < 200 || status >= 300 {
		return ProbeReport{Status: status, Error: excerpt}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return ProbeReport{Status: status, Error: excerpt}
	}
	report := ProbeReport{OK: true, Status: status, Content: parsed.content()}
	if len(parsed.Choices) > 0 {
		report.FinishReason = parsed.Choices[0].FinishReason
	}
	return report
}

// =============================================================================
// CHUNKING
// =============================================================================

// StreamChunkSize is the rune width of simulated token chunks.
const StreamChunkSize = 160

// ChunkContent slices a full completion into fixed-width rune chunks.
// Slicing on runes keeps every chunk valid UTF-8, which matters once the
// chunks travel as individual JSON events.
func ChunkContent(content string) []string {
	if content == "" {
		return nil
	}
	runes := []rune(content)
	chunks := make([]string, 0, (len(runes)+StreamChunkSize-1)/StreamChunkSize)
	for start := 0; start < len(runes); start += StreamChunkSize {
		end := start + StreamChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
