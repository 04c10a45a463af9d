// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pennyworth/penny-tui/internal/llm"
	"github.com/pennyworth/penny-tui/internal/tools"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// Version is the API version reported by health and stats endpoints.
	Version = "0.3.0"

	// DefaultPort is the port used when none is configured.
	DefaultPort = 8787

	// MaxRequestBodySize caps request bodies at 1MB.
	MaxRequestBodySize = 1 << 20

	// MaxQuestionLength caps the question field of ask requests.
	MaxQuestionLength = 100000
)

// =============================================================================
// WIRE TYPES
// =============================================================================

// AskRequest is the body of /api/ask and /api/ask/stream. Analytics is the
// caller's snapshot JSON, passed through to the model untouched.
type AskRequest struct {
	Analytics any    `json:"analytics"`
	Question  string `json:"question"`
	Model     string `json:"model,omitempty"`
}

// AskResponse is the single-shot answer from /api/ask.
type AskResponse struct {
	Answer string `json:"answer"`
	Model  string `json:"model"`
}

// HealthResponse is the /api/health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Stream event frames. Each SSE frame carries exactly one of these as its
// JSON data payload, discriminated by the type field.
type toolsEvent struct {
	Type    string           `json:"type"`
	Results *tools.ResultSet `json:"results"`
	Missing []string         `json:"missing"`
}

type contentEvent struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type doneEvent struct {
	Type string `json:"type"`
}

// newToolsEvent builds the leading tools frame. Missing is never null on the
// wire; clients index into it without checking.
func newToolsEvent(results *tools.ResultSet, missing []string) toolsEvent {
	if missing == nil {
		missing = []string{}
	}
	return toolsEvent{Type: "tools", Results: results, Missing: missing}
}

// =============================================================================
// STATS
// =============================================================================

// Stats tracks request counters since startup. Safe for concurrent use.
type Stats struct {
	mu             sync.Mutex
	startTime      time.Time
	askRequests    int64
	streamRequests int64
	toolRequests   int64
	providerErrors int64
	chunksStreamed int64
}

func newStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (st *Stats) recordAsk() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.askRequests++
}

func (st *Stats) recordStream(chunks int) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.streamRequests++
	st.chunksStreamed += int64(chunks)
}

func (st *Stats) recordTool() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.toolRequests++
}

func (st *Stats) recordProviderError() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.providerErrors++
}

// StatsResponse is the /api/stats payload.
type StatsResponse struct {
	TotalRequests  int64   `json:"total_requests"`
	AskRequests    int64   `json:"ask_requests"`
	StreamRequests int64   `json:"stream_requests"`
	ToolRequests   int64   `json:"tool_requests"`
	ProviderErrors int64   `json:"provider_errors"`
	ChunksStreamed int64   `json:"chunks_streamed"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	Version        string  `json:"version"`
}

func (st *Stats) snapshot() StatsResponse {
	st.mu.Lock()
	defer st.mu.Unlock()
	return StatsResponse{
		TotalRequests:  st.askRequests + st.streamRequests + st.toolRequests,
		AskRequests:    st.askRequests,
		StreamRequests: st.streamRequests,
		ToolRequests:   st.toolRequests,
		ProviderErrors: st.providerErrors,
		ChunksStreamed: st.chunksStreamed,
		UptimeSeconds:  time.Since(st.startTime).Seconds(),
		Version:        Version,
	}
}

// =============================================================================
// SERVER
// =============================================================================

// Server is the local HTTP server for the advisor API.
type Server struct {
	port    int
	router  *http.ServeMux
	server  *http.Server
	llm     *llm.Client
	limiter *RateLimiter
	stats   *Stats
	mu      sync.RWMutex
}

// NewServer creates a server on the given port with an environment-configured
// provider client. Port 0 selects DefaultPort.
func NewServer(port int) *Server {
	if port == 0 {
		port = DefaultPort
	}
	s := &Server{
		port:   port,
		router: http.NewServeMux(),
		llm:    llm.NewClient(),
		stats:  newStats(),
	}
	s.setupRoutes()
	return s
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.port
}

// WithLLMClient replaces the provider client used by ask and status
// endpoints.
func (s *Server) WithLLMClient(client *llm.Client) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.llm = client
	return s
}

// WithRateLimiter replaces the default per-IP rate limiter.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = rl
	return s
}

func (s *Server) llmClient() *llm.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.llm
}

func (s *Server) rateLimiter() *RateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiter == nil {
		s.limiter = DefaultRateLimiter()
	}
	return s.limiter
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("POST /api/ask", s.handleAsk)
	s.router.HandleFunc("POST /api/ask/stream", s.handleAskStream)
	s.router.HandleFunc("POST /api/tools/mortgage-payment", s.handleMortgagePayment)
	s.router.HandleFunc("POST /api/tools/affordability", s.handleAffordability)
	s.router.HandleFunc("GET /api/llm/status", s.handleLLMStatus)
	s.router.HandleFunc("GET /api/llm/ping", s.handleLLMPing)
	s.router.HandleFunc("GET /api/stats", s.handleStats)
	s.router.HandleFunc("GET /api/health", s.handleHealth)
}

// =============================================================================
// ASK HANDLERS
// =============================================================================

// decodeAsk reads and validates an ask body. A false return means the error
// response has already been written.
func decodeAsk(w http.ResponseWriter, r *http.Request) (AskRequest, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return req, "", false
		}
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return req, "", false
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, "Request must include a question")
		return req, "", false
	}
	if len(question) > MaxQuestionLength {
		writeError(w, http.StatusBadRequest, "Question exceeds maximum length")
		return req, "", false
	}
	return req, question, true
}

// handleAsk answers a question in one round trip. Provider trouble comes back
// as a normal 200 whose answer explains the problem, so callers surface it in
// the conversation instead of handling transport errors.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	req, question, ok := decodeAsk(w, r)
	if !ok {
		return
	}
	s.stats.recordAsk()

	client := s.llmClient()
	model := client.ResolveModel(req.Model)

	if st := client.Status(r.Context()); !st.OK {
		s.stats.recordProviderError()
		writeJSON(w, http.StatusOK, AskResponse{
			Answer: "LLM provider not ready: " + st.Error,
			Model:  model,
		})
		return
	}

	answer, _, _, err := client.AskOrchestrated(r.Context(), req.Analytics, question, req.Model)
	if err != nil {
		answer = ""
	}

	// Orchestration that produced nothing usable gets one plain retry
	// without planning or tools.
	if answer == "" || strings.Contains(answer, "Unable to compose") {
		log.Printf("ASK_FALLBACK | model=%s", model)
		if plain, perr := client.Ask(r.Context(), req.Analytics, question, req.Model); perr == nil && strings.TrimSpace(plain) != "" {
			answer = plain
		}
	}
	if strings.TrimSpace(answer) == "" {
		s.stats.recordProviderError()
		answer = "LLM returned no content. Verify OPENAI_API_KEY, model name, and account limits."
	}

	writeJSON(w, http.StatusOK, AskResponse{Answer: answer, Model: model})
}

// handleAskStream answers a question over SSE. The frame order is fixed:
// tools first, then tokens, then on fallback a message or error frame, and
// always a final done frame. Failures after the stream opens become error
// frames rather than HTTP statuses.
func (s *Server) handleAskStream(w http.ResponseWriter, r *http.Request) {
	req, question, ok := decodeAsk(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	chunks := 0
	defer func() { s.stats.recordStream(chunks) }()

	client := s.llmClient()

	if st := client.Status(r.Context()); !st.OK {
		s.stats.recordProviderError()
		msg := st.Error
		if msg == "" {
			msg = "missing configuration"
		}
		sendEvent(w, flusher, errorEvent{Type: "error", Message: "LLM provider not ready: " + msg})
		sendEvent(w, flusher, doneEvent{Type: "done"})
		return
	}

	plan := client.Plan(r.Context(), req.Analytics, question, req.Model)
	results := llm.RunPlannedTools(plan)
	missing := plan.MissingInputs

	// Tool results always lead, even when empty. The client renders the
	// calculator cards before any prose arrives.
	sendEvent(w, flusher, newToolsEvent(results, missing))

	// Known gaps and nothing computed: ask for the inputs instead of
	// composing an answer with nothing behind it.
	if len(missing) > 0 && results.IsEmpty() {
		sendEvent(w, flusher, contentEvent{Type: "message", Content: llm.MissingInputsFallback(missing)})
		sendEvent(w, flusher, doneEvent{Type: "done"})
		return
	}

	tokens, err := client.StreamCompose(r.Context(), req.Analytics, question, results, req.Model)
	if err != nil {
		// One non-streamed retry before giving up on this turn.
		log.Printf("STREAM_FALLBACK | error=%v", err)
		content, cerr := client.Compose(r.Context(), req.Analytics, question, results, req.Model)
		if cerr != nil {
			s.stats.recordProviderError()
			sendEvent(w, flusher, errorEvent{Type: "error", Message: fmt.Sprintf("%v; fallback failed: %v", err, cerr)})
		} else {
			sendEvent(w, flusher, contentEvent{Type: "message", Content: content})
		}
		sendEvent(w, flusher, doneEvent{Type: "done"})
		return
	}

	for _, tok := range tokens {
		sendEvent(w, flusher, contentEvent{Type: "token", Content: tok})
		chunks++
	}

	if chunks == 0 {
		content, cerr := client.Compose(r.Context(), req.Analytics, question, results, req.Model)
		if cerr != nil || strings.TrimSpace(content) == "" {
			s.stats.recordProviderError()
			sendEvent(w, flusher, errorEvent{Type: "error", Message: "LLM returned no content. Verify OPENAI_API_KEY, model name, and billing status."})
		} else {
			sendEvent(w, flusher, contentEvent{Type: "message", Content: content})
		}
	}

	sendEvent(w, flusher, doneEvent{Type: "done"})
}

// sendEvent writes one SSE frame carrying v as its JSON data payload.
func sendEvent(w http.ResponseWriter, flusher http.Flusher, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("SSE_MARSHAL_ERROR | error=%v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// =============================================================================
// TOOL HANDLERS
// =============================================================================

// decodeParams reads the request body as loose calculator params. A false
// return means the error response has already been written.
func decodeParams(w http.ResponseWriter, r *http.Request) (tools.Params, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var params tools.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return nil, false
	}
	if params == nil {
		params = tools.Params{}
	}
	return params, true
}

func (s *Server) handleMortgagePayment(w http.ResponseWriter, r *http.Request) {
	params, ok := decodeParams(w, r)
	if !ok {
		return
	}
	res, err := tools.MortgagePayment(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.stats.recordTool()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAffordability(w http.ResponseWriter, r *http.Request) {
	params, ok := decodeParams(w, r)
	if !ok {
		return
	}
	res, err := tools.Affordability(params)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.stats.recordTool()
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// STATUS HANDLERS
// =============================================================================

func (s *Server) handleLLMStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.llmClient().Status(r.Context()))
}

// handleLLMPing runs a one-token completion. An optional model query
// parameter overrides the configured model for the probe.
func (s *Server) handleLLMPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.llmClient().Probe(r.Context(), r.URL.Query().Get("model")))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.snapshot())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_ERROR | error=%v", err)
	}
}

// writeError writes the JSON error envelope the advisor client parses:
// {"error": {"message": ..., "type": ..., "code": ...}}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    status,
		},
	})
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Handler returns the routed handler wrapped in the full middleware chain,
// exactly as Start serves it.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		RequestIDMiddleware(),
		LoggingMiddleware(log.Default()),
		RateLimitMiddleware(s.rateLimiter()),
	)(s.router)
}

// Start begins listening on the loopback interface and blocks until the
// server stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	client := s.llmClient()
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s provider=%s model=%s",
		addr, Version, client.Provider(), client.Model())

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server, waiting for in-flight requests up to
// the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	log.Printf("SERVER_STOP | addr=127.0.0.1:%d", s.port)
	return srv.Shutdown(ctx)
}
