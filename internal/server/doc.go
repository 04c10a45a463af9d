// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the advisor over a local HTTP API.
//
// The server is the loopback backend behind `penny serve`: the chat UI and
// the ask command talk to it through internal/advisor, and any local tool
// (scripts, editors, a browser extension) can use the same endpoints.
//
// # Endpoints
//
//   - POST /api/ask                    - Single-shot advisor answer
//   - POST /api/ask/stream             - Server-sent events: tools, tokens, done
//   - POST /api/tools/mortgage-payment - Run the mortgage calculator directly
//   - POST /api/tools/affordability    - Run the affordability calculator directly
//   - GET  /api/llm/status             - Provider reachability
//   - GET  /api/llm/ping               - Minimal completion probe
//   - GET  /api/stats                  - Usage counters and uptime
//   - GET  /api/health                 - Health check
//
// Streaming responses carry one JSON event per SSE frame. The event order is
// fixed: a tools event first, then token events, then (on fallback) a message
// or error event, and always a final done event.
//
// # Usage
//
//	srv := server.NewServer(8787).WithLLMClient(llm.NewClient())
//	if err := srv.Start(); err != nil {
//		log.Fatal(err)
//	}
//
// The server binds to 127.0.0.1 only. There is no authentication layer;
// anything that can reach the loopback interface is trusted.
package server
