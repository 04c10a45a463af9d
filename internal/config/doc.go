// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for penny.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - AdvisorConfig: Advisor backend endpoint the chat client talks to
//   - LLMConfig: Upstream OpenAI-compatible provider configuration
//   - ServerConfig: penny serve listener configuration
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PENNY_*, OPENAI_*)
//   - ~/.penny/config.toml
//   - ~/.penny/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	base := cfg.Advisor.BaseURL
//	model := cfg.LLM.Model
//
// A fsnotify-backed Watcher reloads the live configuration when the config
// file changes on disk.
package config
