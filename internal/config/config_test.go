// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Default config should have a version")
	}
	if cfg.Advisor.BaseURL != "http://127.0.0.1:8787" {
		t.Errorf("advisor base URL = %q", cfg.Advisor.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm model = %q", cfg.LLM.Model)
	}
	if cfg.Server.Address != "127.0.0.1:8787" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  Default(),
			wantErr: false,
		},
		{
			name: "invalid theme",
			config: func() *Config {
				c := Default()
				c.UI.Theme = "solarized"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid advisor URL",
			config: func() *Config {
				c := Default()
				c.Advisor.BaseURL = "not a url"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "invalid llm URL",
			config: func() *Config {
				c := Default()
				c.LLM.BaseURL = "://broken"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "server address missing port",
			config: func() *Config {
				c := Default()
				c.Server.Address = "127.0.0.1"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "negative rate limit",
			config: func() *Config {
				c := Default()
				c.Server.RateLimitRPS = -1
				return c
			}(),
			wantErr: true,
		},
		{
			name: "bad currency code",
			config: func() *Config {
				c := Default()
				c.Ledger.Currency = "DOLLARS"
				return c
			}(),
			wantErr: true,
		},
		{
			name: "auto theme accepted",
			config: func() *Config {
				c := Default()
				c.UI.Theme = "auto"
				return c
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_SetDefaults tests that zero values are filled in.
func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	if cfg.Version == "" {
		t.Error("version not filled")
	}
	if cfg.Advisor.BaseURL == "" {
		t.Error("advisor base URL not filled")
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("llm base URL = %q", cfg.LLM.BaseURL)
	}
	if cfg.Server.RateLimitRPS == 0 || cfg.Server.RateLimitBurst == 0 {
		t.Error("rate limits not filled")
	}
	if cfg.Ledger.Currency != "USD" {
		t.Errorf("currency = %q", cfg.Ledger.Currency)
	}
	// DBPath deliberately stays empty (resolved against the data dir)
	if cfg.Ledger.DBPath != "" {
		t.Errorf("db path = %q, want empty", cfg.Ledger.DBPath)
	}
}

// TestConfig_Migrate tests legacy value normalization.
func TestConfig_Migrate(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "system"
	cfg.Advisor.BaseURL = "http://127.0.0.1:8787/"
	cfg.LLM.BaseURL = "https://api.openai.com/v1///"
	cfg.Ledger.Currency = "usd"

	if err := cfg.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if cfg.UI.Theme != "auto" {
		t.Errorf("theme = %q, want 'auto'", cfg.UI.Theme)
	}
	if cfg.Advisor.BaseURL != "http://127.0.0.1:8787" {
		t.Errorf("advisor base URL = %q", cfg.Advisor.BaseURL)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("llm base URL = %q", cfg.LLM.BaseURL)
	}
	if cfg.Ledger.Currency != "USD" {
		t.Errorf("currency = %q, want 'USD'", cfg.Ledger.Currency)
	}
}

// TestConfig_ApplyEnvOverrides tests PENNY_* and OPENAI_* overrides.
func TestConfig_ApplyEnvOverrides(t *testing.T) {
	t.Setenv("PENNY_ADVISOR_URL", "http://10.0.0.5:9999")
	t.Setenv("PENNY_ADDR", "0.0.0.0:9000")
	t.Setenv("PENNY_THEME", "light")
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("OPENAI_MODEL", "gpt-4o")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Advisor.BaseURL != "http://10.0.0.5:9999" {
		t.Errorf("advisor base URL = %q", cfg.Advisor.BaseURL)
	}
	if cfg.Server.Address != "0.0.0.0:9000" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	if cfg.LLM.APIKey != "sk-test-key" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
}

// clearEnvOverrides pins the override variables empty so load tests only see
// file contents.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PENNY_ADVISOR_URL", "PENNY_ADDR", "PENNY_MODEL", "PENNY_LEDGER_DB",
		"PENNY_THEME", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
	} {
		t.Setenv(key, "")
	}
}

// TestConfig_LoadFromPathTOML tests loading and finalizing a TOML file.
func TestConfig_LoadFromPathTOML(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
version = "1.0.0"

[advisor]
base_url = "http://127.0.0.1:4242/"

[llm]
model = "gpt-4o"

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Advisor.BaseURL != "http://127.0.0.1:4242" {
		t.Errorf("advisor base URL = %q (trailing slash should be trimmed)", cfg.Advisor.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model = %q", cfg.LLM.Model)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
	// Untouched sections fall back to defaults
	if cfg.Server.Address != "127.0.0.1:8787" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Ledger.Currency != "USD" {
		t.Errorf("currency = %q", cfg.Ledger.Currency)
	}
}

// TestConfig_LoadFromPathJSON tests the JSON fallback format.
func TestConfig_LoadFromPathJSON(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := `{"advisor":{"base_url":"http://127.0.0.1:5151"},"ui":{"theme":"auto"}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Advisor.BaseURL != "http://127.0.0.1:5151" {
		t.Errorf("advisor base URL = %q", cfg.Advisor.BaseURL)
	}
	if cfg.UI.Theme != "auto" {
		t.Errorf("theme = %q", cfg.UI.Theme)
	}
}

// TestConfig_LoadFromPathInvalid tests that a bad config is rejected.
func TestConfig_LoadFromPathInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[ui]
theme = "solarized"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath() should reject an invalid theme")
	}
}

// TestConfig_SaveRoundTrip tests SaveTOML followed by LoadFromPath.
func TestConfig_SaveRoundTrip(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.LLM.Model = "gpt-4o"
	cfg.UI.CompactMode = true

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	// SECURITY: saved config must be 0600
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.LLM.Model != "gpt-4o" {
		t.Errorf("model = %q", loaded.LLM.Model)
	}
	if !loaded.UI.CompactMode {
		t.Error("compact mode not restored")
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	// Test Get
	val, err := cfg.Get("ui.theme")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "dark" {
		t.Errorf("Get('ui.theme') = %v, want 'dark'", val)
	}

	// Initialisms resolve through EqualFold matching
	val, err = cfg.Get("llm.api_key")
	if err != nil {
		t.Fatalf("Get('llm.api_key') error = %v", err)
	}
	if val != "" {
		t.Errorf("Get('llm.api_key') = %v, want empty", val)
	}

	// Test Set with string conversion
	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	val, _ = cfg.Get("ui.theme")
	if val != "light" {
		t.Errorf("Get('ui.theme') after Set = %v, want 'light'", val)
	}

	if err := cfg.Set("server.rate_limit_rps", "25"); err != nil {
		t.Fatalf("Set(float) error = %v", err)
	}
	if cfg.Server.RateLimitRPS != 25 {
		t.Errorf("rate limit = %v, want 25", cfg.Server.RateLimitRPS)
	}

	if err := cfg.Set("ui.compact_mode", "true"); err != nil {
		t.Fatalf("Set(bool) error = %v", err)
	}
	if !cfg.UI.CompactMode {
		t.Error("compact mode not set")
	}

	// Test Get with invalid key
	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
	if err := cfg.Set("invalid.key", "x"); err == nil {
		t.Error("Set() with invalid key should return error")
	}
}

// TestConfig_GetAllKeys tests that every advertised key resolves.
func TestConfig_GetAllKeys(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	original.LLM.Model = "original"

	clone := original.Clone()
	clone.LLM.Model = "cloned"

	if original.LLM.Model != "original" {
		t.Error("Clone should create an independent copy")
	}
}

// TestConfig_StringRedactsSecrets tests that String() never leaks the API key.
func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "sk-very-secret"

	out := cfg.String()
	if strings.Contains(out, "sk-very-secret") {
		t.Error("String() leaked the API key")
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Error("String() should mark the key as redacted")
	}
	// The original must stay intact
	if cfg.LLM.APIKey != "sk-very-secret" {
		t.Error("String() mutated the config")
	}
}

// TestConfig_ConcurrentAccess tests that Global(), SetGlobal(), and ReloadGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.LLM.Model = "concurrent-test"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	ResetGlobalForTesting()

	cfg := Global()
	if cfg == nil {
		t.Fatal("Global() returned nil")
	}
	if cfg.Version == "" {
		t.Error("Config version should not be empty")
	}
	if cfg.Advisor.BaseURL == "" {
		t.Error("Advisor base URL should not be empty")
	}
}

// TestConfig_SetGlobalOverwrites tests that SetGlobal properly overwrites
// the existing global config.
func TestConfig_SetGlobalOverwrites(t *testing.T) {
	ResetGlobalForTesting()

	_ = Global()

	customCfg := Default()
	customCfg.LLM.Model = "custom-model"
	SetGlobal(customCfg)

	result := Global()
	if result.LLM.Model != "custom-model" {
		t.Errorf("Expected model 'custom-model', got '%s'", result.LLM.Model)
	}
}

// TestWatcher_ReloadsOnChange tests that the fsnotify watcher picks up a
// config write and installs the reloaded config.
func TestWatcher_ReloadsOnChange(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()

	changed := make(chan *Config, 4)
	w, err := NewWatcher(dir, 50*time.Millisecond, func(c *Config) {
		changed <- c
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	content := `
[ui]
theme = "light"
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	select {
	case cfg := <-changed:
		if cfg.UI.Theme != "light" {
			t.Errorf("reloaded theme = %q, want 'light'", cfg.UI.Theme)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired")
	}
}

// TestWatcher_IgnoresOtherFiles tests that unrelated files do not trigger
// a reload.
func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	changed := make(chan *Config, 4)
	w, err := NewWatcher(dir, 50*time.Millisecond, func(c *Config) {
		changed <- c
	})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case <-changed:
		t.Error("watcher fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}
