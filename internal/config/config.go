// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete penny configuration.
type Config struct {
	// Version is the configuration format version.
	Version string `toml:"version" json:"version"`

	// Advisor configures the backend endpoint the chat client talks to.
	Advisor AdvisorConfig `toml:"advisor" json:"advisor"`

	// LLM configures the upstream OpenAI-compatible provider used by
	// penny serve.
	LLM LLMConfig `toml:"llm" json:"llm"`

	// Server configures the penny serve listener.
	Server ServerConfig `toml:"server" json:"server"`

	// Ledger configures the transaction store.
	Ledger LedgerConfig `toml:"ledger" json:"ledger"`

	// UI configures presentation concerns that are not per-session settings.
	UI UIConfig `toml:"ui" json:"ui"`
}

// AdvisorConfig points the chat client at an advisor backend.
type AdvisorConfig struct {
	// BaseURL is the advisor backend base URL, e.g. http://127.0.0.1:8787.
	BaseURL string `toml:"base_url" json:"base_url"`
}

// LLMConfig contains the upstream provider configuration for penny serve.
// Environment variables (OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL)
// override these fields.
type LLMConfig struct {
	// APIKey is the provider API key. Never logged; String() redacts it.
	APIKey string `toml:"api_key" json:"api_key"`
	// BaseURL is the OpenAI-compatible API base, e.g. https://api.openai.com/v1.
	BaseURL string `toml:"base_url" json:"base_url"`
	// Model is the chat-completions model name.
	Model string `toml:"model" json:"model"`
}

// ServerConfig contains the penny serve listener configuration.
type ServerConfig struct {
	// Address is the host:port the server binds, e.g. 127.0.0.1:8787.
	Address string `toml:"address" json:"address"`
	// RateLimitRPS is the per-client request rate (requests per second).
	RateLimitRPS float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance.
	RateLimitBurst int `toml:"rate_limit_burst" json:"rate_limit_burst"`
}

// LedgerConfig contains the transaction store configuration.
type LedgerConfig struct {
	// DBPath is the sqlite database path. Empty means <data dir>/ledger.db.
	DBPath string `toml:"db_path" json:"db_path"`
	// Currency is the ISO 4217 code used when formatting amounts.
	Currency string `toml:"currency" json:"currency"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact chat layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Advisor: AdvisorConfig{
			BaseURL: "http://127.0.0.1:8787",
		},

		LLM: LLMConfig{
			APIKey:  "",
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},

		Server: ServerConfig{
			Address:        "127.0.0.1:8787",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
		},

		Ledger: LedgerConfig{
			DBPath:   "",
			Currency: "USD",
		},

		UI: UIConfig{
			Theme:       "dark",
			CompactMode: false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the penny data directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".penny"), nil
}

// PathTOML returns the path to the TOML config file.
func PathTOML() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// PathJSON returns the path to the JSON config file.
func PathJSON() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// StateDir returns the directory conversation state is persisted under.
// Kept separate from the data dir root so thread files do not mingle with
// the config file and the ledger database.
func StateDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state"), nil
}

// EnsureDir ensures the data directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// LedgerDBPath resolves the sqlite database path, defaulting to the data dir.
func (c *Config) LedgerDBPath() (string, error) {
	if c.Ledger.DBPath != "" {
		return c.Ledger.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ledger.db"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := PathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finalize(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := PathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finalize(cfg)
			}
		}
	}

	cfg, err = finalize(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finalize applies env overrides, migration, defaults, and validation.
func finalize(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems; warn and continue.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finalize(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := PathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# penny configuration file")
	fmt.Fprintln(file, "# Generated by penny - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write prevents a torn config on crash.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// SECURITY: Write with restrictive permissions (0600 = owner read/write only)
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0755); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Advisor endpoint
	if c.Advisor.BaseURL != "" {
		if u, err := url.Parse(c.Advisor.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "advisor.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Advisor.BaseURL),
			})
		}
	}

	// Upstream provider endpoint
	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "llm.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.LLM.BaseURL),
			})
		}
	}

	// Listener address must be host:port
	if c.Server.Address != "" {
		if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
			errs = append(errs, ValidationError{
				Field:   "server.address",
				Message: fmt.Sprintf("invalid address '%s', want host:port", c.Server.Address),
			})
		}
	}

	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_rps",
			Message: "rate_limit_rps cannot be negative",
		})
	}
	if c.Server.RateLimitBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_burst",
			Message: "rate_limit_burst cannot be negative",
		})
	}

	// Currency codes are three letters (ISO 4217)
	if c.Ledger.Currency != "" && len(c.Ledger.Currency) != 3 {
		errs = append(errs, ValidationError{
			Field:   "ledger.currency",
			Message: fmt.Sprintf("invalid currency code '%s', want 3 letters", c.Ledger.Currency),
		})
	}

	// Theme
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if c.UI.Theme != "" && !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Advisor.BaseURL == "" {
		c.Advisor.BaseURL = defaults.Advisor.BaseURL
	}

	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = defaults.LLM.Model
	}

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = defaults.Server.RateLimitRPS
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}

	if c.Ledger.Currency == "" {
		c.Ledger.Currency = defaults.Ledger.Currency
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Migrate handles migration from old configuration formats to new ones.
func (c *Config) Migrate() error {
	// "system" theme was renamed to "auto"
	if strings.ToLower(c.UI.Theme) == "system" {
		c.UI.Theme = "auto"
	}

	// Base URLs are stored without a trailing slash
	c.Advisor.BaseURL = strings.TrimRight(c.Advisor.BaseURL, "/")
	c.LLM.BaseURL = strings.TrimRight(c.LLM.BaseURL, "/")

	// Currency codes are stored uppercase
	c.Ledger.Currency = strings.ToUpper(c.Ledger.Currency)

	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PENNY_ADVISOR_URL: overrides advisor.base_url
//   - PENNY_ADDR: overrides server.address
//   - PENNY_MODEL: overrides llm.model
//   - PENNY_LEDGER_DB: overrides ledger.db_path
//   - PENNY_THEME: overrides ui.theme
//   - OPENAI_API_KEY: overrides llm.api_key
//   - OPENAI_BASE_URL: overrides llm.base_url
//   - OPENAI_MODEL: overrides llm.model
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PENNY_ADVISOR_URL"); v != "" {
		c.Advisor.BaseURL = v
	}

	if v := os.Getenv("PENNY_ADDR"); v != "" {
		c.Server.Address = v
	}

	if v := os.Getenv("PENNY_MODEL"); v != "" {
		c.LLM.Model = v
	}

	if v := os.Getenv("PENNY_LEDGER_DB"); v != "" {
		c.Ledger.DBPath = v
	}

	if v := os.Getenv("PENNY_THEME"); v != "" {
		c.UI.Theme = v
	}

	// OPENAI_* carry the upstream provider contract
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.LLM.Model = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "llm.model").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// String input converts to the field's kind; config set always passes strings.
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"advisor.base_url",
		"llm.api_key",
		"llm.base_url",
		"llm.model",
		"server.address",
		"server.rate_limit_rps",
		"server.rate_limit_burst",
		"ledger.db_path",
		"ledger.currency",
		"ui.theme",
		"ui.compact_mode",
	}
}

// Clone creates an independent copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the API key to prevent accidental exposure in logs or
// doctor output.
func (c *Config) String() string {
	safe := c.Clone()

	if safe.LLM.APIKey != "" {
		safe.LLM.APIKey = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
