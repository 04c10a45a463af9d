// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/ledger"
	"github.com/pennyworth/penny-tui/internal/llm"
)

// =============================================================================
// SHARED COMMAND HELPERS
// =============================================================================

// openLedger opens the configured ledger database, creating the data
// directory on first use.
func openLedger(cfg *config.Config) (*ledger.Ledger, error) {
	if err := config.EnsureDir(); err != nil {
		return nil, err
	}
	path, err := cfg.LedgerDBPath()
	if err != nil {
		return nil, err
	}
	return ledger.Open(path)
}

// spendingSnapshot loads the anonymous analytics snapshot attached to
// advisor questions. Returns nil when the ledger is empty or unavailable;
// the backend answers general questions without one. A missing database is
// left missing rather than created as a side effect of asking.
func spendingSnapshot(cfg *config.Config) any {
	path, err := cfg.LedgerDBPath()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	led, err := ledger.Open(path)
	if err != nil {
		return nil
	}
	defer led.Close()

	snap, err := led.Snapshot()
	if err != nil || snap == nil || snap.Summary.Transactions == 0 {
		return nil
	}
	return snap
}

// llmClientFromConfig builds the upstream provider client for serve.
// Environment variables were already folded into cfg at load time, so the
// config values are authoritative here.
func llmClientFromConfig(cfg *config.Config) *llm.Client {
	return llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
	})
}

// maskSecret hides most of a credential for display.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// stdinIsPiped reports whether stdin carries piped or redirected data.
func stdinIsPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
