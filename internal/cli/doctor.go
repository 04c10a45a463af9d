// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/config"
)

// =============================================================================
// DOCTOR COMMAND
// =============================================================================

// HandleDoctorCommand runs environment checks and suggests fixes. A failing
// check makes the command exit non-zero so scripts can gate on it.
func HandleDoctorCommand(args Args) error {
	cfg := config.Global()
	checks := runDoctorChecks(cfg)

	var summary DoctorSummary
	for _, check := range checks {
		switch check.Status {
		case "pass":
			summary.Passed++
		case "warn":
			summary.Warned++
		default:
			summary.Failed++
		}
	}
	summary.Healthy = summary.Failed == 0

	if args.JSON {
		NewJSONResponse("doctor", DoctorData{Checks: checks, Summary: summary}).Print()
		return nil
	}

	fmt.Println(TitleStyle.Render("penny doctor"))
	for _, check := range checks {
		fmt.Printf("%s %s %s\n",
			RenderStatus(check.Status),
			LabelStyle.Render(check.Name),
			ValueStyle.Render(check.Message))
		if check.Fix != "" && check.Status != "pass" {
			fmt.Println(DimStyle.Render("       fix: " + check.Fix))
		}
	}

	fmt.Println(RenderSeparator(50))
	fmt.Printf("%d passed, %d warnings, %d failed\n",
		summary.Passed, summary.Warned, summary.Failed)

	if !summary.Healthy {
		return fmt.Errorf("%d checks failed", summary.Failed)
	}
	if summary.Warned > 0 {
		fmt.Println(WarningStyle.Render("Usable, with warnings."))
	} else {
		fmt.Println(SuccessStyle.Render("Everything looks good."))
	}
	return nil
}

// runDoctorChecks probes each part of the environment in turn.
func runDoctorChecks(cfg *config.Config) []DoctorCheck {
	var checks []DoctorCheck

	// Config file
	configPath, _ := config.PathTOML()
	if _, statErr := os.Stat(configPath); statErr != nil {
		checks = append(checks, DoctorCheck{
			Name:    "config",
			Status:  "pass",
			Message: "using defaults (no config file yet)",
		})
	} else if _, loadErr := config.LoadFromPath(configPath); loadErr != nil {
		checks = append(checks, DoctorCheck{
			Name:    "config",
			Status:  "fail",
			Message: loadErr.Error(),
			Fix:     "Check the TOML syntax in " + configPath,
		})
	} else {
		checks = append(checks, DoctorCheck{
			Name:    "config",
			Status:  "pass",
			Message: configPath,
		})
	}

	// Data directory
	if err := config.EnsureDir(); err != nil {
		checks = append(checks, DoctorCheck{
			Name:    "data directory",
			Status:  "fail",
			Message: err.Error(),
			Fix:     "Check permissions on your home directory",
		})
	} else {
		dir, _ := config.Dir()
		checks = append(checks, DoctorCheck{
			Name:    "data directory",
			Status:  "pass",
			Message: dir,
		})
	}

	// Ledger
	checks = append(checks, checkLedger(cfg))

	// Backend and provider
	checks = append(checks, checkBackend(cfg)...)

	// API key (used by penny serve)
	if cfg.LLM.APIKey != "" {
		checks = append(checks, DoctorCheck{
			Name:    "api key",
			Status:  "pass",
			Message: "configured",
		})
	} else {
		checks = append(checks, DoctorCheck{
			Name:    "api key",
			Status:  "warn",
			Message: "not set; the backend answers with offline guidance only",
			Fix:     "Set OPENAI_API_KEY or: penny config set llm.api_key KEY",
		})
	}

	// Terminal
	if CanPrompt() {
		width, height := GetTerminalSize()
		checks = append(checks, DoctorCheck{
			Name:    "terminal",
			Status:  "pass",
			Message: fmt.Sprintf("interactive, %dx%d", width, height),
		})
	} else {
		checks = append(checks, DoctorCheck{
			Name:    "terminal",
			Status:  "warn",
			Message: "not interactive",
			Fix:     "The TUI and chat need a real terminal; one-shot commands still work",
		})
	}

	return checks
}

func checkLedger(cfg *config.Config) DoctorCheck {
	path, err := cfg.LedgerDBPath()
	if err != nil {
		return DoctorCheck{Name: "ledger", Status: "fail", Message: err.Error()}
	}

	if _, statErr := os.Stat(path); statErr != nil {
		return DoctorCheck{
			Name:    "ledger",
			Status:  "warn",
			Message: "no statements imported yet",
			Fix:     "penny import FILE.csv",
		}
	}

	led, err := openLedger(cfg)
	if err != nil {
		return DoctorCheck{
			Name:    "ledger",
			Status:  "fail",
			Message: err.Error(),
			Fix:     "If " + path + " is corrupt, move it aside and re-import",
		}
	}
	defer led.Close()

	stats, err := led.Stats()
	if err != nil {
		return DoctorCheck{Name: "ledger", Status: "fail", Message: err.Error()}
	}
	if stats.Transactions == 0 {
		return DoctorCheck{
			Name:    "ledger",
			Status:  "warn",
			Message: "empty",
			Fix:     "penny import FILE.csv",
		}
	}
	return DoctorCheck{
		Name:    "ledger",
		Status:  "pass",
		Message: fmt.Sprintf("%d transactions from %d statements", stats.Transactions, stats.Batches),
	}
}

func checkBackend(cfg *config.Config) []DoctorCheck {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client := advisor.NewClient(cfg.Advisor.BaseURL)
	if err := client.Health(ctx); err != nil {
		return []DoctorCheck{
			{
				Name:    "backend",
				Status:  "fail",
				Message: "unreachable at " + cfg.Advisor.BaseURL,
				Fix:     "Start it with: penny serve",
			},
			{
				Name:    "provider",
				Status:  "warn",
				Message: "unknown (backend not running)",
			},
		}
	}

	checks := []DoctorCheck{{
		Name:    "backend",
		Status:  "pass",
		Message: cfg.Advisor.BaseURL,
	}}

	report, err := client.Status(ctx)
	switch {
	case err != nil:
		checks = append(checks, DoctorCheck{
			Name:    "provider",
			Status:  "warn",
			Message: err.Error(),
		})
	case report.OK:
		checks = append(checks, DoctorCheck{
			Name:    "provider",
			Status:  "pass",
			Message: fmt.Sprintf("%s (%s)", report.Provider, report.Model),
		})
	default:
		msg := report.Error
		if msg == "" {
			msg = "provider not ready"
		}
		checks = append(checks, DoctorCheck{
			Name:    "provider",
			Status:  "warn",
			Message: msg,
			Fix:     "Set OPENAI_API_KEY and restart: penny serve",
		})
	}
	return checks
}
