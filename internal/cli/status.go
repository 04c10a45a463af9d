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
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// STATUS COMMAND
// =============================================================================

// HandleStatusCommand reports backend and ledger health at a glance. The
// command never fails on an unreachable backend; the report is the answer.
func HandleStatusCommand(args Args) error {
	cfg := config.Global()
	data := collectStatus(cfg)

	if args.JSON {
		NewJSONResponse("status", data).Print()
		return nil
	}

	printStatusReport(data, args.Verbose)
	return nil
}

// collectStatus probes the backend and the ledger.
func collectStatus(cfg *config.Config) StatusData {
	data := StatusData{Version: Version}
	if path, err := config.PathTOML(); err == nil {
		data.ConfigPath = path
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := advisor.NewClient(cfg.Advisor.BaseURL)
	data.Backend.BaseURL = cfg.Advisor.BaseURL
	if err := client.Health(ctx); err != nil {
		data.Backend.Error = err.Error()
	} else {
		data.Backend.Reachable = true
		if report, err := client.Status(ctx); err == nil {
			data.Backend.Provider = report.Provider
			data.Backend.Model = report.Model
			if !report.OK && report.Error != "" {
				data.Backend.Error = report.Error
			}
		}
	}

	path, err := cfg.LedgerDBPath()
	if err != nil {
		data.Ledger.Error = err.Error()
		return data
	}
	data.Ledger.Path = path

	// A missing database just means nothing was imported yet; don't create
	// one as a side effect of asking.
	if _, err := os.Stat(path); err != nil {
		return data
	}

	led, err := openLedger(cfg)
	if err != nil {
		data.Ledger.Error = err.Error()
		return data
	}
	defer led.Close()

	stats, err := led.Stats()
	if err != nil {
		data.Ledger.Error = err.Error()
		return data
	}
	data.Ledger.Transactions = stats.Transactions
	data.Ledger.Batches = stats.Batches
	data.Ledger.EarliestDate = stats.EarliestDate
	data.Ledger.LatestDate = stats.LatestDate
	data.Ledger.SizeBytes = stats.DatabaseSize
	return data
}

func printStatusReport(data StatusData, verbose bool) {
	fmt.Println(TitleStyle.Render("penny status"))

	fmt.Println(SectionStyle.Render("Backend"))
	if data.Backend.Reachable {
		fmt.Printf("%s %s\n", RenderStatus("ok"), ValueStyle.Render(data.Backend.BaseURL))
		if data.Backend.Provider != "" {
			fmt.Println(RenderLabel("Provider", data.Backend.Provider))
		}
		if data.Backend.Model != "" {
			fmt.Println(RenderLabel("Model", data.Backend.Model))
		}
		if data.Backend.Error != "" {
			fmt.Printf("%s %s\n", RenderStatus("warn"), DimStyle.Render(data.Backend.Error))
		}
	} else {
		fmt.Printf("%s %s\n", RenderStatus("fail"), ValueStyle.Render(data.Backend.BaseURL))
		fmt.Println(DimStyle.Render("  Start it with: penny serve"))
	}

	fmt.Println(SectionStyle.Render("Ledger"))
	switch {
	case data.Ledger.Error != "":
		fmt.Printf("%s %s\n", RenderStatus("fail"), DimStyle.Render(data.Ledger.Error))
	case data.Ledger.Transactions == 0:
		fmt.Printf("%s %s\n", RenderStatus("warn"), DimStyle.Render("empty"))
		fmt.Println(DimStyle.Render("  Import a statement with: penny import FILE.csv"))
	default:
		fmt.Println(RenderLabel("Transactions", util.FormatCount(data.Ledger.Transactions)))
		fmt.Println(RenderLabel("Statements", util.FormatCount(data.Ledger.Batches)))
		if data.Ledger.EarliestDate != "" {
			fmt.Println(RenderLabel("Range", data.Ledger.EarliestDate+" to "+data.Ledger.LatestDate))
		}
		fmt.Println(RenderLabel("Size", formatBytes(data.Ledger.SizeBytes)))
	}

	if verbose {
		fmt.Println(SectionStyle.Render("Config"))
		fmt.Println(RenderLabel("File", data.ConfigPath))
		fmt.Println(RenderLabel("Version", data.Version))
	}
}
