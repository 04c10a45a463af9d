// penny - a personal finance chat for your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/cli"
	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/ledger"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/session"
	"github.com/pennyworth/penny-tui/internal/store"
	"github.com/pennyworth/penny-tui/internal/ui/chat"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdServe:
		cli.HandleServe(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdImport:
		cli.HandleImport(args)
	case cli.CmdExport:
		cli.HandleExport(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdDoctor:
		cli.HandleDoctor(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

// runTUI wires the store, registry, controller, and advisor client together
// and hands the assembled model to bubbletea.
func runTUI(args cli.Args) {
	cfg := config.Global()

	if err := config.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not prepare data directory: %v\n", err)
		os.Exit(1)
	}

	// Conversations persist under the state directory. Without a resolvable
	// home the session still works, it just forgets on exit.
	var st store.Store
	if stateDir, err := config.StateDir(); err == nil {
		st = store.NewFileStore(stateDir)
	} else {
		fmt.Fprintln(os.Stderr, "Warning: no home directory; conversations will not persist.")
		st = store.NewMemStore()
	}

	registry := session.NewRegistry(st)
	client := advisor.NewClient(cfg.Advisor.BaseURL)
	controller := session.NewController(registry, client)

	// Each question carries a fresh spending snapshot so imports done while
	// the TUI is open show up on the next ask. A missing or empty ledger
	// just means no snapshot.
	controller.SetAnalyticsFunc(func(ctx context.Context) any {
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
		if err != nil || snap.Summary.Transactions == 0 {
			return nil
		}
		return snap
	})

	// --model overrides for this run only.
	var prevModel string
	modelChanged := false
	if args.Model != "" {
		prevModel = registry.Settings().LLMModel
		modelChanged = true
		registry.UpdateSettings(func(s *model.Settings) {
			s.LLMModel = args.Model
		})
	}

	theme := styles.NewTheme()
	m := chat.New(cfg, theme, registry, controller, client)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()

	if modelChanged {
		registry.UpdateSettings(func(s *model.Settings) {
			s.LLMModel = prevModel
		})
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}
