// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/llm"
	"github.com/pennyworth/penny-tui/internal/server"
)

// =============================================================================
// SERVE COMMAND
// =============================================================================

// HandleServeCommand runs the advisor backend until interrupted. The port
// comes from --port, then the configured server address, then the default.
func HandleServeCommand(args Args) error {
	cfg := config.Global()

	port := args.Port
	if port == 0 {
		port = portFromAddress(cfg.Server.Address)
	}

	client := llmClientFromConfig(cfg)
	srv := server.NewServer(port).WithLLMClient(client)

	if !args.Quiet {
		printServeBanner(srv.Port(), client)
	}

	// Editing ~/.penny/config.toml swaps the provider client without a
	// restart. Watch failure is not fatal; the server just won't reload.
	if dir, err := config.Dir(); err == nil {
		onReload := func(updated *config.Config) {
			srv.WithLLMClient(llmClientFromConfig(updated))
			if !args.Quiet {
				fmt.Fprintln(os.Stderr, "Config reloaded; provider settings applied.")
			}
		}
		if watcher, err := config.NewWatcher(dir, 0, onReload); err == nil {
			if err := watcher.Start(); err != nil {
				watcher.Close()
			} else {
				defer watcher.Close()
			}
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		return WrapError(err, "server")
	case sig := <-sigChan:
		if !args.Quiet {
			fmt.Fprintf(os.Stderr, "\nReceived %s, shutting down...\n", sig)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return WrapError(srv.Shutdown(ctx), "shutdown")
	}
}

// portFromAddress extracts the port from a host:port address, falling back
// to the default when it cannot be parsed.
func portFromAddress(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return server.DefaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return server.DefaultPort
	}
	return port
}

func printServeBanner(port int, client *llm.Client) {
	fmt.Println(TitleStyle.Render("penny serve"))
	fmt.Println(RenderLabel("Listening", fmt.Sprintf("http://127.0.0.1:%d", port)))
	fmt.Println(RenderLabel("Provider", client.Provider()))
	fmt.Println(RenderLabel("Model", client.Model()))
	if client.HasAPIKey() {
		fmt.Println(RenderLabel("API key", "configured"))
	} else {
		fmt.Println(WarningStyle.Render("No API key; answers fall back to offline guidance."))
		fmt.Println(DimStyle.Render("Set OPENAI_API_KEY or: penny config set llm.api_key KEY"))
	}
	fmt.Println(DimStyle.Render("Press Ctrl+C to stop."))
	fmt.Println()
}
