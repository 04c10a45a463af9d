// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/config"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// markdownRenderer is initialized once. A nil renderer means glamour could
// not start and answers print as plain text.
var markdownRenderer *glamour.TermRenderer

func init() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(DefaultTerminalWidth),
	)
	if err == nil {
		markdownRenderer = renderer
	}
}

// renderMarkdown renders markdown for terminal display, falling back to the
// raw text on any failure.
func renderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}
	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAskCommand asks the advisor backend a single question and prints the
// answer. The question comes from the arguments or, when absent, from piped
// stdin. Unless --no-analytics is given the local spending snapshot rides
// along so answers can reference the user's own numbers.
func HandleAskCommand(args Args) error {
	cfg := config.Global()

	question := strings.TrimSpace(args.Query)
	if question == "" {
		question = readPipedQuestion()
	}
	if question == "" {
		err := ErrMissingArgument("question", `penny ask "What is my savings rate?"`)
		if args.JSON {
			DisplayErrorJSON("ask", err)
		}
		return err
	}

	var analytics any
	if !args.NoAnalytics {
		analytics = spendingSnapshot(cfg)
		if analytics == nil && args.Verbose {
			fmt.Fprintln(os.Stderr, DimStyle.Render("No spending snapshot available; answering without your numbers."))
		}
	}

	client := advisor.NewClient(cfg.Advisor.BaseURL)
	start := time.Now()
	resp, err := client.Ask(context.Background(), advisor.AskRequest{
		Analytics: analytics,
		Question:  question,
		Model:     args.Model,
	})
	duration := time.Since(start)

	if err != nil {
		if args.JSON {
			DisplayErrorJSON("ask", err)
			return err
		}
		if GetExitCode(err) == ExitNetworkError {
			fmt.Fprintln(os.Stderr, DimStyle.Render("The advisor backend is not reachable. Start it with: penny serve"))
		}
		return WrapError(err, "ask failed")
	}

	if args.JSON {
		data := AskData{
			Question:         question,
			Answer:           resp.Answer,
			Model:            resp.Model,
			SnapshotAttached: analytics != nil,
			DurationMs:       duration.Milliseconds(),
		}
		NewJSONResponse("ask", data).Print()
		return nil
	}

	displayAnswer(resp.Answer)

	if !args.Quiet {
		printAskSummary(resp.Model, duration, analytics != nil)
	}
	return nil
}

// readPipedQuestion reads the question from stdin when input is piped in.
func readPipedQuestion() string {
	if !stdinIsPiped() {
		return ""
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// displayAnswer prints the answer, rendered as markdown on a terminal and
// raw when piped.
func displayAnswer(answer string) {
	if IsStdoutTTY() {
		fmt.Println(renderMarkdown(answer))
		return
	}
	fmt.Println(answer)
}

// printAskSummary writes the request footer to stderr so piped stdout stays
// clean.
func printAskSummary(model string, duration time.Duration, snapshotAttached bool) {
	snapshot := "attached"
	if !snapshotAttached {
		snapshot = "none"
	}
	fmt.Fprintln(os.Stderr, DimStyle.Render(strings.Repeat("─", 45)))
	fmt.Fprintln(os.Stderr, DimStyle.Render(fmt.Sprintf(
		"Model: %s | Time: %.1fs | Snapshot: %s",
		model, duration.Seconds(), snapshot,
	)))
}
