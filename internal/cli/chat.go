// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/export"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/session"
	"github.com/pennyworth/penny-tui/internal/store"
	"github.com/pennyworth/penny-tui/internal/util"
)

// =============================================================================
// CHAT STYLES
// =============================================================================

var (
	chatPromptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	chatUserStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	chatAssistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

// =============================================================================
// CHAT INPUT
// =============================================================================

// ChatCLI wraps line editing with persistent history.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the line editor and loads prior history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	var historyFile string
	if dir, err := config.Dir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
	} else {
		historyFile = filepath.Join(os.TempDir(), "penny_chat_history")
	}

	c := &ChatCLI{line: line, historyFile: historyFile}
	c.loadHistory()
	return c
}

func (c *ChatCLI) loadHistory() {
	f, err := os.Open(c.historyFile)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.ReadHistory(f)
}

// ReadInput prompts for one line, recording non-empty input in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory writes the history file. Best effort; chat works without it.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT SESSION
// =============================================================================

// ChatSession holds the state of one interactive chat run. It shares the
// persisted thread store with the TUI, so conversations continue across
// either interface.
type ChatSession struct {
	Registry   *session.Registry
	Controller *session.Controller
	Client     *advisor.Client
	Config     *config.Config
	InputCLI   *ChatCLI
	Quiet      bool
	Verbose    bool
	StartTime  time.Time
	Turns      int

	prevModel    string
	modelChanged bool

	mu     sync.Mutex
	cancel context.CancelFunc
	echoed string
}

// NewChatSession wires the registry, controller, and advisor client.
func NewChatSession(args Args) (*ChatSession, error) {
	cfg := config.Global()

	if err := config.EnsureDir(); err != nil {
		return nil, WrapError(err, "could not prepare data directory")
	}
	stateDir, err := config.StateDir()
	if err != nil {
		return nil, err
	}

	registry := session.NewRegistry(store.NewFileStore(stateDir))
	client := advisor.NewClient(cfg.Advisor.BaseURL)
	controller := session.NewController(registry, client)
	controller.SetAnalyticsFunc(func(ctx context.Context) any {
		return spendingSnapshot(cfg)
	})

	s := &ChatSession{
		Registry:   registry,
		Controller: controller,
		Client:     client,
		Config:     cfg,
		InputCLI:   NewChatCLI(),
		Quiet:      args.Quiet,
		Verbose:    args.Verbose,
		StartTime:  time.Now(),
	}

	// --model overrides for this run only; the previous choice comes back
	// on exit.
	if args.Model != "" {
		s.prevModel = registry.Settings().LLMModel
		s.modelChanged = true
		registry.UpdateSettings(func(set *model.Settings) {
			set.LLMModel = args.Model
		})
	}

	controller.SetUpdateCallback(s.echoUpdate)
	return s, nil
}

// Close restores a --model override and shuts the line editor down.
func (s *ChatSession) Close() {
	if s.modelChanged {
		prev := s.prevModel
		s.Registry.UpdateSettings(func(set *model.Settings) {
			set.LLMModel = prev
		})
	}
	s.InputCLI.Close()
}

func (s *ChatSession) setCancel(cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel = cancel
}

func (s *ChatSession) currentCancel() context.CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel
}

// echoUpdate prints whatever the active assistant turn has gained since the
// last call. Send runs the turn in this goroutine, so the callback fires
// inline and deltas appear as they stream.
func (s *ChatSession) echoUpdate(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threadID != s.Registry.ActiveID() {
		return
	}
	msgs := s.Registry.Messages(threadID)
	if len(msgs) == 0 {
		return
	}
	last := msgs[len(msgs)-1]
	if last.Role != model.RoleAssistant {
		return
	}

	if strings.HasPrefix(last.Content, s.echoed) {
		fmt.Print(chatAssistantStyle.Render(last.Content[len(s.echoed):]))
	} else if last.Content != "" {
		// Content was replaced wholesale (single-shot fallback).
		fmt.Print(chatAssistantStyle.Render(last.Content))
	}
	s.echoed = last.Content
}

func (s *ChatSession) resetEcho() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoed = ""
}

// =============================================================================
// CHAT COMMAND
// =============================================================================

// HandleChatCommand runs the interactive chat loop in plain terminal mode.
func HandleChatCommand(args Args) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	chat, err := NewChatSession(args)
	if err != nil {
		return err
	}
	defer chat.Close()

	chat.printWelcome()

	// Ctrl+C cancels the in-flight question instead of killing the session.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		for range sigChan {
			if cancel := chat.currentCancel(); cancel != nil {
				cancel()
				fmt.Println("\n" + WarningStyle.Render("[Cancelled]"))
			}
		}
	}()

	for {
		input, err := chat.InputCLI.ReadInput(chatPromptStyle.Render("penny> "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				chat.printExitSummary()
				return nil
			}
			return WrapError(err, "reading input")
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			shouldContinue, err := chat.handleSlashCommand(input)
			if err != nil {
				fmt.Println(ErrorStyle.Render("Error: " + err.Error()))
			}
			if !shouldContinue {
				chat.printExitSummary()
				return nil
			}
			continue
		}

		if input == "exit" || input == "quit" {
			chat.printExitSummary()
			return nil
		}

		chat.processMessage(input)
	}
}

// processMessage runs one question through the controller. Streaming output
// arrives via the update callback while Send blocks.
func (s *ChatSession) processMessage(input string) {
	ctx, cancel := context.WithCancel(context.Background())
	s.setCancel(cancel)
	s.resetEcho()
	defer func() {
		s.setCancel(nil)
		cancel()
	}()

	start := time.Now()
	if err := s.Controller.Send(ctx, input); err != nil {
		if errors.Is(err, session.ErrBusy) {
			fmt.Println(WarningStyle.Render("Still working on the previous question."))
			return
		}
		fmt.Println(ErrorStyle.Render("Error: " + err.Error()))
		return
	}
	s.Turns++
	fmt.Println()

	if msg, ok := s.lastAssistant(); ok {
		if msg.ToolResults != nil && !msg.ToolResults.IsEmpty() {
			names := msg.ToolResults.Names()
			fmt.Println(DimStyle.Render("[calculators: " + strings.Join(names, ", ") + "]"))
		}
		if len(msg.ToolMissing) > 0 {
			fmt.Println(DimStyle.Render("[more inputs needed: " + strings.Join(msg.ToolMissing, ", ") + "]"))
		}
	}
	if s.Verbose {
		fmt.Println(DimStyle.Render(fmt.Sprintf("(%.1fs)", time.Since(start).Seconds())))
	}
}

func (s *ChatSession) lastAssistant() (model.Message, bool) {
	msgs := s.Registry.ActiveMessages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == model.RoleAssistant {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand dispatches a /command. The bool reports whether the
// REPL should keep running.
func (s *ChatSession) handleSlashCommand(input string) (bool, error) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "/help", "/h", "/?":
		s.printHelp()

	case "/new", "/n":
		s.Registry.CreateThread()
		fmt.Println(DimStyle.Render("Started a new thread."))

	case "/threads", "/t":
		s.printThreads()

	case "/switch":
		if len(parts) < 2 {
			return true, ErrMissingArgument("thread", "/switch 2")
		}
		return true, s.switchThread(parts[1])

	case "/rename":
		if len(parts) < 2 {
			return true, ErrMissingArgument("title", "/rename Groceries plan")
		}
		th, ok := s.Registry.ActiveThread()
		if !ok {
			return true, NewNotFoundError("thread", "active")
		}
		title := strings.Join(parts[1:], " ")
		s.Registry.RenameThread(th.ID, title)
		fmt.Println(DimStyle.Render("Renamed to " + title + "."))

	case "/pin":
		th, ok := s.Registry.ActiveThread()
		if !ok {
			return true, NewNotFoundError("thread", "active")
		}
		s.Registry.TogglePin(th.ID)
		if updated, ok := s.Registry.Thread(th.ID); ok && updated.Pinned {
			fmt.Println(DimStyle.Render("Pinned."))
		} else {
			fmt.Println(DimStyle.Render("Unpinned."))
		}

	case "/model", "/m":
		if len(parts) < 2 {
			name := s.Registry.Settings().LLMModel
			if name == "" {
				name = "backend default"
			}
			fmt.Println(RenderLabel("Model", name))
			return true, nil
		}
		name := parts[1]
		s.Registry.UpdateSettings(func(set *model.Settings) {
			set.LLMModel = name
		})
		fmt.Println(DimStyle.Render("Model set to " + name + "."))

	case "/status", "/s":
		s.printStatus()

	case "/history":
		s.printHistory()

	case "/export":
		dir := "."
		if len(parts) > 1 {
			dir = parts[1]
		}
		return true, s.exportActive(dir)

	case "/quit", "/q", "/exit":
		return false, nil

	case "/":
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", cmd)
	}
	return true, nil
}

// switchThread selects a thread by list number or id prefix.
func (s *ChatSession) switchThread(arg string) error {
	threads := s.Registry.Threads()

	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(threads) {
			return NewNotFoundError("thread", arg)
		}
		th := threads[n-1]
		s.Registry.SelectThread(th.ID)
		fmt.Println(DimStyle.Render("Switched to " + th.Title + "."))
		return nil
	}

	for _, th := range threads {
		if th.ID == arg || strings.HasPrefix(th.ID, arg) {
			s.Registry.SelectThread(th.ID)
			fmt.Println(DimStyle.Render("Switched to " + th.Title + "."))
			return nil
		}
	}
	return NewNotFoundError("thread", arg)
}

// exportActive writes a Markdown transcript of the current thread.
func (s *ChatSession) exportActive(dir string) error {
	th, ok := s.Registry.ActiveThread()
	if !ok {
		return NewNotFoundError("thread", "active")
	}

	opts := export.DefaultOptions()
	opts.OutputDir = dir
	opts.OpenAfterExport = false

	transcript := export.NewTranscript(th, s.Registry.Messages(th.ID))
	path, err := export.ExportAs(transcript, "markdown", opts)
	if err != nil {
		return WrapError(err, "export failed")
	}
	fmt.Println(DimStyle.Render("Saved " + path))
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func (s *ChatSession) printWelcome() {
	if s.Quiet {
		return
	}
	fmt.Println(TitleStyle.Render("penny chat"))
	fmt.Println(DimStyle.Render("Ask about your own spending. Type /help for commands, /quit to leave."))

	modelName := s.Registry.Settings().LLMModel
	if modelName == "" {
		modelName = "backend default"
	}
	fmt.Println(RenderLabel("Model", modelName))
	fmt.Println(RenderLabel("Backend", s.Config.Advisor.BaseURL))
	if th, ok := s.Registry.ActiveThread(); ok {
		fmt.Println(RenderLabel("Thread", th.Title))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Client.Health(ctx); err != nil {
		fmt.Println(WarningStyle.Render("Backend unreachable; answers will be offline guidance only."))
		fmt.Println(DimStyle.Render("Start it with: penny serve"))
	}
	fmt.Println()
}

func (s *ChatSession) printHelp() {
	fmt.Println(SectionStyle.Render("Commands"))
	rows := [][2]string{
		{"/new", "Start a new thread"},
		{"/threads", "List threads"},
		{"/switch N", "Switch to thread N"},
		{"/rename TITLE", "Rename the current thread"},
		{"/pin", "Pin or unpin the current thread"},
		{"/model [NAME]", "Show or set the model"},
		{"/history", "Show this thread's messages"},
		{"/export [DIR]", "Save a Markdown transcript"},
		{"/status", "Session and backend status"},
		{"/quit", "Leave chat"},
	}
	for _, row := range rows {
		fmt.Printf("  %-15s %s\n", row[0], DimStyle.Render(row[1]))
	}
}

func (s *ChatSession) printThreads() {
	threads := s.Registry.Threads()
	if len(threads) == 0 {
		fmt.Println(DimStyle.Render("No threads yet."))
		return
	}
	activeID := s.Registry.ActiveID()
	for i, th := range threads {
		marker := "  "
		if th.ID == activeID {
			marker = "* "
		}
		pin := ""
		if th.Pinned {
			pin = " [pinned]"
		}
		count := len(s.Registry.Messages(th.ID))
		fmt.Printf("%s%2d. %s%s %s\n",
			marker, i+1, th.Title, HighlightStyle.Render(pin),
			DimStyle.Render(fmt.Sprintf("(%d messages)", count)))
	}
}

func (s *ChatSession) printStatus() {
	fmt.Println(SectionStyle.Render("Session"))
	if th, ok := s.Registry.ActiveThread(); ok {
		fmt.Println(RenderLabel("Thread", th.Title))
		fmt.Println(RenderLabel("Messages", strconv.Itoa(len(s.Registry.Messages(th.ID)))))
	}
	fmt.Println(RenderLabel("Questions", strconv.Itoa(s.Turns)))
	fmt.Println(RenderLabel("Uptime", time.Since(s.StartTime).Round(time.Second).String()))

	fmt.Println(SectionStyle.Render("Backend"))
	fmt.Println(RenderLabel("URL", s.Config.Advisor.BaseURL))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	report, err := s.Client.Status(ctx)
	switch {
	case err != nil:
		fmt.Println(RenderLabel("State", "unreachable"))
	case report.OK:
		fmt.Println(RenderLabel("State", "ready"))
		fmt.Println(RenderLabel("Provider", report.Provider))
		fmt.Println(RenderLabel("Model", report.Model))
	default:
		fmt.Println(RenderLabel("State", "degraded"))
		if report.Error != "" {
			fmt.Println(RenderLabel("Detail", report.Error))
		}
	}
}

func (s *ChatSession) printHistory() {
	msgs := s.Registry.ActiveMessages()
	if len(msgs) == 0 {
		fmt.Println(DimStyle.Render("No messages yet."))
		return
	}
	for _, m := range msgs {
		label := chatUserStyle.Render("You")
		if m.Role == model.RoleAssistant {
			label = chatPromptStyle.Render("Penny")
		}
		text := util.TruncateRunes(util.CollapseSpace(m.Content), 100)
		if text == "" && m.HasToolContent() {
			text = "[calculator results]"
		}
		fmt.Printf("%s: %s\n", label, text)
	}
}

func (s *ChatSession) printExitSummary() {
	fmt.Println()
	if s.Quiet {
		return
	}
	if s.Turns == 0 {
		fmt.Println(DimStyle.Render("Goodbye!"))
		return
	}
	duration := time.Since(s.StartTime).Round(time.Second)
	fmt.Println(DimStyle.Render(fmt.Sprintf(
		"%d %s in %s. Goodbye!",
		s.Turns, pluralize("question", s.Turns), duration)))
}

func pluralize(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
