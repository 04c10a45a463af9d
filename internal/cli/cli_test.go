// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/pennyworth/penny-tui/internal/ledger"
)

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_Integration(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	tests := []struct {
		name     string
		args     []string
		wantCmd  Command
		validate func(t *testing.T, args Args)
	}{
		{
			name:    "no arguments starts TUI",
			args:    []string{"penny"},
			wantCmd: CmdTUI,
		},
		{
			name:    "ask with question",
			args:    []string{"penny", "ask", "where", "did", "my", "money", "go"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Query != "where did my money go" {
					t.Errorf("Query = %q, want %q", args.Query, "where did my money go")
				}
			},
		},
		{
			name:    "ask with model flag",
			args:    []string{"penny", "ask", "-m", "gpt-4o", "question"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Model != "gpt-4o" {
					t.Errorf("Model = %q, want %q", args.Model, "gpt-4o")
				}
				if args.Query != "question" {
					t.Errorf("Query = %q, want %q", args.Query, "question")
				}
			},
		},
		{
			name:    "ask with equals-form model flag",
			args:    []string{"penny", "ask", "--model=gpt-4o-mini", "question"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if args.Model != "gpt-4o-mini" {
					t.Errorf("Model = %q, want %q", args.Model, "gpt-4o-mini")
				}
			},
		},
		{
			name:    "ask with no-analytics flag",
			args:    []string{"penny", "ask", "--no-analytics", "general", "question"},
			wantCmd: CmdAsk,
			validate: func(t *testing.T, args Args) {
				if !args.NoAnalytics {
					t.Error("NoAnalytics = false, want true")
				}
			},
		},
		{
			name:    "global json flag before command",
			args:    []string{"penny", "--json", "status"},
			wantCmd: CmdStatus,
			validate: func(t *testing.T, args Args) {
				if !args.JSON {
					t.Error("JSON = false, want true")
				}
			},
		},
		{
			name:    "status alias",
			args:    []string{"penny", "s"},
			wantCmd: CmdStatus,
		},
		{
			name:    "serve with port flag",
			args:    []string{"penny", "serve", "--port", "9000"},
			wantCmd: CmdServe,
			validate: func(t *testing.T, args Args) {
				if args.Port != 9000 {
					t.Errorf("Port = %d, want 9000", args.Port)
				}
			},
		},
		{
			name:    "serve alias with short port flag",
			args:    []string{"penny", "server", "-p", "9000"},
			wantCmd: CmdServe,
			validate: func(t *testing.T, args Args) {
				if args.Port != 9000 {
					t.Errorf("Port = %d, want 9000", args.Port)
				}
			},
		},
		{
			name:    "import with source flag",
			args:    []string{"penny", "import", "checking.csv", "--source", "chase"},
			wantCmd: CmdImport,
			validate: func(t *testing.T, args Args) {
				if args.File != "checking.csv" {
					t.Errorf("File = %q, want %q", args.File, "checking.csv")
				}
				if args.Source != "chase" {
					t.Errorf("Source = %q, want %q", args.Source, "chase")
				}
			},
		},
		{
			name:    "export list subcommand",
			args:    []string{"penny", "export", "list"},
			wantCmd: CmdExport,
			validate: func(t *testing.T, args Args) {
				if args.Subcommand != "list" {
					t.Errorf("Subcommand = %q, want %q", args.Subcommand, "list")
				}
			},
		},
		{
			name:    "export with thread and format",
			args:    []string{"penny", "export", "2", "--format", "json", "--out", "/tmp"},
			wantCmd: CmdExport,
			validate: func(t *testing.T, args Args) {
				if args.ThreadID != "2" {
					t.Errorf("ThreadID = %q, want %q", args.ThreadID, "2")
				}
				if args.Format != "json" {
					t.Errorf("Format = %q, want %q", args.Format, "json")
				}
				if args.Output != "/tmp" {
					t.Errorf("Output = %q, want %q", args.Output, "/tmp")
				}
			},
		},
		{
			name:    "config set with dotted key",
			args:    []string{"penny", "config", "set", "llm.model", "gpt-4o"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, args Args) {
				if args.Subcommand != "set" {
					t.Errorf("Subcommand = %q, want %q", args.Subcommand, "set")
				}
				if args.ConfigKey != "llm.model" {
					t.Errorf("ConfigKey = %q, want %q", args.ConfigKey, "llm.model")
				}
				if args.ConfigVal != "gpt-4o" {
					t.Errorf("ConfigVal = %q, want %q", args.ConfigVal, "gpt-4o")
				}
			},
		},
		{
			name:    "config set joins multi-word values",
			args:    []string{"penny", "config", "set", "ui.theme", "dark", "mode"},
			wantCmd: CmdConfig,
			validate: func(t *testing.T, args Args) {
				if args.ConfigVal != "dark mode" {
					t.Errorf("ConfigVal = %q, want %q", args.ConfigVal, "dark mode")
				}
			},
		},
		{
			name:    "version command",
			args:    []string{"penny", "version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "version long flag",
			args:    []string{"penny", "--version"},
			wantCmd: CmdVersion,
		},
		{
			name:    "help flag",
			args:    []string{"penny", "-h"},
			wantCmd: CmdHelp,
		},
		{
			name:    "doctor command",
			args:    []string{"penny", "doctor"},
			wantCmd: CmdDoctor,
		},
		{
			name:    "chat alias",
			args:    []string{"penny", "repl"},
			wantCmd: CmdChat,
		},
		{
			name:    "quiet global flag with chat",
			args:    []string{"penny", "-q", "chat"},
			wantCmd: CmdChat,
			validate: func(t *testing.T, args Args) {
				if !args.Quiet {
					t.Error("Quiet = false, want true")
				}
			},
		},
		{
			name:    "unknown word falls back to TUI",
			args:    []string{"penny", "budget"},
			wantCmd: CmdTUI,
			validate: func(t *testing.T, args Args) {
				if len(args.Raw) != 1 || args.Raw[0] != "budget" {
					t.Errorf("Raw = %v, want [budget]", args.Raw)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cmd, args := Parse()
			if cmd != tt.wantCmd {
				t.Errorf("Parse() cmd = %v, want %v", cmd, tt.wantCmd)
			}
			if tt.validate != nil {
				tt.validate(t, args)
			}
		})
	}
}

func TestParseGlobalFlags_OrderPreserved(t *testing.T) {
	remaining, parsed := parseGlobalFlags([]string{"ask", "--json", "first", "second"})
	if !parsed.JSON {
		t.Error("JSON = false, want true")
	}
	want := []string{"ask", "first", "second"}
	if len(remaining) != len(want) {
		t.Fatalf("remaining = %v, want %v", remaining, want)
	}
	for i := range want {
		if remaining[i] != want[i] {
			t.Errorf("remaining[%d] = %q, want %q", i, remaining[i], want[i])
		}
	}
}

func TestParseServeArgs_IgnoresBadPort(t *testing.T) {
	var parsed Args
	parseServeArgs([]string{"--port", "not-a-number"}, &parsed)
	if parsed.Port != 0 {
		t.Errorf("Port = %d, want 0", parsed.Port)
	}
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"validation error", NewValidationError("format", "xml", "unsupported", ""), ExitUsageError},
		{"not found error", NewNotFoundError("thread", "abc123"), ExitNotFoundError},
		{"wrapped validation error", WrapError(NewValidationError("key", "", "bad", ""), "config set"), ExitUsageError},
		{"connection refused", errors.New("dial tcp 127.0.0.1:8787: connection refused"), ExitNetworkError},
		{"no such host", errors.New("lookup nowhere: no such host"), ExitNetworkError},
		{"timeout", errors.New("request timed out after 60s"), ExitTimeoutError},
		{"deadline exceeded", errors.New("context deadline exceeded"), ExitTimeoutError},
		{"config problem", errors.New("invalid config: bad address"), ExitConfigError},
		{"plain error", errors.New("something broke"), ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	inner := errors.New("disk full")
	err := NewCommandError("import", "write", "could not persist batch", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find the wrapped error")
	}
	if !strings.Contains(err.Error(), "import write failed") {
		t.Errorf("Error() = %q, missing command context", err.Error())
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("Error() = %q, missing cause", err.Error())
	}
}

func TestValidationError_IncludesExample(t *testing.T) {
	err := NewValidationError("thread", "99", "no such thread number", "/switch 2")
	msg := err.Error()
	if !strings.Contains(msg, "thread") || !strings.Contains(msg, "99") {
		t.Errorf("Error() = %q, missing field or value", msg)
	}
	if !strings.Contains(msg, "/switch 2") {
		t.Errorf("Error() = %q, missing example", msg)
	}
}

func TestErrUnsupportedFormat(t *testing.T) {
	err := ErrUnsupportedFormat("xml", []string{"markdown", "json"})
	if !IsValidationError(err) {
		t.Fatal("expected a validation error")
	}
	if !strings.Contains(err.Error(), "markdown, json") {
		t.Errorf("Error() = %q, missing supported list", err.Error())
	}
}

func TestWrapError_NilPassthrough(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

// =============================================================================
// TERMINAL TESTS
// =============================================================================

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		check func(t *testing.T, got string)
	}{
		{
			name:  "short text unchanged",
			text:  "hello world",
			width: 80,
			check: func(t *testing.T, got string) {
				if got != "hello world" {
					t.Errorf("got %q, want %q", got, "hello world")
				}
			},
		},
		{
			name:  "wraps at width",
			text:  "one two three four five six seven eight nine ten",
			width: 20,
			check: func(t *testing.T, got string) {
				for _, line := range strings.Split(got, "\n") {
					if len(line) > 18 {
						t.Errorf("line %q exceeds limit", line)
					}
				}
			},
		},
		{
			name:  "preserves existing newlines",
			text:  "first paragraph\n\nsecond paragraph",
			width: 80,
			check: func(t *testing.T, got string) {
				if strings.Count(got, "\n") != 2 {
					t.Errorf("got %q, want two newlines preserved", got)
				}
			},
		},
		{
			name:  "zero width uses default",
			text:  "hello",
			width: 0,
			check: func(t *testing.T, got string) {
				if got != "hello" {
					t.Errorf("got %q, want %q", got, "hello")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, WrapText(tt.text, tt.width))
		})
	}
}

func TestRenderStatus(t *testing.T) {
	ForceColorsEnabled(false)

	tests := []struct {
		status string
		want   string
	}{
		{"ok", "[OK]"},
		{"pass", "[OK]"},
		{"healthy", "[OK]"},
		{"fail", "[FAIL]"},
		{"error", "[FAIL]"},
		{"warn", "[WARN]"},
		{"degraded", "[WARN]"},
		{"pending", "[PENDING]"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := RenderStatus(tt.status)
			if !strings.Contains(got, tt.want) {
				t.Errorf("RenderStatus(%q) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

// =============================================================================
// HELPER TESTS
// =============================================================================

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		exact bool
	}{
		{"empty", "", "(not set)", true},
		{"short", "abc", "****", true},
		{"boundary", "12345678", "****", true},
		{"long keeps edges", "sk-proj-1234567890", "sk-p...7890", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskSecret(tt.in)
			if got != tt.want {
				t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(tt.in) > 8 && strings.Contains(got, tt.in[4:len(tt.in)-4]) {
				t.Error("mask leaked the middle of the secret")
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPortFromAddress(t *testing.T) {
	tests := []struct {
		addr string
		want int
	}{
		{"127.0.0.1:8787", 8787},
		{"localhost:9000", 9000},
		{"not-an-address", 8787},
		{"127.0.0.1:0", 8787},
		{"127.0.0.1:99999", 8787},
		{"", 8787},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			if got := portFromAddress(tt.addr); got != tt.want {
				t.Errorf("portFromAddress(%q) = %d, want %d", tt.addr, got, tt.want)
			}
		})
	}
}

func TestPluralize(t *testing.T) {
	if got := pluralize("question", 1); got != "question" {
		t.Errorf("pluralize(question, 1) = %q", got)
	}
	if got := pluralize("question", 3); got != "questions" {
		t.Errorf("pluralize(question, 3) = %q", got)
	}
}

// =============================================================================
// PROFILE KEY TESTS
// =============================================================================

func TestValidProfileKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"profile.liquid_savings", true},
		{"profile.monthly_debt_payments", true},
		{"profile.budgets", true},
		{"profile.budget.groceries", true},
		{"profile.budget.dining out", true},
		{"profile.budget.", false},
		{"profile.net_worth", false},
		{"llm.model", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := validProfileKey(tt.key); got != tt.want {
			t.Errorf("validProfileKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestProfileValue(t *testing.T) {
	savings := 12000.0
	p := ledger.Profile{
		LiquidSavings: &savings,
		Budgets:       map[string]float64{"groceries": 450},
	}

	if got := profileValue(p, "profile.liquid_savings"); got != 12000.0 {
		t.Errorf("liquid_savings = %v, want 12000", got)
	}
	if got := profileValue(p, "profile.monthly_debt_payments"); got != nil {
		t.Errorf("unset monthly_debt_payments = %v, want nil", got)
	}
	if got := profileValue(p, "profile.budget.groceries"); got != 450.0 {
		t.Errorf("budget.groceries = %v, want 450", got)
	}
	if got := profileValue(p, "profile.budget.travel"); got != nil {
		t.Errorf("missing budget category = %v, want nil", got)
	}
}

// =============================================================================
// JSON OUTPUT TESTS
// =============================================================================

func TestJSONResponse_String(t *testing.T) {
	resp := NewJSONResponse("status", StatusData{Version: "1.2.3"})
	out := resp.String()

	if !strings.Contains(out, `"success": true`) {
		t.Errorf("envelope missing success field: %s", out)
	}
	if !strings.Contains(out, `"command": "status"`) {
		t.Errorf("envelope missing command field: %s", out)
	}
	if !strings.Contains(out, `"1.2.3"`) {
		t.Errorf("envelope missing payload: %s", out)
	}
}

func TestJSONErrorResponse_String(t *testing.T) {
	resp := NewJSONErrorResponse("import", errors.New("open statement: no such file"))
	out := resp.String()

	if !strings.Contains(out, `"success": false`) {
		t.Errorf("envelope missing failure flag: %s", out)
	}
	if !strings.Contains(out, "no such file") {
		t.Errorf("envelope missing error message: %s", out)
	}
}

// =============================================================================
// BENCHMARKS
// =============================================================================

func BenchmarkParseGlobalFlags(b *testing.B) {
	args := []string{"--json", "-q", "ask", "--model", "gpt-4o", "where", "did", "it", "go"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		parseGlobalFlags(args)
	}
}

func BenchmarkWrapText(b *testing.B) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		WrapText(text, 60)
	}
}
