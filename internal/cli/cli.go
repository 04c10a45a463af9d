// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

// Command represents a parsed CLI command.
type Command int

const (
	// CmdTUI starts the full-screen chat interface (default).
	CmdTUI Command = iota
	// CmdAsk asks a single question and exits.
	CmdAsk
	// CmdChat starts the plain-terminal interactive chat.
	CmdChat
	// CmdServe runs the advisor backend.
	CmdServe
	// CmdStatus shows backend and ledger status.
	CmdStatus
	// CmdImport loads a bank statement CSV into the ledger.
	CmdImport
	// CmdExport writes a conversation transcript to a file.
	CmdExport
	// CmdConfig shows or edits configuration.
	CmdConfig
	// CmdDoctor runs environment checks.
	CmdDoctor
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage information.
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	JSON    bool   // Machine-readable output
	Quiet   bool   // Minimal output
	Verbose bool   // Debug output
	Model   string // Model override for this invocation

	// ask
	Query       string // The question text
	NoAnalytics bool   // Skip attaching the spending snapshot

	// serve
	Port int // Listen port override

	// import
	File   string // CSV path
	Source string // Statement source label

	// export
	ThreadID string // Thread to export (id or list index)
	Format   string // "markdown" or "json"
	Output   string // Destination directory

	// config
	Subcommand string
	ConfigKey  string
	ConfigVal  string

	// Raw holds arguments not consumed by flag parsing.
	Raw []string
}

// =============================================================================
// VERSION INFORMATION
// =============================================================================

// Version information, overridable at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// USAGE TEXT
// =============================================================================

const usageText = `penny - a personal finance chat for your terminal

Your bank statements stay in a local ledger. Questions go to the advisor
backend together with an anonymous spending snapshot, never the raw
transactions.

Usage:
  penny                       Start the chat TUI (default)
  penny ask "question"        Ask a single question
  penny chat                  Interactive chat in plain terminal mode
  penny serve                 Run the advisor backend
  penny status, s             Show backend and ledger status
  penny import FILE.csv       Import a bank statement into the ledger
  penny export [THREAD]       Export a conversation transcript
  penny config [SUBCOMMAND]   Show or edit configuration
  penny doctor                Run environment checks
  penny version               Print version information
  penny help                  Show this help

Ask Options:
  -m, --model NAME    Use a specific model for this question
  --no-analytics      Do not attach the spending snapshot

Chat Options:
  -m, --model NAME    Use a specific model for the session

Serve Options:
  -p, --port N        Listen port (default: 8787)

Import Options:
  --source NAME       Statement source label (default: file name)

Export Options:
  -f, --format FMT    markdown or json (default: markdown)
  -o, --out DIR       Output directory (default: current directory)

Config Subcommands:
  penny config show             Show current configuration
  penny config get KEY          Print one value
  penny config set KEY VALUE    Change a value
  penny config keys             List available keys
  penny config path             Print the config file location

  profile.* keys (liquid_savings, monthly_debt_payments, budget.CATEGORY)
  are stored with the ledger and sharpen the spending snapshot.

Global Flags:
  -q, --quiet         Minimal output
  -v, --verbose       Debug output
  --json              Machine-readable JSON output
  --model NAME        Override the configured model

Examples:
  penny                                      Start the TUI
  penny serve                                Start the backend (reads OPENAI_API_KEY)
  penny import ~/Downloads/checking.csv
  penny ask "Where did my money go last month?"
  penny ask --json "What is my savings rate?"
  penny chat --model gpt-4o
  penny export --format json --out ~/exports
  penny config set llm.model gpt-4o-mini
  penny config set profile.liquid_savings 12000

Version: %s
`

// PrintUsage prints the usage text to stdout.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version details to stdout.
func PrintVersion() {
	fmt.Printf("penny version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// Parse parses os.Args into a command and its arguments. An empty command
// line starts the TUI.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsed := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	rest := remaining[1:]

	switch cmd {
	case "tui":
		parsed.Raw = rest
		return CmdTUI, parsed

	case "ask":
		parseAskArgs(rest, &parsed)
		return CmdAsk, parsed

	case "chat", "repl":
		parseChatArgs(rest, &parsed)
		return CmdChat, parsed

	case "serve", "server":
		parseServeArgs(rest, &parsed)
		return CmdServe, parsed

	case "status", "s":
		parsed.Raw = rest
		return CmdStatus, parsed

	case "import":
		parseImportArgs(rest, &parsed)
		return CmdImport, parsed

	case "export":
		parseExportArgs(rest, &parsed)
		return CmdExport, parsed

	case "config", "cfg":
		parseConfigArgs(rest, &parsed)
		return CmdConfig, parsed

	case "doctor":
		parsed.Raw = rest
		return CmdDoctor, parsed

	case "version", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		// Unrecognized word: treat the whole line as TUI input context.
		parsed.Raw = remaining
		return CmdTUI, parsed
	}
}

// parseGlobalFlags extracts flags valid for every command, returning the
// arguments it did not consume in their original order.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-q", "--quiet":
			parsed.Quiet = true
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		case "--model":
			if i+1 < len(args) {
				parsed.Model = args[i+1]
				i++
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			} else {
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, parsed
}

func parseAskArgs(args []string, parsed *Args) {
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-m", "--model":
			if i+1 < len(args) {
				parsed.Model = args[i+1]
				i++
			}
		case "--no-analytics":
			parsed.NoAnalytics = true
		default:
			switch {
			case strings.HasPrefix(arg, "--model="):
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			case strings.HasPrefix(arg, "-m="):
				parsed.Model = strings.TrimPrefix(arg, "-m=")
			default:
				positional = append(positional, arg)
			}
		}
	}

	parsed.Query = strings.Join(positional, " ")
}

func parseChatArgs(args []string, parsed *Args) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-m", "--model":
			if i+1 < len(args) {
				parsed.Model = args[i+1]
				i++
			}
		default:
			if strings.HasPrefix(arg, "--model=") {
				parsed.Model = strings.TrimPrefix(arg, "--model=")
			}
		}
	}
}

func parseServeArgs(args []string, parsed *Args) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-p", "--port":
			if i+1 < len(args) {
				if port, err := strconv.Atoi(args[i+1]); err == nil {
					parsed.Port = port
				}
				i++
			}
		default:
			if strings.HasPrefix(arg, "--port=") {
				if port, err := strconv.Atoi(strings.TrimPrefix(arg, "--port=")); err == nil {
					parsed.Port = port
				}
			}
		}
	}
}

func parseImportArgs(args []string, parsed *Args) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--source":
			if i+1 < len(args) {
				parsed.Source = args[i+1]
				i++
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--source="):
				parsed.Source = strings.TrimPrefix(arg, "--source=")
			case parsed.File == "":
				parsed.File = arg
			}
		}
	}
}

func parseExportArgs(args []string, parsed *Args) {
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-f", "--format":
			if i+1 < len(args) {
				parsed.Format = args[i+1]
				i++
			}
		case "-o", "--out":
			if i+1 < len(args) {
				parsed.Output = args[i+1]
				i++
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--format="):
				parsed.Format = strings.TrimPrefix(arg, "--format=")
			case strings.HasPrefix(arg, "--out="):
				parsed.Output = strings.TrimPrefix(arg, "--out=")
			default:
				positional = append(positional, arg)
			}
		}
	}

	if len(positional) > 0 {
		if strings.EqualFold(positional[0], "list") {
			parsed.Subcommand = "list"
		} else {
			parsed.ThreadID = positional[0]
		}
	}
}

func parseConfigArgs(args []string, parsed *Args) {
	var positional []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
		}
	}

	if len(positional) > 0 {
		parsed.Subcommand = strings.ToLower(positional[0])
	}
	if len(positional) > 1 {
		parsed.ConfigKey = positional[1]
	}
	if len(positional) > 2 {
		parsed.ConfigVal = strings.Join(positional[2:], " ")
	}
}

// =============================================================================
// COMMAND HANDLERS
// =============================================================================

// HandleAsk runs the ask command and exits on error.
func HandleAsk(args Args) {
	if err := HandleAskCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleChat runs the interactive chat command and exits on error.
func HandleChat(args Args) {
	if err := HandleChatCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleServe runs the advisor backend and exits on error.
func HandleServe(args Args) {
	if err := HandleServeCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleStatus runs the status command and exits on error.
func HandleStatus(args Args) {
	if err := HandleStatusCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleImport runs the import command and exits on error.
func HandleImport(args Args) {
	if err := HandleImportCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleExport runs the export command and exits on error.
func HandleExport(args Args) {
	if err := HandleExportCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleConfig runs the config command and exits on error.
func HandleConfig(args Args) {
	if err := HandleConfigCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleDoctor runs the doctor command and exits on error.
func HandleDoctor(args Args) {
	if err := HandleDoctorCommand(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(GetExitCode(err))
	}
}

// HandleVersion prints version information, as JSON when requested.
func HandleVersion(args Args) {
	if args.JSON {
		data := VersionData{
			Version:   Version,
			GitCommit: GitCommit,
			BuildDate: BuildDate,
			GoVersion: runtime.Version(),
		}
		NewJSONResponse("version", data).Print()
		return
	}
	PrintVersion()
}

// HandleHelp prints usage information.
func HandleHelp() {
	PrintUsage()
}
