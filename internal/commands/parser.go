// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system for the TUI.
package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// PARSE RESULT
// =============================================================================

// ParseResult contains the result of parsing user input.
type ParseResult struct {
	// IsCommand is true if the input starts with /
	IsCommand bool

	// Command is the matched command (nil if not found)
	Command *Command

	// CommandName is the raw slash form as typed (e.g., "/new")
	CommandName string

	// Args are the tokens after the command name. Commands take no
	// arguments themselves; the UI may use these (for example, to
	// prefill the rename prompt).
	Args []string

	// RawInput is the original input string
	RawInput string

	// RawArgs is the unparsed text after the command name
	RawArgs string
}

// =============================================================================
// PARSER
// =============================================================================

// Parser handles parsing of slash commands typed into the chat input.
type Parser struct {
	registry *Registry
}

// NewParser creates a new parser with the given registry.
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

// Parse parses user input and returns the parse result.
// Returns IsCommand=false if the input doesn't start with /
func (p *Parser) Parse(input string) ParseResult {
	input = strings.TrimSpace(input)

	result := ParseResult{
		RawInput: input,
	}

	if !strings.HasPrefix(input, "/") {
		result.IsCommand = false
		return result
	}

	result.IsCommand = true

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return result
	}

	result.CommandName = parts[0]
	if len(parts) > 1 {
		result.Args = parts[1:]
		// Reconstruct raw args
		idx := strings.Index(input, result.CommandName)
		if idx >= 0 {
			afterCmd := input[idx+len(result.CommandName):]
			result.RawArgs = strings.TrimSpace(afterCmd)
		}
	}

	result.Command = p.registry.BySlash(result.CommandName)

	return result
}

// ParseArgs parses a raw argument string into individual arguments.
// Handles quoted strings with spaces.
func ParseArgs(input string) []string {
	return splitCommandLine(input)
}

// =============================================================================
// TOKENIZATION
// =============================================================================

// splitCommandLine splits a command line into tokens, respecting quotes.
// Supports both single and double quotes for arguments with spaces.
func splitCommandLine(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingleQuote, inDoubleQuote bool

	for i := 0; i < len(input); i++ {
		char := rune(input[i])

		switch {
		case char == '\'' && !inDoubleQuote:
			// Toggle single quote mode
			inSingleQuote = !inSingleQuote

		case char == '"' && !inSingleQuote:
			// Toggle double quote mode
			inDoubleQuote = !inDoubleQuote

		case char == '\\' && i+1 < len(input) && (inDoubleQuote || inSingleQuote):
			// Escape sequence inside quotes
			next := rune(input[i+1])
			if next == '"' || next == '\'' || next == '\\' {
				current.WriteRune(next)
				i++ // Skip the next character
			} else {
				current.WriteRune(char)
			}

		case unicode.IsSpace(char) && !inSingleQuote && !inDoubleQuote:
			// Space outside quotes - end current token
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

		default:
			current.WriteRune(char)
		}
	}

	// Don't forget the last token
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// IsCommand returns true if the input appears to be a command.
func IsCommand(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// ExtractCommandName extracts just the command name from input.
// e.g., "/rename Budget review" -> "/rename"
func ExtractCommandName(input string) string {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return ""
	}

	// Find end of command name (first space or end of string)
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return input
	}
	return input[:end]
}

// GetPartialCommand returns the partial command being typed.
// Returns empty string if not in command mode.
func GetPartialCommand(input string) string {
	if !strings.HasPrefix(input, "/") {
		return ""
	}

	// Find end of command (first space)
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		// Still typing command name
		return input
	}

	// Command is complete, return empty
	return ""
}
