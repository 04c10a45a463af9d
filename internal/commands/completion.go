// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system for the TUI.
package commands

import (
	"sort"
	"strings"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completer handles tab completion for slash commands in the chat input.
// Commands take no arguments, so completion only ever suggests command
// names and aliases.
type Completer struct {
	registry *Registry
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{
		registry: registry,
	}
}

// Complete returns completions for the given input at the cursor position.
func (c *Completer) Complete(input string, cursorPos int) []Completion {
	// If cursor is not at end, use the portion up to cursor
	if cursorPos < len(input) {
		input = input[:cursorPos]
	}

	input = strings.TrimSpace(input)

	// Only slash commands are completable
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := splitCommandLine(input)
	if len(parts) == 0 {
		return c.completeCommands("")
	}

	// Still typing the command name?
	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		return c.completeCommands(parts[0])
	}

	// Past the command name - nothing left to complete
	return nil
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

// completeCommands returns completions for command names.
func (c *Completer) completeCommands(partial string) []Completion {
	if c.registry == nil {
		return nil
	}

	var completions []Completion

	partial = strings.ToLower(partial)

	for _, cmd := range c.registry.All() {
		// Check the primary slash form
		if strings.HasPrefix(strings.ToLower(cmd.Slash), partial) {
			score := calculateScore(cmd.Slash, partial)
			completions = append(completions, Completion{
				Value:       cmd.Slash,
				Display:     cmd.Slash,
				Description: cmd.Hint,
				Score:       score,
			})
		}

		// Check aliases
		for _, alias := range cmd.Aliases {
			if strings.HasPrefix(strings.ToLower(alias), partial) {
				score := calculateScore(alias, partial)
				completions = append(completions, Completion{
					Value:       alias,
					Display:     alias + " -> " + cmd.Slash,
					Description: cmd.Hint,
					Score:       score - 10, // Slightly lower score for aliases
				})
			}
		}
	}

	sortCompletions(completions)

	return completions
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// calculateScore calculates a match score for completion ranking.
// Higher score = better match.
func calculateScore(value, partial string) int {
	value = strings.ToLower(value)
	partial = strings.ToLower(partial)

	score := 100

	// Exact match
	if value == partial {
		return score + 100
	}

	// Prefix match bonus
	if strings.HasPrefix(value, partial) {
		score += 50
		// Bonus for shorter completions
		score += 20 - len(value)
	}

	// Length penalty
	score -= len(value) / 2

	return score
}

// sortCompletions sorts completions by score (descending), then alphabetically.
func sortCompletions(completions []Completion) {
	sort.Slice(completions, func(i, j int) bool {
		if completions[i].Score != completions[j].Score {
			return completions[i].Score > completions[j].Score
		}
		return completions[i].Value < completions[j].Value
	})
}

// =============================================================================
// COMPLETION NAVIGATION
// =============================================================================

// CompletionState holds the state for navigating completions.
type CompletionState struct {
	// Original input before completion
	OriginalInput string

	// Current completions
	Completions []Completion

	// Selected index (-1 for none)
	Selected int

	// Visible indicates if completions should be shown
	Visible bool
}

// NewCompletionState creates a new completion state.
func NewCompletionState() *CompletionState {
	return &CompletionState{
		Selected: -1,
	}
}

// Update updates the completion state with new completions.
func (cs *CompletionState) Update(input string, completions []Completion) {
	cs.OriginalInput = input
	cs.Completions = completions
	cs.Selected = 0
	cs.Visible = len(completions) > 0
}

// Next moves to the next completion, wrapping at the end.
func (cs *CompletionState) Next() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected = (cs.Selected + 1) % len(cs.Completions)
}

// Prev moves to the previous completion, wrapping at the start.
func (cs *CompletionState) Prev() {
	if len(cs.Completions) == 0 {
		return
	}
	cs.Selected--
	if cs.Selected < 0 {
		cs.Selected = len(cs.Completions) - 1
	}
}

// Accept returns the selected completion value, or empty if none selected.
func (cs *CompletionState) Accept() string {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		if len(cs.Completions) > 0 {
			return cs.Completions[0].Value
		}
		return ""
	}
	return cs.Completions[cs.Selected].Value
}

// Clear clears the completion state.
func (cs *CompletionState) Clear() {
	cs.OriginalInput = ""
	cs.Completions = nil
	cs.Selected = -1
	cs.Visible = false
}

// GetSelected returns the currently selected completion, or nil.
func (cs *CompletionState) GetSelected() *Completion {
	if cs.Selected < 0 || cs.Selected >= len(cs.Completions) {
		return nil
	}
	return &cs.Completions[cs.Selected]
}
