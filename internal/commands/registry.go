// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system for the TUI.
package commands

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/config"
	"github.com/pennyworth/penny-tui/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents an action the user can invoke, either from the command
// palette or as a slash command typed into the chat input. Commands take no
// arguments beyond the shared Context; anything that needs more input (such
// as a rename) emits a message asking the UI to collect it.
type Command struct {
	// ID is the stable identifier (e.g., "new-thread")
	ID string

	// Title is the display name shown in the palette
	Title string

	// Hint is an optional short description shown beside the title
	Hint string

	// Slash is the primary slash form (e.g., "/new")
	Slash string

	// Aliases are alternative slash forms (e.g., "/n")
	Aliases []string

	// Action executes the command
	Action func(ctx *Context) tea.Cmd
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands. Registration order is preserved so
// the palette shows a stable list.
type Registry struct {
	order   []*Command
	byID    map[string]*Command
	bySlash map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		byID:    make(map[string]*Command),
		bySlash: make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry. Registering an ID twice replaces
// the earlier command in place, keeping its position.
func (r *Registry) Register(cmd *Command) {
	if _, exists := r.byID[cmd.ID]; exists {
		for i, c := range r.order {
			if c.ID == cmd.ID {
				r.order[i] = cmd
				break
			}
		}
	} else {
		r.order = append(r.order, cmd)
	}

	r.byID[cmd.ID] = cmd
	if cmd.Slash != "" {
		r.bySlash[cmd.Slash] = cmd
	}
	for _, alias := range cmd.Aliases {
		r.bySlash[alias] = cmd
	}
}

// Get retrieves a command by its ID.
func (r *Registry) Get(id string) *Command {
	return r.byID[id]
}

// BySlash retrieves a command by its slash form or an alias (e.g., "/new"
// or "/n"). Returns nil if no command claims the name.
func (r *Registry) BySlash(name string) *Command {
	return r.bySlash[name]
}

// All returns the registered commands in registration order.
func (r *Registry) All() []*Command {
	out := make([]*Command, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	return len(r.order)
}

// =============================================================================
// PALETTE FILTERING
// =============================================================================

// Filter returns the commands whose title or hint contains the query,
// compared case-insensitively. An empty query returns every command.
// A leading slash in the query is ignored so typed slash forms still match.
func Filter(cmds []*Command, query string) []*Command {
	query = strings.ToLower(strings.TrimSpace(query))
	query = strings.TrimPrefix(query, "/")
	if query == "" {
		out := make([]*Command, len(cmds))
		copy(out, cmds)
		return out
	}

	var out []*Command
	for _, cmd := range cmds {
		if strings.Contains(strings.ToLower(cmd.Title), query) ||
			strings.Contains(strings.ToLower(cmd.Hint), query) {
			out = append(out, cmd)
		}
	}
	return out
}

// ClampIndex clamps a selection index into [0, n-1] for a list of length n.
// Moving past either end of the list stays at that end rather than wrapping.
func ClampIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		ID:      "new-thread",
		Title:   "New thread",
		Hint:    "Start a fresh conversation",
		Slash:   "/new",
		Aliases: []string{"/n"},
		Action:  HandleNewThread,
	})

	r.Register(&Command{
		ID:     "rename-thread",
		Title:  "Rename thread",
		Hint:   "Change the title of the current conversation",
		Slash:  "/rename",
		Action: HandleRenameThread,
	})

	r.Register(&Command{
		ID:     "delete-thread",
		Title:  "Delete thread",
		Hint:   "Remove the current conversation and its messages",
		Slash:  "/delete",
		Action: HandleDeleteThread,
	})

	r.Register(&Command{
		ID:     "backend-status",
		Title:  "Backend status",
		Hint:   "Check whether the advisor backend is reachable",
		Slash:  "/status",
		Action: HandleBackendStatus,
	})

	r.Register(&Command{
		ID:     "toggle-model",
		Title:  "Toggle model",
		Hint:   "Switch between the fast and full advisor models",
		Slash:  "/model",
		Action: HandleToggleModel,
	})

	r.Register(&Command{
		ID:     "open-settings",
		Title:  "Open settings",
		Hint:   "Adjust streaming, history, and appearance",
		Slash:  "/settings",
		Action: HandleOpenSettings,
	})
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// StatusProber checks backend reachability. *advisor.Client satisfies it.
type StatusProber interface {
	Status(ctx context.Context) (advisor.StatusResponse, error)
}

// Context provides access to application state for command actions.
// It follows the dependency injection pattern, allowing actions to access
// services without direct coupling to the application structure.
//
// All fields are optional and may be nil - actions check before use.
type Context struct {
	// Config provides access to application configuration
	Config *config.Config

	// Sessions is the thread registry that owns conversations and settings
	Sessions *session.Registry

	// Advisor probes the backend for status checks
	Advisor StatusProber
}

// NewContext creates a new command context with the given dependencies.
// All parameters are optional and can be nil.
func NewContext(cfg *config.Config, sessions *session.Registry, adv StatusProber) *Context {
	return &Context{
		Config:   cfg,
		Sessions: sessions,
		Advisor:  adv,
	}
}

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Display text (may include formatting)
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int
}
