// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the command system for the TUI.
package commands

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/model"
)

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// ThreadCreatedMsg reports that a new thread was created and made active.
type ThreadCreatedMsg struct {
	Thread model.Thread
}

// ShowRenameMsg asks the UI to open the rename prompt for a thread.
type ShowRenameMsg struct {
	ThreadID string
	Current  string
}

// ThreadDeletedMsg reports that a thread was deleted. NextActiveID is the
// thread that became active afterwards, or empty when none remain.
type ThreadDeletedMsg struct {
	ThreadID     string
	NextActiveID string
}

// StatusCheckedMsg carries the result of a backend status probe.
type StatusCheckedMsg struct {
	Report advisor.StatusResponse
	Err    error
}

// ModelToggledMsg reports the model in effect after a toggle.
type ModelToggledMsg struct {
	Model string
}

// ShowSettingsMsg asks the UI to open the settings overlay.
type ShowSettingsMsg struct{}

// ErrorMsg reports a command failure to display to the user.
type ErrorMsg struct {
	Title   string
	Message string
	Tip     string
}

// =============================================================================
// MODEL ROTATION
// =============================================================================

// modelChoices are the models the toggle command cycles through.
var modelChoices = []string{"gpt-4o-mini", "gpt-4o"}

// nextModel returns the model that follows current in the rotation.
// An empty or unrecognized value counts as the first choice, so the
// backend default always toggles to the full model.
func nextModel(current string) string {
	for i, m := range modelChoices {
		if m == current {
			return modelChoices[(i+1)%len(modelChoices)]
		}
	}
	return modelChoices[1]
}

// =============================================================================
// COMMAND ACTIONS
// =============================================================================

// statusProbeTimeout bounds the backend status check.
const statusProbeTimeout = 5 * time.Second

// HandleNewThread creates a thread and makes it active.
func HandleNewThread(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Sessions == nil {
			return ErrorMsg{Title: "No session", Message: "the thread registry is not available"}
		}
		th := ctx.Sessions.CreateThread()
		return ThreadCreatedMsg{Thread: th}
	}
}

// HandleRenameThread opens the rename prompt for the active thread. The UI
// collects the new title and applies it through the session registry.
func HandleRenameThread(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Sessions == nil {
			return ErrorMsg{Title: "No session", Message: "the thread registry is not available"}
		}
		th, ok := ctx.Sessions.ActiveThread()
		if !ok {
			return ErrorMsg{
				Title:   "No active thread",
				Message: "there is no conversation to rename",
				Tip:     "Start one with /new",
			}
		}
		return ShowRenameMsg{ThreadID: th.ID, Current: th.Title}
	}
}

// HandleDeleteThread deletes the active thread and reports what became
// active in its place.
func HandleDeleteThread(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Sessions == nil {
			return ErrorMsg{Title: "No session", Message: "the thread registry is not available"}
		}
		id := ctx.Sessions.ActiveID()
		if id == "" {
			return ErrorMsg{
				Title:   "No active thread",
				Message: "there is no conversation to delete",
				Tip:     "Start one with /new",
			}
		}
		ctx.Sessions.DeleteThread(id)
		return ThreadDeletedMsg{ThreadID: id, NextActiveID: ctx.Sessions.ActiveID()}
	}
}

// HandleBackendStatus probes the advisor backend and reports reachability.
func HandleBackendStatus(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Advisor == nil {
			return StatusCheckedMsg{Err: errors.New("advisor client is not configured")}
		}

		reqCtx, cancel := context.WithTimeout(context.Background(), statusProbeTimeout)
		defer cancel()

		report, err := ctx.Advisor.Status(reqCtx)
		return StatusCheckedMsg{Report: report, Err: err}
	}
}

// HandleToggleModel rotates the advisor model and persists the choice in
// the session settings.
func HandleToggleModel(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		if ctx == nil || ctx.Sessions == nil {
			return ErrorMsg{Title: "No session", Message: "the thread registry is not available"}
		}
		st := ctx.Sessions.UpdateSettings(func(s *model.Settings) {
			s.LLMModel = nextModel(s.LLMModel)
		})
		return ModelToggledMsg{Model: st.LLMModel}
	}
}

// HandleOpenSettings opens the settings overlay.
func HandleOpenSettings(ctx *Context) tea.Cmd {
	return func() tea.Msg {
		return ShowSettingsMsg{}
	}
}
