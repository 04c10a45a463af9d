// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/model"
)

// streamErrorText replaces an error event that arrived without a message.
const streamErrorText = "Something went wrong while answering. Please try again."

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler folds advisor stream events into one thread's message list. It is
// bound to the thread id captured when the send began, so a reply keeps
// landing on its originating thread even if the user switches threads while
// tokens are still arriving. Mutations against a thread deleted mid-stream
// become no-ops.
type Assembler struct {
	registry   *Registry
	threadID   string
	onMutation func()
	done       bool
}

// NewAssembler binds a stream consumer to a thread.
func NewAssembler(registry *Registry, threadID string) *Assembler {
	return &Assembler{registry: registry, threadID: threadID}
}

// SetMutationCallback installs fn, invoked after each applied event.
func (a *Assembler) SetMutationCallback(fn func()) {
	a.onMutation = fn
}

// Run consumes events until a done event arrives or the channel closes.
func (a *Assembler) Run(events <-chan advisor.Event) {
	for ev := range events {
		if !a.Apply(ev) {
			return
		}
	}
}

// Apply folds one event into the thread and reports whether consumption
// should continue. Event kinds it does not recognize are skipped without
// aborting the stream.
func (a *Assembler) Apply(ev advisor.Event) bool {
	if a.done {
		return false
	}

	switch ev.Type {
	case advisor.EventTools:
		// The backend leads every stream with a tools frame, so the
		// controller's placeholder absorbs the payload rather than leaving
		// a blank bubble behind it.
		a.registry.AttachToolsToLastAssistant(a.threadID, ev.Results, ev.Missing)
	case advisor.EventToken:
		a.registry.AppendToLastAssistant(a.threadID, ev.Content)
	case advisor.EventMessage:
		a.registry.AppendMessage(a.threadID, model.NewAssistantMessage(ev.Content))
	case advisor.EventError:
		text := strings.TrimSpace(ev.Message)
		if text == "" {
			text = streamErrorText
		}
		a.registry.AppendMessage(a.threadID, model.NewAssistantMessage(text))
	case advisor.EventDone:
		a.done = true
		return false
	default:
		return true
	}

	if a.onMutation != nil {
		a.onMutation()
	}
	return true
}
