// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"github.com/pennyworth/penny-tui/internal/tools"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies the author of a message. Conversations hold only user and
// assistant turns; system prompts live server-side.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one a thread may contain.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single conversation turn. Content accumulates during
// streaming; ToolResults and ToolMissing ride on assistant messages produced
// by a tools event. TS is milliseconds since the epoch.
type Message struct {
	Role        Role             `json:"role"`
	Content     string           `json:"content"`
	ToolResults *tools.ResultSet `json:"toolResults,omitempty"`
	ToolMissing []string         `json:"toolMissing,omitempty"`
	TS          int64            `json:"ts"`
}

// NewUserMessage creates a user turn stamped now.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, TS: NowMillis()}
}

// NewAssistantMessage creates an assistant turn stamped now. Streaming starts
// from an empty content and appends.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, TS: NowMillis()}
}

// NewToolMessage creates the assistant turn that carries tool output: empty
// content with the results and any missing input names attached.
func NewToolMessage(results *tools.ResultSet, missing []string) Message {
	return Message{
		Role:        RoleAssistant,
		ToolResults: results,
		ToolMissing: missing,
		TS:          NowMillis(),
	}
}

// AppendContent adds a streamed chunk to the message body.
func (m *Message) AppendContent(chunk string) {
	m.Content += chunk
}

// MergeToolResults folds recomputed tool payloads into the message. This is
// the one sanctioned mutation of a completed assistant turn: editing
// calculator assumptions reruns the tool and updates the attached values.
func (m *Message) MergeToolResults(updated *tools.ResultSet) {
	if updated == nil {
		return
	}
	if m.ToolResults == nil {
		m.ToolResults = tools.NewResultSet()
	}
	m.ToolResults.Merge(updated)
}

// HasToolContent reports whether the message carries tool results or a
// missing-inputs banner.
func (m *Message) HasToolContent() bool {
	return (m.ToolResults != nil && !m.ToolResults.IsEmpty()) || len(m.ToolMissing) > 0
}

// IsEmptyPlaceholder reports whether this is a streaming placeholder that
// never received content. The single-shot fallback fills such a message
// instead of appending a new one.
func (m *Message) IsEmptyPlaceholder() bool {
	return m.Role == RoleAssistant && m.Content == "" && !m.HasToolContent()
}
