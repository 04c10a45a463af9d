// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pennyworth/penny-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a transcript to Markdown format.
func (e *MarkdownExporter) Export(tr *Transcript) ([]byte, error) {
	// Validate transcript data
	if tr == nil {
		return nil, fmt.Errorf("transcript is nil")
	}
	if len(tr.Messages) == 0 {
		return nil, fmt.Errorf("thread has no messages")
	}
	if tr.Thread.CreatedAt == 0 {
		return nil, fmt.Errorf("thread has invalid creation timestamp")
	}

	var sb strings.Builder

	// YAML frontmatter with metadata
	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		sb.WriteString(fmt.Sprintf("title: %s\n", escapeYAML(tr.Thread.Title)))
		sb.WriteString(fmt.Sprintf("date: %s\n", formatRFC3339(tr.Thread.CreatedAt)))
		sb.WriteString(fmt.Sprintf("updated: %s\n", formatRFC3339(tr.Thread.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("messages: %d\n", len(tr.Messages)))
		if tr.Thread.Pinned {
			sb.WriteString("pinned: true\n")
		}
		sb.WriteString(fmt.Sprintf("exported: %s\n", time.Now().Format(time.RFC3339)))
		sb.WriteString("generator: penny-tui\n")
		sb.WriteString("---\n\n")
	}

	// Title
	sb.WriteString(fmt.Sprintf("# %s\n\n", escapeMarkdown(tr.Thread.Title)))

	// Metadata section
	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		sb.WriteString(fmt.Sprintf("- **Created**: %s\n", formatTimestamp(tr.Thread.CreatedAt)))
		sb.WriteString(fmt.Sprintf("- **Last Updated**: %s\n", formatTimestamp(tr.Thread.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("- **Messages**: %d\n", len(tr.Messages)))
		if tr.Thread.Pinned {
			sb.WriteString("- **Pinned**: yes\n")
		}
		sb.WriteString("\n---\n\n")
	}

	// Conversation messages
	sb.WriteString("## Conversation\n\n")

	for i, msg := range tr.Messages {
		// Role label with timestamp
		roleLabel := e.formatRoleLabel(string(msg.Role))
		if e.options.IncludeTimestamps {
			sb.WriteString(fmt.Sprintf("### %s <sub>%s</sub>\n\n",
				roleLabel,
				formatShortTimestamp(msg.TS)))
		} else {
			sb.WriteString(fmt.Sprintf("### %s\n\n", roleLabel))
		}

		// Message body. Content is already markdown from the provider; tool
		// attachments render after it.
		content := strings.TrimSpace(msg.Content)
		if content != "" {
			sb.WriteString(content)
			sb.WriteString("\n\n")
		}

		if block := e.formatToolBlock(&msg); block != "" {
			sb.WriteString(block)
		}

		if content == "" && !msg.HasToolContent() {
			sb.WriteString("*(no content)*\n\n")
		}

		// Add separator between messages (except last)
		if i < len(tr.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	// Footer
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported from penny on %s*\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

// formatRoleLabel returns a formatted label for the message role.
func (e *MarkdownExporter) formatRoleLabel(role string) string {
	// Check for empty role
	if role == "" {
		return "Unknown"
	}

	switch role {
	case "user":
		return "[You]"
	case "assistant":
		return "[Penny]"
	default:
		runes := []rune(role)
		return strings.ToUpper(string(runes[0])) + string(runes[1:])
	}
}

// formatToolBlock renders a message's calculator attachments: the result set
// as a fenced JSON block, missing inputs as a bold note.
func (e *MarkdownExporter) formatToolBlock(msg *model.Message) string {
	var sb strings.Builder

	if msg.ToolResults != nil && !msg.ToolResults.IsEmpty() {
		data, err := json.MarshalIndent(msg.ToolResults, "", "  ")
		if err == nil {
			sb.WriteString(fmt.Sprintf("**Calculator results** (%s):\n\n",
				strings.Join(msg.ToolResults.Names(), ", ")))
			sb.WriteString("```json\n")
			sb.Write(data)
			sb.WriteString("\n```\n\n")
		}
	}

	if len(msg.ToolMissing) > 0 {
		sb.WriteString(fmt.Sprintf("**Missing inputs**: %s\n\n",
			strings.Join(msg.ToolMissing, ", ")))
	}

	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes special Markdown characters in plain text.
func escapeMarkdown(s string) string {
	// Only escape characters that would break formatting in titles/headings
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML escapes special YAML characters in values.
func escapeYAML(s string) string {
	// Quote if contains special characters (including backslash)
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		// Escape special characters including newlines and backslashes
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
