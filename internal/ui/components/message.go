// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the penny TUI.
package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders a single conversation turn. User turns are
// right-aligned bubbles; assistant turns are left-aligned markdown under an
// accent rail, with calculator cards below when the turn carries tool output.
type MessageBubble struct {
	Message       model.Message
	Width         int
	IsLatest      bool
	ShowTimestamp bool
	Streaming     bool
	ToolExpanded  bool

	theme    *styles.Theme
	markdown *glamour.TermRenderer
}

// NewMessageBubble creates a new MessageBubble.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		theme:         theme,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// SetMarkdown sets the renderer used for completed assistant bodies.
// Streaming bodies render as plain wrapped text until the stream finishes,
// since partial markdown reflows badly.
func (b *MessageBubble) SetMarkdown(r *glamour.TermRenderer) {
	b.markdown = r
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUserBubble()
	case model.RoleAssistant:
		return b.renderAssistantBubble()
	default:
		return b.renderGenericBubble()
	}
}

// ==========================================================================
// USER BUBBLE - right-aligned
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}

	// Word wrap the content
	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	// Size the bubble to its longest line
	contentWidth := minInt(maxLineWidth(wrappedContent)+4, b.Width-8)

	bubble := b.theme.UserBubble.MarginLeft(0).Width(contentWidth).Render(wrappedContent)

	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	header := roleStyle.Render("you")

	if b.ShowTimestamp {
		if ts := b.renderTimestamp(); ts != "" {
			header += " " + ts
		}
	}

	// Right-align the bubble with a computed left margin
	leftMargin := b.Width - lipgloss.Width(bubble) - 2
	if leftMargin < 0 {
		leftMargin = 0
	}
	marginStyle := lipgloss.NewStyle().MarginLeft(leftMargin)

	return lipgloss.JoinVertical(lipgloss.Right,
		marginStyle.Render(header),
		marginStyle.Render(bubble),
	)
}

// ==========================================================================
// ASSISTANT BUBBLE - markdown under an accent rail, left-aligned
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	content := b.Message.Content

	var body string
	switch {
	case b.Streaming:
		// Plain text plus cursor while chunks arrive
		if content == "" {
			body = b.theme.StreamCursor.Render("_")
		} else {
			maxContentWidth := b.Width - 12
			if maxContentWidth < 20 {
				maxContentWidth = 20
			}
			body = wordWrap(content, maxContentWidth) + b.theme.StreamCursor.Render("_")
		}

	case content != "":
		body = b.renderMarkdownBody(content)
	}

	roleStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true)
	header := roleStyle.Render("penny")

	if b.ShowTimestamp {
		if ts := b.renderTimestamp(); ts != "" {
			header += " " + ts
		}
	}

	parts := []string{header}
	if body != "" {
		parts = append(parts, b.theme.AssistantBody.Render(body))
	}

	// Calculator cards ride below the prose
	if b.Message.HasToolContent() {
		card := NewToolResultCard(b.theme)
		card.SetResults(b.Message.ToolResults, b.Message.ToolMissing)
		card.SetWidth(b.Width)
		card.SetExpanded(b.ToolExpanded)
		parts = append(parts, card.View())
	} else if body == "" {
		parts = append(parts, b.theme.AssistantBody.Render("..."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderMarkdownBody renders a completed assistant body through glamour,
// falling back to word-wrapped plain text.
func (b *MessageBubble) renderMarkdownBody(content string) string {
	if b.markdown != nil {
		if rendered, err := b.markdown.Render(content); err == nil {
			return strings.TrimRight(rendered, "\n")
		}
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	return wordWrap(content, maxContentWidth)
}

// ==========================================================================
// GENERIC BUBBLE - fallback for unknown roles
// ==========================================================================

func (b *MessageBubble) renderGenericBubble() string {
	content := b.Message.Content
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 10
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrappedContent := wordWrap(content, maxContentWidth)

	bubbleStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 2)

	return bubbleStyle.Render(wrappedContent)
}

// ==========================================================================
// HELPER METHODS
// ==========================================================================

// renderTimestamp renders a dimmed timestamp from the message's epoch millis.
func (b *MessageBubble) renderTimestamp() string {
	if b.Message.TS == 0 {
		return ""
	}

	ts := time.UnixMilli(b.Message.TS)
	now := time.Now()

	var formatted string
	if ts.Year() == now.Year() && ts.YearDay() == now.YearDay() {
		formatted = formatClock(ts)
	} else {
		formatted = formatDate(ts) + ", " + formatClock(ts)
	}

	return b.theme.MessageTime.Italic(true).Render(formatted)
}

// ==========================================================================
// UTILITY FUNCTIONS
// ==========================================================================

// wordWrap wraps text to fit within the specified width.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	lines := strings.Split(text, "\n")

	for lineIdx, line := range lines {
		if lineIdx > 0 {
			result.WriteString("\n")
		}

		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}

		currentLine := words[0]

		for _, word := range words[1:] {
			if runeLen(currentLine)+1+runeLen(word) <= width {
				currentLine += " " + word
			} else {
				result.WriteString(currentLine)
				result.WriteString("\n")
				currentLine = word
			}
		}

		result.WriteString(currentLine)
	}

	return result.String()
}

// maxLineWidth returns the width of the longest line in runes.
func maxLineWidth(text string) int {
	maxWidth := 0
	for _, line := range strings.Split(text, "\n") {
		lineWidth := runeLen(line)
		if lineWidth > maxWidth {
			maxWidth = lineWidth
		}
	}
	return maxWidth
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// runeLen returns the number of runes in a string.
func runeLen(s string) int {
	return len([]rune(s))
}

// formatClock formats a time as "3:04 PM".
func formatClock(t time.Time) string {
	hour := t.Hour()
	minute := t.Minute()
	ampm := "AM"

	if hour >= 12 {
		ampm = "PM"
		if hour > 12 {
			hour -= 12
		}
	}
	if hour == 0 {
		hour = 12
	}

	minuteStr := strconv.Itoa(minute)
	if minute < 10 {
		minuteStr = "0" + minuteStr
	}

	return strconv.Itoa(hour) + ":" + minuteStr + " " + ampm
}

// formatDate formats a date as "Jan 5".
func formatDate(t time.Time) string {
	months := []string{
		"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
	}

	return months[t.Month()-1] + " " + strconv.Itoa(t.Day())
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders a thread's messages in order.
type MessageList struct {
	Messages       []model.Message
	Width          int
	ShowTimestamps bool

	// Index of the message currently streaming, or -1
	StreamingIndex int

	// Per-message tool card expansion
	expandedTools map[int]bool

	theme    *styles.Theme
	markdown *glamour.TermRenderer
}

// NewMessageList creates a new MessageList.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:          80,
		ShowTimestamps: true,
		StreamingIndex: -1,
		expandedTools:  make(map[int]bool),
		theme:          theme,
	}
}

// SetMessages sets the messages to display.
func (ml *MessageList) SetMessages(messages []model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width.
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// SetMarkdown sets the markdown renderer shared by all assistant bubbles.
func (ml *MessageList) SetMarkdown(r *glamour.TermRenderer) {
	ml.markdown = r
}

// ToggleToolCard flips the expansion of the tool card on message i.
func (ml *MessageList) ToggleToolCard(i int) {
	ml.expandedTools[i] = !ml.expandedTools[i]
}

// View renders all messages.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0)

		return emptyStyle.Render("No messages yet. Ask penny about your money.")
	}

	var bubbles []string

	for i, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme)
		bubble.SetWidth(ml.Width)
		bubble.SetMarkdown(ml.markdown)
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.IsLatest = i == len(ml.Messages)-1
		bubble.Streaming = i == ml.StreamingIndex
		bubble.ToolExpanded = ml.expandedTools[i]

		bubbles = append(bubbles, bubble.View())
	}

	return strings.Join(bubbles, "\n\n")
}
