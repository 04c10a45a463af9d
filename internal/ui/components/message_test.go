// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/ui/styles"
)

func TestMessageBubbleUser(t *testing.T) {
	msg := model.Message{
		Role:    model.RoleUser,
		Content: "Can I afford a $400k house?",
		TS:      time.Now().UnixMilli(),
	}

	b := NewMessageBubble(msg, styles.NewTheme())
	b.SetWidth(80)
	view := b.View()

	if !strings.Contains(view, "you") {
		t.Error("user bubble should carry the speaker label")
	}
	if !strings.Contains(view, "Can I afford a $400k house?") {
		t.Errorf("user bubble should contain the message, got:\n%s", view)
	}
}

func TestMessageBubbleAssistant(t *testing.T) {
	msg := model.Message{
		Role:    model.RoleAssistant,
		Content: "A $400k house is within reach if your income supports it.",
		TS:      time.Now().UnixMilli(),
	}

	b := NewMessageBubble(msg, styles.NewTheme())
	b.SetWidth(80)
	view := b.View()

	if !strings.Contains(view, "penny") {
		t.Error("assistant bubble should carry the penny label")
	}
	if !strings.Contains(view, "within reach") {
		t.Errorf("assistant bubble should contain the reply, got:\n%s", view)
	}
}

func TestMessageBubbleStreaming(t *testing.T) {
	msg := model.Message{
		Role:    model.RoleAssistant,
		Content: "Let me run the numbers",
	}

	b := NewMessageBubble(msg, styles.NewTheme())
	b.SetWidth(80)
	b.Streaming = true
	view := b.View()

	if !strings.Contains(view, "Let me run the numbers") {
		t.Error("streaming bubble should show the partial content")
	}
	if !strings.Contains(view, "_") {
		t.Error("streaming bubble should show the cursor")
	}
}

func TestMessageBubbleStreamingEmpty(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant}

	b := NewMessageBubble(msg, styles.NewTheme())
	b.Streaming = true
	view := b.View()

	if !strings.Contains(view, "_") {
		t.Error("empty streaming bubble should still render the cursor")
	}
}

func TestMessageBubbleEmptyAssistantPlaceholder(t *testing.T) {
	msg := model.Message{Role: model.RoleAssistant}

	b := NewMessageBubble(msg, styles.NewTheme())
	view := b.View()

	if !strings.Contains(view, "...") {
		t.Error("empty assistant turn should render a placeholder")
	}
}

func TestMessageBubbleToolResults(t *testing.T) {
	msg := model.Message{
		Role:        model.RoleAssistant,
		Content:     "Here is the payment breakdown.",
		ToolResults: sampleMortgage(),
		TS:          time.Now().UnixMilli(),
	}

	b := NewMessageBubble(msg, styles.NewTheme())
	b.SetWidth(90)
	view := b.View()

	if !strings.Contains(view, "Mortgage payment") {
		t.Error("bubble should render the tool card under the reply")
	}
	if !strings.Contains(view, "/mo PITI") {
		t.Error("bubble should show the collapsed card headline")
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{
			name:  "short line unchanged",
			text:  "hello world",
			width: 40,
			want:  []string{"hello world"},
		},
		{
			name:  "wraps at width",
			text:  "one two three four five",
			width: 9,
			want:  []string{"one two", "three", "four five"},
		},
		{
			name:  "preserves explicit newlines",
			text:  "first\nsecond",
			width: 40,
			want:  []string{"first", "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wordWrap(tt.text, tt.width)
			if got != strings.Join(tt.want, "\n") {
				t.Errorf("wordWrap(%q, %d) = %q, want %q",
					tt.text, tt.width, got, strings.Join(tt.want, "\n"))
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		want string
	}{
		{"morning", 9, 5, "9:05 AM"},
		{"noon", 12, 0, "12:00 PM"},
		{"afternoon", 15, 30, "3:30 PM"},
		{"midnight", 0, 45, "12:45 AM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := time.Date(2025, 3, 10, tt.hour, tt.min, 0, 0, time.Local)
			if got := formatClock(ts); got != tt.want {
				t.Errorf("formatClock = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageListEmpty(t *testing.T) {
	ml := NewMessageList(styles.NewTheme())
	ml.SetWidth(80)

	view := ml.View()
	if !strings.Contains(view, "No messages yet") {
		t.Errorf("empty list should show the empty state, got:\n%s", view)
	}
}

func TestMessageListRendersConversation(t *testing.T) {
	ml := NewMessageList(styles.NewTheme())
	ml.SetWidth(80)
	ml.SetMessages([]model.Message{
		{Role: model.RoleUser, Content: "What rate should I expect?"},
		{Role: model.RoleAssistant, Content: "Around 6.5% for a 30 year fixed."},
	})

	view := ml.View()
	if !strings.Contains(view, "What rate should I expect?") {
		t.Error("list should render the user turn")
	}
	if !strings.Contains(view, "6.5%") {
		t.Error("list should render the assistant turn")
	}
}

func TestMessageListStreamingIndex(t *testing.T) {
	ml := NewMessageList(styles.NewTheme())
	ml.SetWidth(80)
	ml.SetMessages([]model.Message{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "thinking it through"},
	})
	ml.StreamingIndex = 1

	view := ml.View()
	if !strings.Contains(view, "_") {
		t.Error("the streaming turn should render its cursor")
	}
}
