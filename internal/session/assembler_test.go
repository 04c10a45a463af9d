// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/model"
	"github.com/pennyworth/penny-tui/internal/store"
	"github.com/pennyworth/penny-tui/internal/tools"
)

func newAssemblerFixture(t *testing.T) (*Registry, *Assembler, string) {
	t.Helper()
	reg := NewRegistry(store.NewMemStore())
	created := reg.CreateThread()
	return reg, NewAssembler(reg, created.ID), created.ID
}

func assistantMessages(msgs []model.Message) []model.Message {
	var out []model.Message
	for _, m := range msgs {
		if m.Role == model.RoleAssistant {
			out = append(out, m)
		}
	}
	return out
}

// =============================================================================
// EVENT APPLICATION
// =============================================================================

func TestAssemblerTokenSequenceBuildsOneMessage(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)
	reg.AppendMessage(id, model.NewUserMessage("hi"))

	events := make(chan advisor.Event, 3)
	events <- advisor.Event{Type: advisor.EventToken, Content: "Hel"}
	events <- advisor.Event{Type: advisor.EventToken, Content: "lo"}
	events <- advisor.Event{Type: advisor.EventDone}
	close(events)

	asm.Run(events)

	replies := assistantMessages(reg.Messages(id))
	if len(replies) != 1 {
		t.Fatalf("assistant message count = %d, want 1", len(replies))
	}
	if replies[0].Content != "Hello" {
		t.Errorf("content = %q, want Hello", replies[0].Content)
	}
}

func TestAssemblerToolsEventAttachesPayload(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)

	rs := tools.NewResultSet()
	rs.Mortgage = &tools.MortgagePaymentResult{MonthlyPI: 2022.62, MonthlyPITI: 2500.12}
	asm.Apply(advisor.Event{Type: advisor.EventTools, Results: rs, Missing: []string{"annual_rate"}})

	msgs := reg.Messages(id)
	if len(msgs) != 1 {
		t.Fatalf("message count = %d, want 1", len(msgs))
	}
	got := msgs[0]
	if got.Role != model.RoleAssistant || got.Content != "" {
		t.Errorf("tool message shape = %+v", got)
	}
	if !got.HasToolContent() || got.ToolResults.Mortgage == nil {
		t.Fatalf("tool payload missing: %+v", got.ToolResults)
	}
	if len(got.ToolMissing) != 1 || got.ToolMissing[0] != "annual_rate" {
		t.Errorf("missing inputs = %v", got.ToolMissing)
	}
}

func TestAssemblerToolsLandOnStreamingPlaceholder(t *testing.T) {
	// The streaming send path appends an empty placeholder before the stream
	// opens, and the backend leads every stream with a tools frame. The
	// placeholder takes the payload, and the tokens that follow extend the
	// same message, so the turn ends as one assistant reply with no blank
	// bubble left behind.
	reg, asm, id := newAssemblerFixture(t)
	reg.AppendMessage(id, model.NewUserMessage("can I afford it?"))
	reg.AppendMessage(id, model.NewAssistantMessage(""))

	rs := tools.NewResultSet()
	rs.Affordability = &tools.AffordabilityResult{MaxPrice: 400000}

	events := make(chan advisor.Event, 4)
	events <- advisor.Event{Type: advisor.EventTools, Results: rs}
	events <- advisor.Event{Type: advisor.EventToken, Content: "Hel"}
	events <- advisor.Event{Type: advisor.EventToken, Content: "lo"}
	events <- advisor.Event{Type: advisor.EventDone}
	close(events)

	asm.Run(events)

	msgs := reg.Messages(id)
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2: %+v", len(msgs), msgs)
	}
	reply := msgs[1]
	if reply.Content != "Hello" || !reply.HasToolContent() {
		t.Errorf("reply = %+v", reply)
	}
	if reply.ToolResults.Affordability == nil || reply.ToolResults.Affordability.MaxPrice != 400000 {
		t.Errorf("tool payload = %+v", reply.ToolResults)
	}
}

func TestAssemblerToolsAfterCompletedReplyAppendFresh(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)
	reg.AppendMessage(id, model.NewUserMessage("hi"))
	reg.AppendMessage(id, model.NewAssistantMessage("done already"))

	rs := tools.NewResultSet()
	rs.Mortgage = &tools.MortgagePaymentResult{MonthlyPI: 1500}
	asm.Apply(advisor.Event{Type: advisor.EventTools, Results: rs})

	msgs := reg.Messages(id)
	if len(msgs) != 3 {
		t.Fatalf("message count = %d, want 3", len(msgs))
	}
	if msgs[1].Content != "done already" || msgs[1].HasToolContent() {
		t.Errorf("completed reply was disturbed: %+v", msgs[1])
	}
	if !msgs[2].HasToolContent() {
		t.Errorf("tool message not appended: %+v", msgs[2])
	}
}

func TestAssemblerMessageEventAppendsCompleteReply(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)

	asm.Apply(advisor.Event{Type: advisor.EventMessage, Content: "Please provide: annual_rate, term_years"})

	msgs := reg.Messages(id)
	if len(msgs) != 1 || msgs[0].Content != "Please provide: annual_rate, term_years" {
		t.Fatalf("messages = %+v", msgs)
	}
}

func TestAssemblerErrorEventUsesMessageOrFallback(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)

	asm.Apply(advisor.Event{Type: advisor.EventError, Message: "LLM provider not ready: missing configuration"})
	asm.Apply(advisor.Event{Type: advisor.EventError})

	msgs := reg.Messages(id)
	if len(msgs) != 2 {
		t.Fatalf("message count = %d, want 2", len(msgs))
	}
	if msgs[0].Content != "LLM provider not ready: missing configuration" {
		t.Errorf("first error content = %q", msgs[0].Content)
	}
	if msgs[1].Content != streamErrorText {
		t.Errorf("fallback error content = %q", msgs[1].Content)
	}
}

func TestAssemblerDoneIsTerminal(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)

	if asm.Apply(advisor.Event{Type: advisor.EventDone}) {
		t.Error("done did not stop consumption")
	}
	if asm.Apply(advisor.Event{Type: advisor.EventToken, Content: "late"}) {
		t.Error("event applied after done")
	}
	if got := len(reg.Messages(id)); got != 0 {
		t.Errorf("messages appended after done: %d", got)
	}
}

func TestAssemblerSkipsUnknownEventKinds(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)

	if !asm.Apply(advisor.Event{Type: "usage"}) {
		t.Error("unknown event aborted the stream")
	}
	if got := len(reg.Messages(id)); got != 0 {
		t.Errorf("unknown event appended %d messages", got)
	}
}

func TestAssemblerSurvivesThreadDeletionMidStream(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)
	reg.DeleteThread(id)

	events := make(chan advisor.Event, 3)
	events <- advisor.Event{Type: advisor.EventToken, Content: "orphan"}
	events <- advisor.Event{Type: advisor.EventMessage, Content: "late reply"}
	events <- advisor.Event{Type: advisor.EventDone}
	close(events)

	asm.Run(events) // must not panic

	if got := len(reg.Threads()); got != 0 {
		t.Errorf("thread count = %d, want 0", got)
	}
}

func TestAssemblerMutationCallbackPerAppliedEvent(t *testing.T) {
	reg, asm, id := newAssemblerFixture(t)
	reg.AppendMessage(id, model.NewUserMessage("hi"))

	var calls int
	asm.SetMutationCallback(func() { calls++ })

	events := make(chan advisor.Event, 4)
	events <- advisor.Event{Type: advisor.EventToken, Content: "a"}
	events <- advisor.Event{Type: "unknown"}
	events <- advisor.Event{Type: advisor.EventToken, Content: "b"}
	events <- advisor.Event{Type: advisor.EventDone}
	close(events)

	asm.Run(events)

	// Two tokens mutate; the unknown event and done do not.
	if calls != 2 {
		t.Errorf("mutation callbacks = %d, want 2", calls)
	}
}
