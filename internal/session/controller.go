// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pennyworth/penny-tui/internal/advisor"
	"github.com/pennyworth/penny-tui/internal/model"
)

// fallbackAnswer is the fixed reply when both the streaming and single-shot
// paths fail. It is delivered as a normal assistant message; turn failures
// never surface as errors.
const fallbackAnswer = "I couldn't reach the advisor backend. Verify that it is running and that your API credentials are configured, then try again."

// ErrBusy rejects a send while the thread already has one outstanding.
var ErrBusy = errors.New("a reply is already in progress for this thread")

// =============================================================================
// ADVISOR SURFACE
// =============================================================================

// Advisor is the backend surface the controller drives. *advisor.Client
// satisfies it; tests substitute fakes.
type Advisor interface {
	Ask(ctx context.Context, req advisor.AskRequest) (advisor.AskResponse, error)
	AskStream(ctx context.Context, req advisor.AskRequest) (<-chan advisor.Event, error)
}

// AnalyticsFunc supplies the analytics snapshot attached to every ask.
type AnalyticsFunc func(ctx context.Context) any

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller orchestrates question turns: the optimistic user append,
// streaming versus single-shot mode, fallback reconciliation, and per-thread
// busy state. At most one send is outstanding per thread at a time; further
// sends are rejected with ErrBusy until the turn completes.
type Controller struct {
	mu        sync.Mutex
	registry  *Registry
	advisor   Advisor
	analytics AnalyticsFunc
	busy      map[string]bool

	onUpdate func(threadID string)
	onDone   func(threadID string)
}

// NewController wires the registry to an advisor backend.
func NewController(registry *Registry, adv Advisor) *Controller {
	return &Controller{
		registry: registry,
		advisor:  adv,
		busy:     make(map[string]bool),
	}
}

// Registry returns the registry this controller mutates.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// SetAnalyticsFunc installs the analytics snapshot provider.
func (c *Controller) SetAnalyticsFunc(fn AnalyticsFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analytics = fn
}

// SetUpdateCallback installs fn, invoked after every message mutation a turn
// produces. The TUI uses it to schedule re-renders while tokens stream in.
func (c *Controller) SetUpdateCallback(fn func(threadID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// SetDoneCallback installs fn, invoked when a turn finishes and the thread's
// busy slot clears, whether the turn succeeded or failed.
func (c *Controller) SetDoneCallback(fn func(threadID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDone = fn
}

// Busy reports whether a send is outstanding for the thread.
func (c *Controller) Busy(threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[threadID]
}

// =============================================================================
// SEND / RESEND / EDIT
// =============================================================================

// Send submits a question on the active thread and blocks until the reply
// turn completes. Empty or whitespace-only input is a no-op. When no active
// thread exists one is created first. The turn stays bound to the thread
// resolved here, even if the user switches threads while tokens arrive.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	threadID := c.registry.ActiveID()
	if _, ok := c.registry.Thread(threadID); !ok {
		t := c.registry.CreateThread()
		threadID = t.ID
	}
	return c.SendTo(ctx, threadID, text)
}

// SendTo runs a full question turn on a specific thread.
func (c *Controller) SendTo(ctx context.Context, threadID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if err := c.acquire(threadID); err != nil {
		return err
	}
	defer c.release(threadID)

	c.turn(ctx, threadID, text)
	return nil
}

// Resend discards every message from index onward, then runs a fresh turn
// with text on the active thread. Used both for regenerate (original text)
// and edit-and-resend (edited text).
func (c *Controller) Resend(ctx context.Context, index int, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	threadID := c.registry.ActiveID()
	if _, ok := c.registry.Thread(threadID); !ok {
		return nil
	}
	if err := c.acquire(threadID); err != nil {
		return err
	}
	defer c.release(threadID)

	c.registry.TruncateMessages(threadID, index)
	c.turn(ctx, threadID, text)
	return nil
}

// EditMessage rewrites the user message at index with newText, refreshes its
// timestamp, then resends from that point. Everything after index is
// discarded and replaced by the fresh turn. Indexes that do not name a user
// message are no-ops.
func (c *Controller) EditMessage(ctx context.Context, index int, newText string) error {
	newText = strings.TrimSpace(newText)
	if newText == "" {
		return nil
	}
	threadID := c.registry.ActiveID()
	msgs := c.registry.Messages(threadID)
	if index < 0 || index >= len(msgs) || msgs[index].Role != model.RoleUser {
		return nil
	}
	if err := c.acquire(threadID); err != nil {
		return err
	}
	defer c.release(threadID)

	edited := msgs[index]
	edited.Content = newText
	edited.TS = model.NowMillis()
	c.registry.ReplaceMessage(threadID, index, edited)
	c.notifyUpdate(threadID)

	c.registry.TruncateMessages(threadID, index)
	c.turn(ctx, threadID, newText)
	return nil
}

// =============================================================================
// TURN PIPELINE
// =============================================================================

// turn appends the optimistic user message, clears the draft, and drives one
// reply turn. Callers hold the thread's busy slot.
func (c *Controller) turn(ctx context.Context, threadID, text string) {
	c.registry.AppendMessage(threadID, model.NewUserMessage(text))
	c.registry.SetDraft(threadID, "")
	c.notifyUpdate(threadID)

	settings := c.registry.Settings()
	req := advisor.AskRequest{
		Analytics: c.snapshotAnalytics(ctx),
		Question:  text,
		Model:     settings.LLMModel,
	}

	if settings.StreamResponses {
		c.registry.AppendMessage(threadID, model.NewAssistantMessage(""))
		c.notifyUpdate(threadID)

		events, err := c.advisor.AskStream(ctx, req)
		if err == nil {
			asm := NewAssembler(c.registry, threadID)
			asm.SetMutationCallback(func() { c.notifyUpdate(threadID) })
			asm.Run(events)
			return
		}
		// Open failure: fall through to the single-shot path, which fills
		// the placeholder appended above.
	}

	c.deliverAnswer(threadID, c.singleShot(ctx, req))
}

// singleShot runs the non-streaming ask, degrading to the fixed guidance
// reply when the backend cannot be reached or returns nothing.
func (c *Controller) singleShot(ctx context.Context, req advisor.AskRequest) string {
	resp, err := c.advisor.Ask(ctx, req)
	if err != nil {
		return fallbackAnswer
	}
	answer := strings.TrimSpace(resp.Answer)
	if answer == "" {
		return fallbackAnswer
	}
	return answer
}

// deliverAnswer fills a trailing empty placeholder when one is present,
// otherwise appends a new assistant message.
func (c *Controller) deliverAnswer(threadID, answer string) {
	msgs := c.registry.Messages(threadID)
	if n := len(msgs); n > 0 && msgs[n-1].IsEmptyPlaceholder() {
		c.registry.SetMessageContent(threadID, n-1, answer)
	} else {
		c.registry.AppendMessage(threadID, model.NewAssistantMessage(answer))
	}
	c.notifyUpdate(threadID)
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Controller) acquire(threadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[threadID] {
		return ErrBusy
	}
	c.busy[threadID] = true
	return nil
}

func (c *Controller) release(threadID string) {
	c.mu.Lock()
	delete(c.busy, threadID)
	fn := c.onDone
	c.mu.Unlock()
	if fn != nil {
		fn(threadID)
	}
}

func (c *Controller) notifyUpdate(threadID string) {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn(threadID)
	}
}

func (c *Controller) snapshotAnalytics(ctx context.Context) any {
	c.mu.Lock()
	fn := c.analytics
	c.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
