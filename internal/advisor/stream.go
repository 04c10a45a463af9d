// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package advisor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pennyworth/penny-tui/internal/tools"
)

// STREAMING: Robust SSE parsing with skip-on-malformed discipline

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType discriminates stream event payloads.
type EventType string

const (
	EventTools   EventType = "tools"
	EventToken   EventType = "token"
	EventMessage EventType = "message"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one parsed frame from the ask stream. The Type field selects
// which payload group is meaningful: Results and Missing for tools, Content
// for token and message, Message for error. Done carries nothing.
type Event struct {
	Type    EventType        `json:"type"`
	Content string           `json:"content,omitempty"`
	Message string           `json:"message,omitempty"`
	Results *tools.ResultSet `json:"results,omitempty"`
	Missing []string         `json:"missing,omitempty"`
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader splits a Server-Sent-Events body into data payloads.
//
// Events arrive as "data: <json>" lines terminated by a blank line. Lines
// without the data prefix (comments, ids, retry hints) are dropped. Partial
// frames are buffered until their terminating blank line arrives; a final
// event missing its blank-line terminator is still delivered before EOF.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadEvent returns the next event's data payload.
// Returns io.EOF when the stream ends.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Deliver complete data lines seen before the stream ended
				if len(dataLines) > 0 {
					return bytes.Join(dataLines, []byte("\n")), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line signals end of event
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Anything else is not data and is dropped
	}
}

// =============================================================================
// STREAMING ASK
// =============================================================================

// AskStream opens the streaming ask channel and delivers parsed events.
//
// The returned channel closes after a done event or when the stream ends.
// Open failures (transport error, non-200 status, missing body) return a
// *StreamOpenError so callers can fall back to the single-shot path.
// Malformed frames and frames without a type are skipped; a read error
// mid-stream simply ends consumption.
func (c *Client) AskStream(ctx context.Context, req AskRequest) (<-chan Event, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &StreamOpenError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ask/stream", bytes.NewReader(payload))
	if err != nil {
		return nil, &StreamOpenError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		return nil, &StreamOpenError{Err: err}
	}
	if resp.Body == nil {
		return nil, &StreamOpenError{Err: errors.New("response has no body")}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, &StreamOpenError{Err: apiErrorFrom(resp.StatusCode, body)}
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		reader := NewSSEReader(resp.Body)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			data, err := reader.ReadEvent()
			if err != nil {
				// io.EOF and mid-stream read failures both end consumption
				return
			}

			var ev Event
			if err := json.Unmarshal(data, &ev); err != nil {
				continue // skip malformed frames
			}
			if ev.Type == "" {
				continue
			}

			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}

			if ev.Type == EventDone {
				return
			}
		}
	}()

	return events, nil
}
