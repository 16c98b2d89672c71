package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Stream event types.
const (
	EventMessage = "message"
	EventDone    = "done"
	EventError   = "error"
)

// doneSentinel is the literal frame value marking end-of-stream.
const doneSentinel = "[DONE]"

// Callback is invoked for each event decoded from the stream. Events are
// delivered sequentially, in arrival order.
type Callback func(StreamEvent)

// ReadStream decodes an SSE byte stream into discrete events.
//
// Each complete line starting with "data:" yields one event: the [DONE]
// sentinel emits a terminal "done" event and stops reading immediately
// (any further buffered lines are discarded); any other remainder is
// parsed as JSON, degrading to a raw-text payload when parsing fails — a
// malformed frame never fails the stream. When the reader reports end of
// stream without a prior sentinel, the trailing partial line (if any) is
// processed through the same rule and a final "done" event is emitted.
//
// A read failure emits an "error" event and returns the error, except
// when the context has been cancelled: cancellation terminates silently
// with ctx.Err() and no error event.
func ReadStream(ctx context.Context, r io.Reader, fn Callback) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if terminal := emitLine(scanner.Text(), fn); terminal {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		// When the context is cancelled the HTTP body closes and the
		// scanner sees an IO error. Return the context error so callers
		// can tell a user abort from a broken stream.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fn(StreamEvent{Type: EventError, Err: err})
		return fmt.Errorf("stream read failed: %w", err)
	}

	// Stream ended without [DONE]; the scanner has already flushed any
	// trailing partial line through emitLine above.
	fn(StreamEvent{Type: EventDone})
	return nil
}

// emitLine processes one complete line and reports whether it was the
// terminal sentinel.
func emitLine(line string, fn Callback) bool {
	if !strings.HasPrefix(line, "data:") {
		return false
	}

	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

	if data == doneSentinel {
		fn(StreamEvent{Type: EventDone})
		return true
	}

	var payload StreamPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		payload = StreamPayload{Content: data}
	}
	fn(StreamEvent{Type: EventMessage, Payload: &payload})
	return false
}
