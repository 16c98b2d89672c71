package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/youruser/aerochat/internal/api"
)

// errorReply is shown in place of the assistant response when a send or
// stream fails. The failure itself is logged; the transcript only carries
// this apology so the conversation stays coherent.
const errorReply = "Sorry, an error occurred while processing your request. Please try again."

// Streamer sends a chat message and delivers decoded stream events.
type Streamer interface {
	ChatStream(ctx context.Context, sessionID, message string, fn api.Callback) error
}

// SessionSource provides the active session, creating one on demand.
type SessionSource interface {
	Active() *api.Session
	Create() api.Session
}

// Orchestrator drives the send-message lifecycle: it anchors the
// transcript to a session, appends the user message and an assistant
// placeholder, and reconciles stream events into the transcript store.
// At most one stream is active at a time; starting a new send cancels
// the previous one.
type Orchestrator struct {
	mu       sync.Mutex
	client   Streamer
	store    *Store
	sessions SessionSource
	log      *zap.Logger
	cancel   context.CancelFunc

	// OnStreamUpdate, when set, is called with the accumulated assistant
	// content after each content frame. Used for live rendering.
	OnStreamUpdate func(content string)
}

// NewOrchestrator wires a stream client, transcript store and session
// source together.
func NewOrchestrator(client Streamer, store *Store, sessions SessionSource, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		client:   client,
		store:    store,
		sessions: sessions,
		log:      log,
	}
}

// SendMessage sends a user message and blocks until the response stream
// completes, is cancelled, or fails. Whitespace-only input is a no-op.
// Failures do not return an error: they surface in the transcript as an
// apology message, and streaming state is always cleared.
func (o *Orchestrator) SendMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	session := o.sessions.Active()
	if session == nil {
		created := o.sessions.Create()
		session = &created
	}
	o.store.SetSessionID(session.SessionID)

	o.store.Append(RoleUser, text)
	o.store.Append(RoleAssistant, "")
	o.store.SetStreaming(true)

	streamCtx := o.swapCancel(ctx)

	err := o.client.ChatStream(streamCtx, session.SessionID, text, o.handleEvent)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// User abort; StopStreaming already reset the flag.
			return
		}
		o.log.Error("chat stream failed", zap.Error(err))
		o.store.SetStreaming(false)
		o.store.UpdateStreaming(errorReply, nil, nil)
		return
	}

	o.store.SetStreaming(false)
}

// handleEvent reconciles one decoded stream event into the transcript.
func (o *Orchestrator) handleEvent(ev api.StreamEvent) {
	switch ev.Type {
	case api.EventMessage:
		p := ev.Payload
		if p == nil {
			return
		}

		if p.Metadata != nil && p.Metadata.TokenUsage != nil {
			// Server totals are cumulative for the whole session, so
			// they replace the stored value outright.
			o.store.SetUsage(TokenUsage{
				InputTokens:  p.Metadata.TokenUsage.InputTokensTotal,
				OutputTokens: p.Metadata.TokenUsage.OutputTokensTotal,
			})
		}

		if strings.TrimSpace(p.Content) != "" {
			var agents, models []string
			if p.Metadata != nil {
				agents = p.Metadata.ContributingAgents
				models = p.Metadata.ContributingModels
			}
			o.store.UpdateStreaming(p.Content, agents, models)
			if o.OnStreamUpdate != nil {
				o.OnStreamUpdate(p.Content)
			}
		} else if p.Done {
			// Final frame with metadata but no content: keep whatever
			// content is already streamed, fix up contributors only.
			if p.Metadata != nil {
				o.store.MergeContributors(p.Metadata.ContributingAgents, p.Metadata.ContributingModels)
			}
			o.store.SetStreaming(false)
		}

	case api.EventDone:
		o.store.SetStreaming(false)

	case api.EventError:
		o.log.Warn("stream error event", zap.Error(ev.Err))
	}
}

// StopStreaming cancels the active stream, if any. Safe to call when
// nothing is streaming.
func (o *Orchestrator) StopStreaming() {
	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.mu.Unlock()
	o.store.SetStreaming(false)
}

// ResetChat stops any active stream and clears the transcript, the
// session anchor and the token usage together.
func (o *Orchestrator) ResetChat() {
	o.StopStreaming()
	o.store.Clear()
	o.store.SetUsage(TokenUsage{})
}

// swapCancel cancels the previous stream context and installs a new one
// derived from parent.
func (o *Orchestrator) swapCancel(parent context.Context) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	o.cancel = cancel
	return ctx
}
