package chat

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youruser/aerochat/internal/storage"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Source is a retrieval citation attached to an assistant message.
type Source struct {
	Name    string `json:"name"`
	Excerpt string `json:"excerpt"`
}

// Message is a single entry in a conversation transcript. A message is
// mutable only while it is the trailing assistant message of an active
// stream; once another message is appended after it, it is final.
type Message struct {
	ID                 string    `json:"id"`
	Role               Role      `json:"role"`
	Content            string    `json:"content"`
	Timestamp          time.Time `json:"timestamp"`
	ContributingAgents []string  `json:"contributing_agents,omitempty"`
	ContributingModels []string  `json:"contributing_models,omitempty"`
	Sources            []Source  `json:"sources,omitempty"`
}

// TokenUsage is the cumulative session token total reported by the server.
// It is replaced wholesale on each metadata update, never summed locally.
type TokenUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// IsZero reports whether no usage has been recorded.
func (u TokenUsage) IsZero() bool {
	return u.InputTokens == 0 && u.OutputTokens == 0
}

// Store holds the conversation transcript for the active session along
// with the streaming flag and token usage, mirrored to durable storage on
// every change. Only the orchestrator mutates it, through the methods
// below.
type Store struct {
	mu        sync.Mutex
	storage   *storage.Store
	log       *zap.Logger
	messages  []Message
	streaming bool
	sessionID string
	usage     TokenUsage
}

// NewStore creates a transcript store. st may be nil for an ephemeral
// (non-persisted) transcript, which tests use.
func NewStore(st *storage.Store, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{storage: st, log: log}
}

// Load restores the transcript, session id and token usage from durable
// storage. Missing keys are not an error; corrupt entries are logged and
// skipped.
func (s *Store) Load() error {
	if s.storage == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, err := s.storage.Get(storage.KeyChatHistory); err == nil {
		var msgs []Message
		if jsonErr := json.Unmarshal([]byte(raw), &msgs); jsonErr != nil {
			s.log.Warn("discarding corrupt stored transcript", zap.Error(jsonErr))
		} else {
			s.messages = msgs
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if id, err := s.storage.Get(storage.KeySessionID); err == nil {
		s.sessionID = id
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if raw, err := s.storage.Get(storage.KeyTokenUsage); err == nil {
		var usage TokenUsage
		if jsonErr := json.Unmarshal([]byte(raw), &usage); jsonErr != nil {
			s.log.Warn("discarding corrupt stored token usage", zap.Error(jsonErr))
		} else {
			s.usage = usage
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	return nil
}

// Messages returns a copy of the transcript in insertion order.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the transcript.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Append adds a new message to the end of the transcript and returns it.
func (s *Store) Append(role Role, content string) Message {
	msg := Message{
		ID:        "msg-" + uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.persistMessagesLocked()
	s.mu.Unlock()
	return msg
}

// UpdateStreaming replaces the content of the trailing assistant message.
// The server sends the full accumulated content on each frame, so content
// is replaced, not appended. Contributor lists are always overwritten from
// the given values (nil becomes empty) so stale values never survive a
// frame that omits them. If the last message is not an assistant message
// the update is dropped: a streaming delta never creates a new message.
func (s *Store) UpdateStreaming(content string, agents, models []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.lastLocked()
	if last == nil || last.Role != RoleAssistant {
		s.log.Warn("dropping stream update: no trailing assistant message")
		return
	}

	last.Content = content
	last.ContributingAgents = copyStrings(agents)
	last.ContributingModels = copyStrings(models)
	s.persistMessagesLocked()
}

// MergeContributors applies the final contributor lists from a done
// signal to the trailing assistant message, leaving its content alone.
// Empty lists are ignored.
func (s *Store) MergeContributors(agents, models []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.lastLocked()
	if last == nil || last.Role != RoleAssistant {
		return
	}

	if len(agents) > 0 {
		last.ContributingAgents = copyStrings(agents)
	}
	if len(models) > 0 {
		last.ContributingModels = copyStrings(models)
	}
	s.persistMessagesLocked()
}

// SetStreaming sets the streaming flag.
func (s *Store) SetStreaming(v bool) {
	s.mu.Lock()
	s.streaming = v
	s.mu.Unlock()
}

// Streaming reports whether a stream is currently active.
func (s *Store) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// SessionID returns the id of the session this transcript is anchored to,
// or "" when none.
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// SetSessionID anchors the transcript to a session and persists the link.
func (s *Store) SetSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionID = id
	s.persistSessionLocked()
}

// Usage returns the current cumulative token usage.
func (s *Store) Usage() TokenUsage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// SetUsage replaces the token usage with the server-reported totals. A
// zero value clears the persisted entry.
func (s *Store) SetUsage(u TokenUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = u

	if s.storage == nil {
		return
	}
	if u.IsZero() {
		if err := s.storage.Delete(storage.KeyTokenUsage); err != nil {
			s.log.Warn("failed to clear stored token usage", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := s.storage.Put(storage.KeyTokenUsage, string(data)); err != nil {
		s.log.Warn("failed to persist token usage", zap.Error(err))
	}
}

// Clear empties the transcript, drops the session anchor and resets the
// streaming flag. The persisted transcript and session id are removed
// together.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.sessionID = ""
	s.streaming = false
	s.persistMessagesLocked()
	s.persistSessionLocked()
}

func (s *Store) lastLocked() *Message {
	if len(s.messages) == 0 {
		return nil
	}
	return &s.messages[len(s.messages)-1]
}

func (s *Store) persistMessagesLocked() {
	if s.storage == nil {
		return
	}
	if len(s.messages) == 0 {
		if err := s.storage.Delete(storage.KeyChatHistory); err != nil {
			s.log.Warn("failed to clear stored transcript", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(s.messages)
	if err != nil {
		s.log.Warn("failed to encode transcript", zap.Error(err))
		return
	}
	if err := s.storage.Put(storage.KeyChatHistory, string(data)); err != nil {
		s.log.Warn("failed to persist transcript", zap.Error(err))
	}
}

func (s *Store) persistSessionLocked() {
	if s.storage == nil {
		return
	}
	if s.sessionID == "" {
		if err := s.storage.Delete(storage.KeySessionID); err != nil {
			s.log.Warn("failed to clear stored session id", zap.Error(err))
		}
		return
	}
	if err := s.storage.Put(storage.KeySessionID, s.sessionID); err != nil {
		s.log.Warn("failed to persist session id", zap.Error(err))
	}
}

// copyStrings returns a copy of in, or an empty non-nil slice when in is
// empty, so JSON output always carries explicit values while streaming.
func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
