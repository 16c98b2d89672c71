package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/youruser/aerochat/internal/api"
)

// recentSessionLimit caps the locally tracked session list. Creating a
// session beyond the cap evicts the oldest entry from the local list
// only; the backend keeps the full history.
const recentSessionLimit = 3

// API is the backend surface the registry needs.
type API interface {
	ListSessions(ctx context.Context) ([]api.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Transcript is the conversation state a session switch must reset.
type Transcript interface {
	SetSessionID(id string)
	Clear()
}

// Registry tracks the recent session list and the active session.
// Session ids are minted locally; the backend materializes a session the
// first time a chat message references its id.
type Registry struct {
	mu         sync.Mutex
	client     API
	transcript Transcript
	log        *zap.Logger
	sessions   []api.Session
	active     *api.Session
}

// NewRegistry creates a session registry.
func NewRegistry(client API, transcript Transcript, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		client:     client,
		transcript: transcript,
		log:        log,
	}
}

// Create mints a new session, makes it active and prepends it to the
// recent list, evicting the oldest entry past the cap. No backend call
// is made; the session becomes real when first used.
func (r *Registry) Create() api.Session {
	now := time.Now().UTC()
	s := api.Session{
		SessionID: "session-" + uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	recent := append([]api.Session{s}, r.sessions...)
	if len(recent) > recentSessionLimit {
		recent = recent[:recentSessionLimit]
	}
	r.sessions = recent
	r.active = &s
	r.mu.Unlock()

	r.log.Debug("created session", zap.String("session_id", s.SessionID))
	return s
}

// Adopt makes s the active session without clearing the transcript.
// Used at startup to re-attach to the session a persisted transcript is
// anchored to.
func (r *Registry) Adopt(s api.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.SessionID == s.SessionID {
			r.active = &existing
			return
		}
	}

	recent := append([]api.Session{s}, r.sessions...)
	if len(recent) > recentSessionLimit {
		recent = recent[:recentSessionLimit]
	}
	r.sessions = recent
	r.active = &s
}

// Sessions returns a copy of the recent session list, newest first.
func (r *Registry) Sessions() []api.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]api.Session, len(r.sessions))
	copy(out, r.sessions)
	return out
}

// Active returns the active session, or nil when none is selected.
func (r *Registry) Active() *api.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil
	}
	s := *r.active
	return &s
}

// Load replaces the local session list with the backend's. On failure
// the local list is left untouched and the error is returned.
func (r *Registry) Load(ctx context.Context) error {
	sessions, err := r.client.ListSessions(ctx)
	if err != nil {
		r.log.Error("failed to load sessions", zap.Error(err))
		return err
	}

	r.mu.Lock()
	r.sessions = sessions
	r.mu.Unlock()
	return nil
}

// Delete removes a session on the backend and then locally. If the
// backend call fails nothing is removed locally. Deleting the active
// session also clears the transcript.
func (r *Registry) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.DeleteSession(ctx, sessionID); err != nil {
		r.log.Error("failed to delete session", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}

	r.mu.Lock()
	kept := r.sessions[:0]
	for _, s := range r.sessions {
		if s.SessionID != sessionID {
			kept = append(kept, s)
		}
	}
	r.sessions = kept

	wasActive := r.active != nil && r.active.SessionID == sessionID
	if wasActive {
		r.active = nil
	}
	r.mu.Unlock()

	if wasActive {
		r.transcript.Clear()
	}
	return nil
}

// Switch makes s the active session and resets the transcript to it.
// Passing nil deselects the active session and clears the transcript.
func (r *Registry) Switch(s *api.Session) {
	r.mu.Lock()
	if s == nil {
		r.active = nil
	} else {
		copied := *s
		r.active = &copied
	}
	r.mu.Unlock()

	// The transcript belongs to exactly one session; switching always
	// empties it before anchoring to the new id.
	r.transcript.Clear()
	if s != nil {
		r.transcript.SetSessionID(s.SessionID)
	}
}
