package chat

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/aerochat/internal/storage"
)

func TestAppendAndMessages(t *testing.T) {
	s := NewStore(nil, nil)

	s.Append(RoleUser, "hello")
	s.Append(RoleAssistant, "")

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.NotEmpty(t, msgs[0].ID)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}

func TestUpdateStreamingReplacesContent(t *testing.T) {
	s := NewStore(nil, nil)
	s.Append(RoleUser, "q")
	s.Append(RoleAssistant, "")

	s.UpdateStreaming("Hel", []string{"support"}, nil)
	s.UpdateStreaming("Hello there", []string{"support"}, []string{"haiku"})

	msgs := s.Messages()
	last := msgs[len(msgs)-1]
	assert.Equal(t, "Hello there", last.Content, "content is replaced, not appended")
	assert.Equal(t, []string{"support"}, last.ContributingAgents)
	assert.Equal(t, []string{"haiku"}, last.ContributingModels)
}

func TestUpdateStreamingDroppedWhenTailIsNotAssistant(t *testing.T) {
	s := NewStore(nil, nil)
	s.Append(RoleUser, "q")

	s.UpdateStreaming("stray delta", nil, nil)

	msgs := s.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "q", msgs[0].Content, "a delta never creates or mutates a user message")
}

func TestUpdateStreamingClearsStaleContributors(t *testing.T) {
	s := NewStore(nil, nil)
	s.Append(RoleAssistant, "")

	s.UpdateStreaming("a", []string{"support"}, nil)
	s.UpdateStreaming("ab", nil, nil)

	last := s.Messages()[0]
	assert.Empty(t, last.ContributingAgents)
}

func TestMergeContributorsKeepsContent(t *testing.T) {
	s := NewStore(nil, nil)
	s.Append(RoleAssistant, "")
	s.UpdateStreaming("final answer", nil, nil)

	s.MergeContributors([]string{"support", "billing"}, nil)

	last := s.Messages()[0]
	assert.Equal(t, "final answer", last.Content)
	assert.Equal(t, []string{"support", "billing"}, last.ContributingAgents)
	assert.Empty(t, last.ContributingModels, "empty final list leaves the field alone")
}

func TestClearResetsEverything(t *testing.T) {
	s := NewStore(nil, nil)
	s.SetSessionID("session-x")
	s.Append(RoleUser, "q")
	s.SetStreaming(true)

	s.Clear()

	assert.Empty(t, s.Messages())
	assert.Empty(t, s.SessionID())
	assert.False(t, s.Streaming())
}

func TestUsageIsReplacedNotSummed(t *testing.T) {
	s := NewStore(nil, nil)

	s.SetUsage(TokenUsage{InputTokens: 100, OutputTokens: 50})
	s.SetUsage(TokenUsage{InputTokens: 220, OutputTokens: 90})

	assert.Equal(t, TokenUsage{InputTokens: 220, OutputTokens: 90}, s.Usage())
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	st, err := storage.Open(path)
	require.NoError(t, err)

	s := NewStore(st, nil)
	s.SetSessionID("session-1")
	s.Append(RoleUser, "hello")
	s.Append(RoleAssistant, "")
	s.UpdateStreaming("hi there", []string{"support"}, nil)
	s.SetUsage(TokenUsage{InputTokens: 10, OutputTokens: 5})
	require.NoError(t, st.Close())

	st2, err := storage.Open(path)
	require.NoError(t, err)
	defer st2.Close()

	restored := NewStore(st2, nil)
	require.NoError(t, restored.Load())

	msgs := restored.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi there", msgs[1].Content)
	assert.Equal(t, "session-1", restored.SessionID())
	assert.Equal(t, TokenUsage{InputTokens: 10, OutputTokens: 5}, restored.Usage())
}

func TestZeroUsageClearsStoredEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()

	s := NewStore(st, nil)
	s.SetUsage(TokenUsage{InputTokens: 1, OutputTokens: 1})
	s.SetUsage(TokenUsage{})

	_, err = st.Get(storage.KeyTokenUsage)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoadToleratesCorruptEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	st, err := storage.Open(path)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Put(storage.KeyChatHistory, "{not json"))

	s := NewStore(st, nil)
	require.NoError(t, s.Load())
	assert.Empty(t, s.Messages())
}
