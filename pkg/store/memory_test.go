package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/conversation"
)

func TestCreateAndGet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "budget")
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusActive, conv.Status)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
	assert.Equal(t, "budget", got.Title)
}

func TestGetUnknownIDFails(t *testing.T) {
	s := NewInMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, conversation.ErrNotFound)
}

func TestAppendPairCommitsBothMessages(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)

	userMsg := conversation.NewMessage(conversation.RoleUser, "Hello")
	assistantMsg := conversation.NewMessage(conversation.RoleAssistant, "Hi!")

	updated, err := s.AppendPair(ctx, conv.ID, userMsg, assistantMsg)
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	assert.Equal(t, conversation.RoleUser, updated.Messages[0].Role)
	assert.Equal(t, conversation.RoleAssistant, updated.Messages[1].Role)
	assert.Equal(t, "Hello", updated.Messages[0].Content)
}

func TestAppendPairOnEndedConversationFails(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)

	_, err = s.End(ctx, conv.ID, "summary", nil)
	require.NoError(t, err)

	_, err = s.AppendPair(ctx, conv.ID,
		conversation.NewMessage(conversation.RoleUser, "still there?"),
		conversation.NewMessage(conversation.RoleAssistant, "..."),
	)
	require.ErrorIs(t, err, conversation.ErrConversationEnded)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Messages)
}

func TestEndSetsDerivedArtifacts(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)

	ended, err := s.End(ctx, conv.ID, "we discussed budgets", []string{"budget", "travel"})
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.Equal(t, "we discussed budgets", ended.Summary)
	assert.Equal(t, []string{"budget", "travel"}, ended.Tags)
	require.NoError(t, ended.Validate())
}

func TestEndTwiceFailsAndKeepsEndedAt(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)

	first, err := s.End(ctx, conv.ID, "summary", nil)
	require.NoError(t, err)

	_, err = s.End(ctx, conv.ID, "other summary", nil)
	require.ErrorIs(t, err, conversation.ErrAlreadyEnded)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.Equal(t, first.EndedAt.UnixNano(), got.EndedAt.UnixNano())
	assert.Equal(t, "summary", got.Summary)
}

func TestEndWithNilTagsYieldsEmptySet(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)

	ended, err := s.End(ctx, conv.ID, "summary", nil)
	require.NoError(t, err)
	require.NotNil(t, ended.Tags)
	assert.Empty(t, ended.Tags)
}

func TestListOrdersByStartedAtDescending(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	first, err := s.Create(ctx, "first")
	require.NoError(t, err)
	second, err := s.Create(ctx, "second")
	require.NoError(t, err)

	// Force distinct start times so the ordering is unambiguous.
	s.mu.Lock()
	s.conversations[second.ID].StartedAt = s.conversations[first.ID].StartedAt.Add(1)
	s.mu.Unlock()

	overviews, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, overviews, 2)
	assert.Equal(t, "second", overviews[0].Title)
	assert.Equal(t, "first", overviews[1].Title)
}

func TestClonesDoNotLeakInternalState(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	conv, err := s.Create(ctx, "")
	require.NoError(t, err)

	_, err = s.AppendPair(ctx, conv.ID,
		conversation.NewMessage(conversation.RoleUser, "Hello"),
		conversation.NewMessage(conversation.RoleAssistant, "Hi!"),
	)
	require.NoError(t, err)

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "tampered"

	again, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", again.Messages[0].Content)
}
