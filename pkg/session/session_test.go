package session

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/parley/pkg/backend/local"
	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/events"
	"github.com/go-go-golems/parley/pkg/store"
)

type staticSummarizer struct {
	summary string
	tags    []string
	err     error
}

func (s *staticSummarizer) Summarize(
	ctx context.Context,
	conv *conversation.Conversation,
) (string, []string, error) {
	if s.err != nil {
		return "", nil, s.err
	}
	return s.summary, s.tags, nil
}

type failingEngine struct{}

func (failingEngine) RunInference(
	ctx context.Context,
	msgs []*conversation.Message,
) (*conversation.Message, error) {
	return nil, errors.New("model unavailable")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) all() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event{}, p.events...)
}

func newTestManager(options ...ManagerOption) *Manager {
	b := local.NewLocalBackend(
		store.NewInMemoryStore(),
		chat.NewEchoEngine(),
		&staticSummarizer{summary: "we talked", tags: []string{"test"}},
	)
	return NewManager(b, options...)
}

func TestOpenAppendFinishScenario(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	conv := s.Conversation()
	assert.Equal(t, conversation.StatusActive, conv.Status)
	assert.Empty(t, conv.Messages)

	exchange, err := s.Append(ctx, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello", exchange.UserMessage.Content)
	assert.NotEmpty(t, exchange.AssistantMessage.Content)

	conv = s.Conversation()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, conversation.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "Hello", conv.Messages[0].Content)
	assert.Equal(t, conversation.RoleAssistant, conv.Messages[1].Role)

	ended, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, conversation.StatusEnded, ended.Status)
	require.NotNil(t, ended.EndedAt)
	assert.NotEmpty(t, ended.Summary)
	require.NoError(t, ended.Validate())
}

func TestAppendEmptyContentFailsLocally(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	for _, content := range []string{"", "   ", "\n\t"} {
		_, err = s.Append(ctx, content)
		require.ErrorIs(t, err, conversation.ErrEmptyContent)
	}

	assert.Empty(t, s.Conversation().Messages)
}

func TestAppendAfterFinishFails(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	_, err = s.Append(ctx, "Hello")
	require.NoError(t, err)

	_, err = s.Finish(ctx)
	require.NoError(t, err)

	_, err = s.Append(ctx, "still there?")
	require.ErrorIs(t, err, conversation.ErrConversationEnded)
	assert.Len(t, s.Conversation().Messages, 2)
}

func TestAppendUpstreamFailureLeavesSnapshotUntouched(t *testing.T) {
	b := local.NewLocalBackend(
		store.NewInMemoryStore(),
		failingEngine{},
		&staticSummarizer{summary: "s"},
	)
	m := NewManager(b)
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	_, err = s.Append(ctx, "Hello")
	require.Error(t, err)
	assert.True(t, conversation.IsUpstream(err))
	assert.Empty(t, s.Conversation().Messages)
}

func TestFinishTwiceFailsWithAlreadyEnded(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	first, err := s.Finish(ctx)
	require.NoError(t, err)

	_, err = s.Finish(ctx)
	require.ErrorIs(t, err, conversation.ErrAlreadyEnded)

	assert.Equal(t, first.EndedAt.UnixNano(), s.Conversation().EndedAt.UnixNano())
}

func TestFinishSummarizerFailureKeepsSessionActive(t *testing.T) {
	summarizer := &staticSummarizer{err: errors.New("model unavailable")}
	b := local.NewLocalBackend(store.NewInMemoryStore(), chat.NewEchoEngine(), summarizer)
	m := NewManager(b)
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	_, err = s.Finish(ctx)
	require.Error(t, err)
	assert.True(t, conversation.IsUpstream(err))
	assert.Equal(t, conversation.StatusActive, s.Conversation().Status)

	// Finish is retryable after the collaborator recovers.
	summarizer.err = nil
	summarizer.summary = "recovered"
	ended, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, "recovered", ended.Summary)
}

func TestResumeSeesCommittedState(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "resumable")
	require.NoError(t, err)
	_, err = s.Append(ctx, "Hello")
	require.NoError(t, err)

	resumed, err := m.Resume(ctx, s.Conversation().ID)
	require.NoError(t, err)
	conv := resumed.Conversation()
	assert.Equal(t, "resumable", conv.Title)
	assert.Len(t, conv.Messages, 2)
}

func TestRefreshDiscardsLocalSnapshot(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	// A second session over the same conversation commits an exchange this
	// session never saw.
	other, err := m.Resume(ctx, s.Conversation().ID)
	require.NoError(t, err)
	_, err = other.Append(ctx, "from elsewhere")
	require.NoError(t, err)

	assert.Empty(t, s.Conversation().Messages)
	require.NoError(t, s.Refresh(ctx))
	assert.Len(t, s.Conversation().Messages, 2)
}

func TestConcurrentAppendsKeepPairsAdjacent(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Append(ctx, "ping")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	conv := s.Conversation()
	require.Len(t, conv.Messages, 16)
	require.NoError(t, conv.Validate())
	for i := 0; i < len(conv.Messages); i += 2 {
		assert.Equal(t, conversation.RoleUser, conv.Messages[i].Role)
		assert.Equal(t, conversation.RoleAssistant, conv.Messages[i+1].Role)
	}
}

func TestQueryValidation(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	_, err := m.Query(ctx, "   ")
	require.ErrorIs(t, err, conversation.ErrEmptyQuery)
}

func TestQueryAcrossSessions(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "store questions")
	require.NoError(t, err)
	_, err = s.Append(ctx, "What is your refund policy?")
	require.NoError(t, err)

	result, err := m.Query(ctx, "refund policy")
	require.NoError(t, err)
	require.NotEmpty(t, result.Matches)
	assert.Equal(t, s.Conversation().ID, result.Matches[0].ConversationID)
}

func TestLifecycleEventsPublished(t *testing.T) {
	publisher := &recordingPublisher{}
	m := newTestManager(WithPublisher(publisher))
	ctx := context.Background()

	s, err := m.Open(ctx, "")
	require.NoError(t, err)
	_, err = s.Append(ctx, "Hello")
	require.NoError(t, err)
	_, err = s.Finish(ctx)
	require.NoError(t, err)
	_, err = m.Query(ctx, "hello")
	require.NoError(t, err)

	published := publisher.all()
	require.Len(t, published, 3)
	assert.Equal(t, events.EventTypeExchangeCommitted, published[0].Type())
	assert.Equal(t, events.EventTypeConversationEnded, published[1].Type())
	assert.Equal(t, events.EventTypeQueryCompleted, published[2].Type())
}
