package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// InMemoryStore keeps all conversations in a mutex-guarded map. It backs the
// local backend and the tests; durable persistence lives behind other Store
// implementations.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversation.Conversation
}

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		conversations: make(map[uuid.UUID]*conversation.Conversation),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, title string) (*conversation.Conversation, error) {
	conv := conversation.New(title)

	s.mu.Lock()
	s.conversations[conv.ID] = conv
	s.mu.Unlock()

	log.Debug().
		Str("conversation_id", conv.ID.String()).
		Str("title", title).
		Msg("created conversation")

	return conv.Clone(), nil
}

func (s *InMemoryStore) Get(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, conversation.ErrNotFound
	}
	return conv.Clone(), nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]*conversation.Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]*conversation.Overview, 0, len(s.conversations))
	for _, conv := range s.conversations {
		ret = append(ret, conv.Overview())
	}

	sortByStartedAtDesc(ret)

	return ret, nil
}

func (s *InMemoryStore) AppendPair(
	ctx context.Context,
	id uuid.UUID,
	userMsg *conversation.Message,
	assistantMsg *conversation.Message,
) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, conversation.ErrNotFound
	}
	if conv.Ended() {
		return nil, conversation.ErrConversationEnded
	}

	conv.Messages = append(conv.Messages, userMsg, assistantMsg)

	log.Debug().
		Str("conversation_id", id.String()).
		Str("user_message_id", userMsg.ID.String()).
		Str("assistant_message_id", assistantMsg.ID.String()).
		Int("message_count", len(conv.Messages)).
		Msg("committed exchange")

	return conv.Clone(), nil
}

func (s *InMemoryStore) End(
	ctx context.Context,
	id uuid.UUID,
	summary string,
	tags []string,
) (*conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, conversation.ErrNotFound
	}
	if conv.Ended() {
		return nil, conversation.ErrAlreadyEnded
	}

	endedAt := time.Now()
	conv.Status = conversation.StatusEnded
	conv.EndedAt = &endedAt
	conv.Summary = summary
	if tags == nil {
		tags = []string{}
	}
	conv.Tags = tags

	log.Debug().
		Str("conversation_id", id.String()).
		Strs("tags", tags).
		Msg("ended conversation")

	return conv.Clone(), nil
}

func (s *InMemoryStore) All(ctx context.Context) ([]*conversation.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ret := make([]*conversation.Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		ret = append(ret, conv.Clone())
	}

	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].StartedAt.Equal(ret[j].StartedAt) {
			return ret[i].StartedAt.After(ret[j].StartedAt)
		}
		return ret[i].ID.String() < ret[j].ID.String()
	})

	return ret, nil
}

func sortByStartedAtDesc(overviews []*conversation.Overview) {
	sort.Slice(overviews, func(i, j int) bool {
		if !overviews[i].StartedAt.Equal(overviews[j].StartedAt) {
			return overviews[i].StartedAt.After(overviews[j].StartedAt)
		}
		return overviews[i].ID.String() < overviews[j].ID.String()
	})
}
