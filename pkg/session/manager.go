package session

// Package session mediates all conversation mutations. A Manager owns the
// backend connection and hands out Sessions, one per conversation. The
// manager serializes operations per conversation id, so concurrent appends
// against the same conversation can never interleave their message ordering.

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/backend"
	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/events"
	"github.com/go-go-golems/parley/pkg/intelligence"
)

type Manager struct {
	backend   backend.Backend
	publisher events.Publisher

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

type ManagerOption func(*Manager)

func WithPublisher(publisher events.Publisher) ManagerOption {
	return func(m *Manager) {
		m.publisher = publisher
	}
}

func NewManager(b backend.Backend, options ...ManagerOption) *Manager {
	ret := &Manager{
		backend:   b,
		publisher: events.NopPublisher{},
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

// Open creates a new conversation and returns a session over it. On failure
// nothing was allocated locally, there is no partial state to roll back.
func (m *Manager) Open(ctx context.Context, title string) (*Session, error) {
	conv, err := m.backend.CreateConversation(ctx, title)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("conversation_id", conv.ID.String()).
		Str("title", title).
		Msg("opened conversation")

	return m.newSession(conv), nil
}

// Resume fetches an existing conversation and returns a session over it.
// This is also the re-sync path after an abandoned call: the server may have
// applied an operation the caller never saw complete, so local state is
// always re-fetched rather than trusted.
func (m *Manager) Resume(ctx context.Context, id uuid.UUID) (*Session, error) {
	conv, err := m.backend.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.newSession(conv), nil
}

func (m *Manager) List(ctx context.Context) ([]*conversation.Overview, error) {
	return m.backend.ListConversations(ctx)
}

// Query runs an intelligence query across all conversations. Empty queries
// are rejected locally and never reach the backend.
func (m *Manager) Query(ctx context.Context, text string) (*intelligence.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, conversation.ErrEmptyQuery
	}

	result, err := m.backend.Query(ctx, text)
	if err != nil {
		return nil, err
	}

	events.PublishBlind(m.publisher, &events.QueryCompleted{
		Query:      text,
		MatchCount: len(result.Matches),
	})

	return result, nil
}

func (m *Manager) newSession(conv *conversation.Conversation) *Session {
	return &Session{
		manager: m,
		conv:    conv,
	}
}

// lock returns the mutex serializing mutations of one conversation.
func (m *Manager) lock(id uuid.UUID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}
