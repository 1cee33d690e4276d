package session

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/backend"
	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/events"
)

// Session owns one conversation's mutations. It holds the authoritative
// local snapshot: the snapshot only ever changes when a backend call has
// fully succeeded, so a failed append or finish leaves it untouched. Pending
// state during an in-flight call is the caller's to render, it is never
// written into the snapshot.
type Session struct {
	manager *Manager

	snapMu sync.RWMutex
	conv   *conversation.Conversation
}

// Conversation returns a snapshot of the session's conversation.
func (s *Session) Conversation() *conversation.Conversation {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.conv.Clone()
}

// Append submits one user utterance and commits the resulting (user,
// assistant) pair. Validation is local: empty content and ended
// conversations fail before the backend is ever called.
func (s *Session) Append(ctx context.Context, content string) (*backend.Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, conversation.ErrEmptyContent
	}

	l := s.manager.lock(s.id())
	l.Lock()
	defer l.Unlock()

	s.snapMu.RLock()
	ended := s.conv.Ended()
	s.snapMu.RUnlock()
	if ended {
		return nil, conversation.ErrConversationEnded
	}

	exchange, err := s.manager.backend.SendMessage(ctx, s.id(), content)
	if err != nil {
		return nil, err
	}

	// Both messages appear together. The snapshot never holds a user turn
	// without its reply.
	s.snapMu.Lock()
	s.conv.Messages = append(s.conv.Messages, exchange.UserMessage, exchange.AssistantMessage)
	s.snapMu.Unlock()

	log.Debug().
		Str("conversation_id", s.id().String()).
		Str("user_message_id", exchange.UserMessage.ID.String()).
		Str("assistant_message_id", exchange.AssistantMessage.ID.String()).
		Msg("exchange committed")

	events.PublishBlind(s.manager.publisher, &events.ExchangeCommitted{
		ConversationID:     s.id(),
		UserMessageID:      exchange.UserMessage.ID,
		AssistantMessageID: exchange.AssistantMessage.ID,
	})

	return exchange, nil
}

// Finish transitions the conversation to ended and attaches the derived
// summary and tags, atomically. If summarization fails upstream the
// conversation remains active and Finish can be retried.
func (s *Session) Finish(ctx context.Context) (*conversation.Conversation, error) {
	l := s.manager.lock(s.id())
	l.Lock()
	defer l.Unlock()

	s.snapMu.RLock()
	ended := s.conv.Ended()
	s.snapMu.RUnlock()
	if ended {
		return nil, conversation.ErrAlreadyEnded
	}

	endedConv, err := s.manager.backend.EndConversation(ctx, s.id())
	if err != nil {
		return nil, err
	}

	s.snapMu.Lock()
	s.conv = endedConv.Clone()
	s.snapMu.Unlock()

	log.Info().
		Str("conversation_id", s.id().String()).
		Strs("tags", endedConv.Tags).
		Msg("conversation ended")

	events.PublishBlind(s.manager.publisher, &events.ConversationEnded{
		ConversationID: s.id(),
		Tags:           endedConv.Tags,
	})

	return endedConv.Clone(), nil
}

// Refresh re-fetches the conversation from the backend, discarding the local
// snapshot. Callers use this after abandoning an in-flight call, since the
// server may have applied it anyway.
func (s *Session) Refresh(ctx context.Context) error {
	conv, err := s.manager.backend.GetConversation(ctx, s.id())
	if err != nil {
		return err
	}

	s.snapMu.Lock()
	s.conv = conv
	s.snapMu.Unlock()

	return nil
}

func (s *Session) id() uuid.UUID {
	s.snapMu.RLock()
	defer s.snapMu.RUnlock()
	return s.conv.ID
}
