package events

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type EventType string

const (
	EventTypeExchangeCommitted EventType = "exchange.committed"
	EventTypeConversationEnded EventType = "conversation.ended"
	EventTypeQueryCompleted    EventType = "query.completed"
)

// TopicLifecycle carries all conversation lifecycle events.
const TopicLifecycle = "parley.lifecycle"

type Event interface {
	Type() EventType
}

// ExchangeCommitted is published after a (user, assistant) pair has been
// committed to a conversation.
type ExchangeCommitted struct {
	ConversationID     uuid.UUID `json:"conversation_id"`
	UserMessageID      uuid.UUID `json:"user_message_id"`
	AssistantMessageID uuid.UUID `json:"assistant_message_id"`
}

func (e *ExchangeCommitted) Type() EventType {
	return EventTypeExchangeCommitted
}

// ConversationEnded is published after a conversation has transitioned to
// ended and acquired its summary and tags.
type ConversationEnded struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Tags           []string  `json:"tags"`
}

func (e *ConversationEnded) Type() EventType {
	return EventTypeConversationEnded
}

// QueryCompleted is published after an intelligence query has returned.
type QueryCompleted struct {
	Query      string `json:"query"`
	MatchCount int    `json:"match_count"`
}

func (e *QueryCompleted) Type() EventType {
	return EventTypeQueryCompleted
}

type envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalEvent wraps an event in a typed envelope for the wire.
func MarshalEvent(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: e.Type(), Payload: payload})
}

// NewEventFromJSON parses an envelope back into a typed event.
func NewEventFromJSON(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "could not parse event envelope")
	}

	var e Event
	switch env.Type {
	case EventTypeExchangeCommitted:
		e = &ExchangeCommitted{}
	case EventTypeConversationEnded:
		e = &ConversationEnded{}
	case EventTypeQueryCompleted:
		e = &QueryCompleted{}
	default:
		return nil, errors.Errorf("unknown event type %q", env.Type)
	}

	if err := json.Unmarshal(env.Payload, e); err != nil {
		return nil, errors.Wrapf(err, "could not parse %s payload", env.Type)
	}

	return e, nil
}
