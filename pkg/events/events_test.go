package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "exchange committed",
			event: &ExchangeCommitted{
				ConversationID:     uuid.New(),
				UserMessageID:      uuid.New(),
				AssistantMessageID: uuid.New(),
			},
		},
		{
			name: "conversation ended",
			event: &ConversationEnded{
				ConversationID: uuid.New(),
				Tags:           []string{"travel", "budget"},
			},
		},
		{
			name: "query completed",
			event: &QueryCompleted{
				Query:      "refund policy",
				MatchCount: 3,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := MarshalEvent(tt.event)
			require.NoError(t, err)

			parsed, err := NewEventFromJSON(b)
			require.NoError(t, err)
			assert.Equal(t, tt.event, parsed)
		})
	}
}

func TestNewEventFromJSONRejectsUnknownType(t *testing.T) {
	_, err := NewEventFromJSON([]byte(`{"type":"mystery","payload":{}}`))
	require.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	require.NoError(t, NopPublisher{}.Publish(&QueryCompleted{Query: "x"}))
}

type failingPublisher struct{}

func (failingPublisher) Publish(e Event) error {
	return assert.AnError
}

func TestPublishBlindSwallowsFailures(t *testing.T) {
	assert.NotPanics(t, func() {
		PublishBlind(failingPublisher{}, &QueryCompleted{Query: "x"})
		PublishBlind(nil, &QueryCompleted{Query: "x"})
	})
}
