package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// Publisher is the narrow interface the session layer publishes lifecycle
// events through.
type Publisher interface {
	Publish(e Event) error
}

// NopPublisher drops all events. Sessions work without an event router.
type NopPublisher struct{}

var _ Publisher = (*NopPublisher)(nil)

func (NopPublisher) Publish(e Event) error {
	return nil
}

// TopicPublisher serializes events and publishes them onto a watermill topic.
type TopicPublisher struct {
	publisher message.Publisher
	topic     string
}

var _ Publisher = (*TopicPublisher)(nil)

func NewTopicPublisher(publisher message.Publisher, topic string) *TopicPublisher {
	if topic == "" {
		topic = TopicLifecycle
	}
	return &TopicPublisher{
		publisher: publisher,
		topic:     topic,
	}
}

func (p *TopicPublisher) Publish(e Event) error {
	b, err := MarshalEvent(e)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), b)
	return p.publisher.Publish(p.topic, msg)
}

// PublishBlind publishes and only logs failures. Event delivery is never
// allowed to fail a session operation.
func PublishBlind(p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(e); err != nil {
		log.Error().Err(err).Str("event_type", string(e.Type())).Msg("failed to publish event")
	}
}
