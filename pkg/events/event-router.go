package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// EventRouter wires an in-process gochannel pubsub to handler functions.
// The CLI uses it to observe lifecycle events while a chat is running.
type EventRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		if verbose {
			r.logger = NewWatermillAdapter(log.Logger)
		}
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	ret := &EventRouter{
		logger: watermill.NopLogger{},
	}

	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{}, ret.logger)
	ret.Publisher = goPubSub
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}
	ret.router = router

	return ret, nil
}

// AddHandler registers f for every event published on topic. Payloads that
// don't parse are logged and skipped, they never kill the handler.
func (e *EventRouter) AddHandler(name string, topic string, f func(ctx context.Context, ev Event) error) {
	e.router.AddNoPublisherHandler(name, topic, e.Subscriber, func(msg *message.Message) error {
		ev, err := NewEventFromJSON(msg.Payload)
		if err != nil {
			log.Error().Err(err).Str("message_id", msg.UUID).Msg("failed to parse event")
			return nil
		}
		return f(msg.Context(), ev)
	})
}

// Run blocks until ctx is done or the router is closed.
func (e *EventRouter) Run(ctx context.Context) error {
	return e.router.Run(ctx)
}

// Running returns a channel that is closed once the router is running and
// handlers are attached.
func (e *EventRouter) Running() chan struct{} {
	return e.router.Running()
}

func (e *EventRouter) Close() error {
	log.Debug().Msg("closing event router publisher")
	if err := e.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close pubsub")
	}
	return e.router.Close()
}

// WatermillAdapter forwards watermill logs to zerolog, mapping INFO down to
// DEBUG because watermill is chatty.
type WatermillAdapter struct {
	logger zerolog.Logger
}

var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)

func NewWatermillAdapter(logger zerolog.Logger) *WatermillAdapter {
	return &WatermillAdapter{logger: logger}
}

func (w *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	w.logger.Error().Fields(map[string]interface{}(fields)).Err(err).Msg(msg)
}

func (w *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	w.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (w *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	w.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (w *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	w.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (w *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	l := w.logger.With().Fields(map[string]interface{}(fields)).Logger()
	return &WatermillAdapter{logger: l}
}
