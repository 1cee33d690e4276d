package chat

import (
	"context"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// Engine produces the assistant side of an exchange. Given the conversation
// history (ending with the user message awaiting a reply), it returns exactly
// one assistant message, or an error and nothing else.
type Engine interface {
	RunInference(ctx context.Context, msgs []*conversation.Message) (*conversation.Message, error)
}
