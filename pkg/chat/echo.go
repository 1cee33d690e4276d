package chat

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/go-go-golems/parley/pkg/conversation"
)

// EchoEngine is a deterministic engine for development and tests. It replies
// with the last user message, prefixed.
type EchoEngine struct {
	Prefix string
}

var _ Engine = (*EchoEngine)(nil)

func NewEchoEngine() *EchoEngine {
	return &EchoEngine{
		Prefix: "You said: ",
	}
}

func (e *EchoEngine) RunInference(
	ctx context.Context,
	msgs []*conversation.Message,
) (*conversation.Message, error) {
	if len(msgs) == 0 {
		return nil, errors.New("no input")
	}

	last := msgs[len(msgs)-1]
	if last.Role != conversation.RoleUser {
		return nil, errors.Errorf("expected trailing user message, got %q", last.Role)
	}

	return conversation.NewMessage(
		conversation.RoleAssistant,
		fmt.Sprintf("%s%s", e.Prefix, last.Content),
	), nil
}
