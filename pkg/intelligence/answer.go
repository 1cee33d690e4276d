package intelligence

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/conversation"
)

const AnalystSystemPrompt = "You are a precise conversation analyst. Cite conversation IDs like [C123]."

const answerTemplate = `Context:
%s

Question: %s

Answer using only the context. If uncertain, say so.`

// Answerer synthesizes the answer text over the top matches. Without an
// engine it falls back to a plain count, so queries still succeed when no
// generation collaborator is configured.
type Answerer struct {
	engine chat.Engine
}

func NewAnswerer(engine chat.Engine) *Answerer {
	return &Answerer{engine: engine}
}

func (a *Answerer) Answer(ctx context.Context, query string, matches []Match) (string, error) {
	if len(matches) == 0 {
		return "No relevant results found.", nil
	}

	if a == nil || a.engine == nil {
		return fmt.Sprintf("Found %d relevant excerpts.", len(matches)), nil
	}

	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("[C%s] %s", m.ConversationID, m.Snippet))
	}

	prompt := fmt.Sprintf(answerTemplate, strings.Join(lines, "\n\n"), query)

	reply, err := a.engine.RunInference(ctx, []*conversation.Message{
		conversation.NewMessage(conversation.RoleUser, prompt),
	})
	if err != nil {
		return "", errors.Wrap(err, "could not synthesize answer")
	}

	return reply.Content, nil
}
