package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/conversation"
)

const SystemPrompt = "You are a concise conversation analyst."

const promptTemplate = `Summarize the conversation in 5-8 bullet points.
Write a 2-3 line abstract.
Finally output a line exactly like: TAGS: tag1, tag2, tag3

Conversation:
%s`

// Summarizer derives the summary text and tag set a conversation is ended
// with, computed over the full message sequence at the moment of finishing.
type Summarizer interface {
	Summarize(ctx context.Context, conv *conversation.Conversation) (string, []string, error)
}

// EngineSummarizer prompts a chat engine for the summary. The engine should
// carry the analyst system prompt, not the assistant one.
type EngineSummarizer struct {
	engine chat.Engine
}

var _ Summarizer = (*EngineSummarizer)(nil)

func NewEngineSummarizer(engine chat.Engine) *EngineSummarizer {
	return &EngineSummarizer{engine: engine}
}

func (s *EngineSummarizer) Summarize(
	ctx context.Context,
	conv *conversation.Conversation,
) (string, []string, error) {
	prompt := fmt.Sprintf(promptTemplate, conv.Transcript())

	reply, err := s.engine.RunInference(ctx, []*conversation.Message{
		conversation.NewMessage(conversation.RoleUser, prompt),
	})
	if err != nil {
		return "", nil, errors.Wrap(err, "could not summarize conversation")
	}

	return reply.Content, ParseTags(reply.Content), nil
}

// ParseTags extracts the trailing "TAGS: a, b, c" line from summarizer
// output, scanning bottom-up. A missing line yields an empty tag set, not an
// error.
func ParseTags(out string) []string {
	tags := []string{}

	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(strings.ToUpper(line), "TAGS:") {
			continue
		}

		_, rest, _ := strings.Cut(line, ":")
		for _, tag := range strings.Split(rest, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		break
	}

	return tags
}
