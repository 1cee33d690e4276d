package chat

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/tokens"
)

const DefaultSystemPrompt = "You are a concise, helpful assistant."

// OpenAIEngine generates assistant replies through the OpenAI chat
// completions API.
type OpenAIEngine struct {
	client       *go_openai.Client
	model        string
	systemPrompt string

	counter       *tokens.Counter
	historyBudget int
}

var _ Engine = (*OpenAIEngine)(nil)

type OpenAIOption func(*OpenAIEngine)

func WithModel(model string) OpenAIOption {
	return func(e *OpenAIEngine) {
		e.model = model
	}
}

func WithSystemPrompt(prompt string) OpenAIOption {
	return func(e *OpenAIEngine) {
		e.systemPrompt = prompt
	}
}

// WithHistoryBudget caps the prompt history at budget tokens, dropping the
// oldest messages first.
func WithHistoryBudget(counter *tokens.Counter, budget int) OpenAIOption {
	return func(e *OpenAIEngine) {
		e.counter = counter
		e.historyBudget = budget
	}
}

func WithClient(client *go_openai.Client) OpenAIOption {
	return func(e *OpenAIEngine) {
		e.client = client
	}
}

func NewOpenAIEngine(apiKey string, options ...OpenAIOption) *OpenAIEngine {
	ret := &OpenAIEngine{
		client:       go_openai.NewClient(apiKey),
		model:        go_openai.GPT4oMini,
		systemPrompt: DefaultSystemPrompt,
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

func (e *OpenAIEngine) RunInference(
	ctx context.Context,
	msgs []*conversation.Message,
) (*conversation.Message, error) {
	history := msgs
	if e.counter != nil && e.historyBudget > 0 {
		truncated, err := e.counter.TruncateHistory(msgs, e.historyBudget)
		if err != nil {
			return nil, errors.Wrap(err, "could not budget history")
		}
		if len(truncated) < len(msgs) {
			log.Debug().
				Int("dropped", len(msgs)-len(truncated)).
				Int("budget", e.historyBudget).
				Msg("truncated prompt history")
		}
		history = truncated
	}

	req := go_openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []go_openai.ChatCompletionMessage{
			{
				Role:    go_openai.ChatMessageRoleSystem,
				Content: e.systemPrompt,
			},
		},
	}
	for _, m := range history {
		req.Messages = append(req.Messages, go_openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	log.Debug().
		Str("model", e.model).
		Int("num_messages", len(req.Messages)).
		Msg("requesting chat completion")

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no completion choices returned")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		text = "..."
	}

	return conversation.NewMessage(conversation.RoleAssistant, text), nil
}
