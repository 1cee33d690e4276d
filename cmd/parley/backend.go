package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	go_openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
	"github.com/tiktoken-go/tokenizer"

	"github.com/go-go-golems/parley/pkg/backend"
	"github.com/go-go-golems/parley/pkg/backend/local"
	"github.com/go-go-golems/parley/pkg/backend/rest"
	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/embeddings"
	"github.com/go-go-golems/parley/pkg/intelligence"
	"github.com/go-go-golems/parley/pkg/store"
	"github.com/go-go-golems/parley/pkg/summarize"
	"github.com/go-go-golems/parley/pkg/tokens"
)

// buildBackend assembles the configured backend. The rest backend talks to a
// conversation server; the local backend runs the whole collaborator stack
// in-process, against OpenAI when an API key is configured and against the
// echo engine otherwise.
func buildBackend() (backend.Backend, error) {
	switch viper.GetString("backend") {
	case "rest":
		return rest.NewClient(viper.GetString("server-url")), nil
	case "local":
		return buildLocalBackend()
	default:
		return nil, errors.Errorf("unknown backend %q", viper.GetString("backend"))
	}
}

func buildLocalBackend() (backend.Backend, error) {
	apiKey := viper.GetString("openai-api-key")
	if apiKey == "" {
		log.Debug().Msg("no OpenAI API key configured, using echo engine")
		return local.NewLocalBackend(
			store.NewInMemoryStore(),
			chat.NewEchoEngine(),
			summarize.NewEngineSummarizer(chat.NewEchoEngine()),
		), nil
	}

	model := viper.GetString("openai-model")
	if model == "" {
		model = go_openai.GPT4oMini
	}

	var engineOptions []chat.OpenAIOption
	engineOptions = append(engineOptions, chat.WithModel(model))
	if budget := viper.GetInt("history-budget"); budget > 0 {
		counter, err := tokens.NewCounter(tokenizer.Cl100kBase)
		if err != nil {
			return nil, err
		}
		engineOptions = append(engineOptions, chat.WithHistoryBudget(counter, budget))
	}

	assistant := chat.NewOpenAIEngine(apiKey, engineOptions...)
	analyst := chat.NewOpenAIEngine(apiKey,
		chat.WithModel(model),
		chat.WithSystemPrompt(summarize.SystemPrompt),
	)
	answerEngine := chat.NewOpenAIEngine(apiKey,
		chat.WithModel(model),
		chat.WithSystemPrompt(intelligence.AnalystSystemPrompt),
	)

	options := []local.Option{
		local.WithAnswerer(intelligence.NewAnswerer(answerEngine)),
	}
	if viper.GetBool("semantic-search") {
		provider := embeddings.NewCachedProvider(
			embeddings.NewOpenAIProvider(apiKey, go_openai.SmallEmbedding3, 1536),
			1000,
		)
		options = append(options, local.WithEmbeddingIndex(intelligence.NewEmbeddingIndex(provider)))
	}

	return local.NewLocalBackend(
		store.NewInMemoryStore(),
		assistant,
		summarize.NewEngineSummarizer(analyst),
		options...,
	), nil
}
