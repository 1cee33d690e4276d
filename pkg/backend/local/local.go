package local

// The local backend runs the full collaborator stack in-process: a store for
// persistence, a chat engine for assistant replies, a summarizer for ending
// conversations, and the intelligence engine for queries. It is the reference
// implementation of the backend contract and what the CLI uses when no remote
// server is configured.

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/backend"
	"github.com/go-go-golems/parley/pkg/chat"
	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/intelligence"
	"github.com/go-go-golems/parley/pkg/store"
	"github.com/go-go-golems/parley/pkg/summarize"
)

type LocalBackend struct {
	store      store.Store
	engine     chat.Engine
	summarizer summarize.Summarizer

	keyword  *intelligence.KeywordScorer
	index    *intelligence.EmbeddingIndex
	answerer *intelligence.Answerer
}

var _ backend.Backend = (*LocalBackend)(nil)

type Option func(*LocalBackend)

// WithEmbeddingIndex enables semantic retrieval over ended conversations.
// The index feeds answer synthesis; returned matches stay keyword-ranked so
// their score ordering remains a single monotonic scale.
func WithEmbeddingIndex(index *intelligence.EmbeddingIndex) Option {
	return func(b *LocalBackend) {
		b.index = index
	}
}

// WithAnswerer synthesizes query answers through a chat engine instead of
// the plain excerpt count.
func WithAnswerer(answerer *intelligence.Answerer) Option {
	return func(b *LocalBackend) {
		b.answerer = answerer
	}
}

func WithKeywordScorer(scorer *intelligence.KeywordScorer) Option {
	return func(b *LocalBackend) {
		b.keyword = scorer
	}
}

func NewLocalBackend(
	s store.Store,
	engine chat.Engine,
	summarizer summarize.Summarizer,
	options ...Option,
) *LocalBackend {
	ret := &LocalBackend{
		store:      s,
		engine:     engine,
		summarizer: summarizer,
		keyword:    intelligence.NewKeywordScorer(),
		answerer:   intelligence.NewAnswerer(nil),
	}

	for _, option := range options {
		option(ret)
	}

	return ret
}

func (b *LocalBackend) CreateConversation(ctx context.Context, title string) (*conversation.Conversation, error) {
	conv, err := b.store.Create(ctx, title)
	if err != nil {
		return nil, conversation.NewUpstreamError("create", err)
	}
	return conv, nil
}

func (b *LocalBackend) ListConversations(ctx context.Context) ([]*conversation.Overview, error) {
	overviews, err := b.store.List(ctx)
	if err != nil {
		return nil, conversation.NewUpstreamError("list", err)
	}
	return overviews, nil
}

func (b *LocalBackend) GetConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	return b.store.Get(ctx, id)
}

func (b *LocalBackend) SendMessage(ctx context.Context, id uuid.UUID, content string) (*backend.Exchange, error) {
	conv, err := b.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Ended() {
		return nil, conversation.ErrConversationEnded
	}

	userMsg := conversation.NewMessage(conversation.RoleUser, content)
	history := append(append([]*conversation.Message{}, conv.Messages...), userMsg)

	// The reply is generated before anything is committed. If generation
	// fails, the user message is not committed either, so the sequence never
	// contains an unanswered user turn.
	assistantMsg, err := b.engine.RunInference(ctx, history)
	if err != nil {
		return nil, conversation.NewUpstreamError("generate", err)
	}

	if _, err := b.store.AppendPair(ctx, id, userMsg, assistantMsg); err != nil {
		return nil, err
	}

	return &backend.Exchange{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
	}, nil
}

func (b *LocalBackend) EndConversation(ctx context.Context, id uuid.UUID) (*conversation.Conversation, error) {
	conv, err := b.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.Ended() {
		return nil, conversation.ErrAlreadyEnded
	}

	// Summarize first, commit after. A summarizer failure leaves the
	// conversation active and the end retryable. A blank summary counts as a
	// failure: every ended conversation carries one.
	summary, tags, err := b.summarizer.Summarize(ctx, conv)
	if err != nil {
		return nil, conversation.NewUpstreamError("summarize", err)
	}
	if strings.TrimSpace(summary) == "" {
		return nil, conversation.NewUpstreamError("summarize", errors.New("summarizer returned an empty summary"))
	}

	ended, err := b.store.End(ctx, id, summary, tags)
	if err != nil {
		return nil, err
	}

	return ended, nil
}

func (b *LocalBackend) Query(ctx context.Context, text string) (*intelligence.Result, error) {
	text = strings.TrimSpace(text)

	convs, err := b.store.All(ctx)
	if err != nil {
		return nil, conversation.NewUpstreamError("search", err)
	}

	matches := b.keyword.Search(text, convs)

	// Semantic hits only steer answer synthesis; the ranked matches handed
	// back to the caller are the keyword ones.
	contextMatches := matches
	if b.index != nil {
		if err := b.index.Sync(ctx, convs); err != nil {
			return nil, conversation.NewUpstreamError("search", err)
		}
		semantic, err := b.index.Search(ctx, text)
		if err != nil {
			return nil, conversation.NewUpstreamError("search", err)
		}
		if len(semantic) > 0 {
			contextMatches = semantic
		}
	}

	answer, err := b.answerer.Answer(ctx, text, contextMatches)
	if err != nil {
		return nil, conversation.NewUpstreamError("answer", err)
	}

	log.Debug().
		Str("query", text).
		Int("match_count", len(matches)).
		Msg("query completed")

	return &intelligence.Result{
		Answer:  answer,
		Matches: matches,
	}, nil
}
