package intelligence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/parley/pkg/conversation"
	"github.com/go-go-golems/parley/pkg/embeddings"
)

const (
	DefaultSemanticTopK    = 8
	DefaultSemanticSnippet = 350
	DefaultSyncConcurrency = 4
)

type indexEntry struct {
	conversationID uuid.UUID
	messageID      uuid.UUID
	content        string
	timestamp      time.Time
	vector         []float32
}

// EmbeddingIndex is a brute-force semantic index over the messages of ended
// conversations. Sync embeds not-yet-indexed messages; Search scores every
// entry against the query vector by cosine similarity.
type EmbeddingIndex struct {
	provider embeddings.Provider

	TopK        int
	SnippetLen  int
	Concurrency int

	mu      sync.RWMutex
	entries map[uuid.UUID]*indexEntry
}

func NewEmbeddingIndex(provider embeddings.Provider) *EmbeddingIndex {
	return &EmbeddingIndex{
		provider:    provider,
		TopK:        DefaultSemanticTopK,
		SnippetLen:  DefaultSemanticSnippet,
		Concurrency: DefaultSyncConcurrency,
		entries:     make(map[uuid.UUID]*indexEntry),
	}
}

// Sync indexes every message of every ended conversation that is not yet in
// the index. Embedding happens in parallel, bounded by Concurrency.
func (ix *EmbeddingIndex) Sync(ctx context.Context, convs []*conversation.Conversation) error {
	pending := []*indexEntry{}

	ix.mu.RLock()
	for _, conv := range convs {
		if !conv.Ended() {
			continue
		}
		for _, msg := range conv.Messages {
			if _, ok := ix.entries[msg.ID]; ok {
				continue
			}
			pending = append(pending, &indexEntry{
				conversationID: conv.ID,
				messageID:      msg.ID,
				content:        msg.Content,
				timestamp:      msg.Time,
			})
		}
	}
	ix.mu.RUnlock()

	if len(pending) == 0 {
		return nil
	}

	texts := make([]string, len(pending))
	for i, entry := range pending {
		texts[i] = entry.content
	}

	vectors, err := embeddings.ParallelGenerateEmbeddings(ctx, ix.provider, texts, ix.Concurrency)
	if err != nil {
		return err
	}

	ix.mu.Lock()
	for i, entry := range pending {
		entry.vector = vectors[i]
		ix.entries[entry.messageID] = entry
	}
	ix.mu.Unlock()

	log.Debug().
		Int("indexed", len(pending)).
		Msg("synced embedding index")

	return nil
}

// Search ranks indexed messages against the query by cosine similarity and
// returns the top hits. The query is assumed non-empty and trimmed.
func (ix *EmbeddingIndex) Search(ctx context.Context, query string) ([]Match, error) {
	queryVector, err := ix.provider.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	matches := make([]Match, 0, len(ix.entries))
	for _, entry := range ix.entries {
		msgID := entry.messageID
		timestamp := entry.timestamp
		matches = append(matches, Match{
			ConversationID: entry.conversationID,
			MessageID:      &msgID,
			Snippet:        truncate(entry.content, ix.SnippetLen),
			Timestamp:      &timestamp,
			Score:          float64(embeddings.Cosine(queryVector, entry.vector)),
		})
	}
	ix.mu.RUnlock()

	SortMatches(matches)

	topK := ix.TopK
	if topK <= 0 {
		topK = DefaultSemanticTopK
	}
	if len(matches) > topK {
		matches = matches[:topK]
	}

	return matches, nil
}

// Len returns the number of indexed messages.
func (ix *EmbeddingIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
