package embeddings

import (
	"container/list"
	"context"
	"sync"
)

type cacheEntry struct {
	embedding []float32
	element   *list.Element
}

// CachedProvider wraps an embedding provider with LRU caching, so that
// re-indexing unchanged messages and repeated queries don't hit the API.
type CachedProvider struct {
	provider Provider
	cache    map[string]cacheEntry
	lruList  *list.List
	maxSize  int
	mu       sync.Mutex
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider creates a new cached wrapper around an embedding provider.
// maxSize determines how many embeddings to keep in cache (default 1000).
func NewCachedProvider(provider Provider, maxSize int) *CachedProvider {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &CachedProvider{
		provider: provider,
		cache:    make(map[string]cacheEntry),
		lruList:  list.New(),
		maxSize:  maxSize,
	}
}

func (c *CachedProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	if entry, ok := c.cache[text]; ok {
		c.lruList.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.embedding, nil
	}
	c.mu.Unlock()

	embedding, err := c.provider.GenerateEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.insert(text, embedding)
	c.mu.Unlock()

	return embedding, nil
}

func (c *CachedProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	// Collect the texts we don't have yet, preserving their positions.
	missing := []string{}
	missingIdx := []int{}
	c.mu.Lock()
	for i, text := range texts {
		if entry, ok := c.cache[text]; ok {
			c.lruList.MoveToFront(entry.element)
			results[i] = entry.embedding
		} else {
			missing = append(missing, text)
			missingIdx = append(missingIdx, i)
		}
	}
	c.mu.Unlock()

	if len(missing) == 0 {
		return results, nil
	}

	generated, err := c.provider.GenerateBatchEmbeddings(ctx, missing)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i, embedding := range generated {
		results[missingIdx[i]] = embedding
		c.insert(missing[i], embedding)
	}
	c.mu.Unlock()

	return results, nil
}

// insert assumes c.mu is held.
func (c *CachedProvider) insert(text string, embedding []float32) {
	if entry, ok := c.cache[text]; ok {
		c.lruList.MoveToFront(entry.element)
		return
	}

	if c.lruList.Len() >= c.maxSize {
		oldest := c.lruList.Back()
		if oldest != nil {
			delete(c.cache, oldest.Value.(string))
			c.lruList.Remove(oldest)
		}
	}

	element := c.lruList.PushFront(text)
	c.cache[text] = cacheEntry{
		embedding: embedding,
		element:   element,
	}
}

func (c *CachedProvider) GetModel() EmbeddingModel {
	return c.provider.GetModel()
}

// ClearCache removes all cached embeddings
func (c *CachedProvider) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]cacheEntry)
	c.lruList.Init()
	c.mu.Unlock()
}

// Size returns the current number of cached embeddings
func (c *CachedProvider) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}
