package embeddings

import (
	"context"
	"math"
)

// EmbeddingModel contains metadata about the embedding model
type EmbeddingModel struct {
	Name       string
	Dimensions int
}

// Provider defines the interface for generating embeddings
type Provider interface {
	// GenerateEmbedding creates an embedding vector for the given text
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateBatchEmbeddings creates embedding vectors for multiple texts at once
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// GetModel returns information about the embedding model being used
	GetModel() EmbeddingModel
}

// Cosine returns the cosine similarity of two vectors. A small epsilon in the
// denominator keeps zero vectors from dividing by zero.
func Cosine(a []float32, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	return float32(dot / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-9))
}
