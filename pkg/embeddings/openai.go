package embeddings

import (
	"context"

	"github.com/pkg/errors"
	go_openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client     *go_openai.Client
	model      go_openai.EmbeddingModel
	dimensions int
}

var _ Provider = (*OpenAIProvider)(nil)

func NewOpenAIProvider(apiKey string, model go_openai.EmbeddingModel, dimensions int) *OpenAIProvider {
	if model == "" {
		model = go_openai.SmallEmbedding3
	}
	if dimensions <= 0 {
		dimensions = 1536
	}

	return &OpenAIProvider{
		client:     go_openai.NewClient(apiKey),
		model:      model,
		dimensions: dimensions,
	}
}

func (p *OpenAIProvider) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	results, err := p.GenerateBatchEmbeddings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (p *OpenAIProvider) GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	resp, err := p.client.CreateEmbeddings(ctx, go_openai.EmbeddingRequest{
		Input: texts,
		Model: p.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	results := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		results[i] = d.Embedding
	}

	return results, nil
}

func (p *OpenAIProvider) GetModel() EmbeddingModel {
	return EmbeddingModel{
		Name:       string(p.model),
		Dimensions: p.dimensions,
	}
}
