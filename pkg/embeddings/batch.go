package embeddings

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ParallelGenerateEmbeddings embeds each text concurrently with a limit on
// concurrency. Useful for providers with per-request rate limits when
// backfilling an index.
func ParallelGenerateEmbeddings(
	ctx context.Context,
	p Provider,
	texts []string,
	maxConcurrency int,
) ([][]float32, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}

	results := make([][]float32, len(texts))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrency)

	for i, text := range texts {
		i, text := i, text
		eg.Go(func() error {
			embedding, err := p.GenerateEmbedding(ctx, text)
			if err != nil {
				return err
			}
			results[i] = embedding
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
