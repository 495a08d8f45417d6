package ranker

import (
	"context"
	"fmt"
	"sort"
)

// Embedder turns texts into embedding vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Ranker orders chunks by similarity to a query.
// Scores are plain dot products; the embedding model is expected to return
// unit-length vectors so the score equals cosine similarity.
type Ranker struct {
	embedder Embedder
}

// NewRanker creates a ranker backed by the given embedder
func NewRanker(embedder Embedder) *Ranker {
	return &Ranker{embedder: embedder}
}

// Rank returns the k chunks most similar to query, best first.
// k is capped at len(chunks); k <= 0 returns nothing.
func (r *Ranker) Rank(ctx context.Context, query string, chunks []string, k int) ([]string, error) {
	if len(chunks) == 0 || k <= 0 {
		return nil, nil
	}

	queryVecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(queryVecs) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(queryVecs))
	}

	chunkVecs, err := r.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(chunkVecs) != len(chunks) {
		return nil, fmt.Errorf("expected %d chunk embeddings, got %d", len(chunks), len(chunkVecs))
	}

	type scored struct {
		index int
		score float64
	}
	scores := make([]scored, len(chunks))
	for i, vec := range chunkVecs {
		s, err := Dot(queryVecs[0], vec)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		scores[i] = scored{index: i, score: s}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	k = min(k, len(chunks))
	top := make([]string, k)
	for i := 0; i < k; i++ {
		top[i] = chunks[scores[i].index]
	}
	return top, nil
}

// Dot returns the dot product of two vectors of equal length
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum, nil
}
