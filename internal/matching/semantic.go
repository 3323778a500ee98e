// internal/matching/semantic.go
package matching

import (
	"context"
	"fmt"
)

const BackendSemantic = "semantic"

// Embedder turns texts into dense vectors, one per input, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SemanticEngine embeds the query and all non-empty candidates in one batch and rescales
// cosine similarity from [-1,1] to [0,1].
type SemanticEngine struct {
	embedder Embedder
}

func NewSemanticEngine(embedder Embedder) *SemanticEngine {
	return &SemanticEngine{embedder: embedder}
}

func (e *SemanticEngine) Name() string { return BackendSemantic }

func (e *SemanticEngine) Similarities(ctx context.Context, query string, candidates []string) ([]float64, error) {
	scores := zeroScores(len(candidates))
	if len(candidates) == 0 || isBlank(query) {
		return scores, nil
	}

	texts := []string{query}
	positions := make([]int, 0, len(candidates))
	for i, c := range candidates {
		if isBlank(c) {
			continue
		}
		texts = append(texts, c)
		positions = append(positions, i)
	}
	if len(positions) == 0 {
		return scores, nil
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return scores, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return scores, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
	}

	queryVec := toFloat64(vectors[0])
	for k, pos := range positions {
		candVec := toFloat64(vectors[k+1])
		if len(candVec) != len(queryVec) {
			return zeroScores(len(candidates)), ErrDimensionMismatch
		}
		scores[pos] = clamp01((cosine(queryVec, candVec) + 1) / 2)
	}
	return scores, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
