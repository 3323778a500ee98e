// internal/matching/similarity.go
package matching

import (
	"context"
	"errors"
	"math"
	"strings"
)

// SimilarityEngine scores every candidate text against the query in a single batched call.
// Results are index-aligned with candidates and lie in [0,1]. Scores from two different
// calls share no vector space and must not be compared.
type SimilarityEngine interface {
	Name() string
	Similarities(ctx context.Context, query string, candidates []string) ([]float64, error)
}

var (
	ErrEmptyVocabulary   = errors.New("empty vocabulary: texts produced no features")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
)

// zeroScores is the degraded result for a batch whose similarity could not be computed.
func zeroScores(n int) []float64 {
	return make([]float64, n)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
