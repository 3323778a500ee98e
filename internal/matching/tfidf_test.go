package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	terms := analyze("Python, React and the C++ developer")

	assert.Equal(t, []string{
		"python", "react", "developer",
		"python react", "react developer",
	}, terms)
}

func TestAnalyze_OnlyStopWords(t *testing.T) {
	assert.Empty(t, analyze("the and of a is it"))
}

func TestTFIDFEngine_Similarities(t *testing.T) {
	engine := NewTFIDFEngine(0)
	ctx := context.Background()

	scores, err := engine.Similarities(ctx, "python machine learning", []string{
		"python machine learning",
		"python web apps",
		"rust embedded firmware",
		"",
	})
	require.NoError(t, err)
	require.Len(t, scores, 4)

	assert.InDelta(t, 1.0, scores[0], 1e-9)
	assert.Greater(t, scores[1], 0.0)
	assert.Less(t, scores[1], scores[0])
	assert.Equal(t, 0.0, scores[2])
	assert.Equal(t, 0.0, scores[3], "blank candidate scores zero")

	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestTFIDFEngine_EdgeCases(t *testing.T) {
	engine := NewTFIDFEngine(DefaultMaxFeatures)
	ctx := context.Background()

	t.Run("no candidates", func(t *testing.T) {
		scores, err := engine.Similarities(ctx, "python", nil)
		require.NoError(t, err)
		assert.Empty(t, scores)
	})

	t.Run("blank query", func(t *testing.T) {
		scores, err := engine.Similarities(ctx, "   ", []string{"python", "go"})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, scores)
	})

	t.Run("degenerate vocabulary", func(t *testing.T) {
		scores, err := engine.Similarities(ctx, "the and", []string{"of it", "a"})
		assert.ErrorIs(t, err, ErrEmptyVocabulary)
		assert.Equal(t, []float64{0, 0}, scores)
	})
}

func TestTFIDFEngine_JointFitIsPerCall(t *testing.T) {
	engine := NewTFIDFEngine(DefaultMaxFeatures)
	ctx := context.Background()

	first, err := engine.Similarities(ctx, "python django", []string{"python flask"})
	require.NoError(t, err)
	again, err := engine.Similarities(ctx, "python django", []string{"python flask"})
	require.NoError(t, err)

	assert.Equal(t, first, again, "no state may leak between calls")
}

func TestTFIDFEngine_FitVocabularyCapsFeatures(t *testing.T) {
	engine := NewTFIDFEngine(2)

	vocab := engine.fitVocabulary([][]string{
		{"go", "go", "rust", "zig"},
		{"go", "rust", "c"},
	})

	assert.Len(t, vocab, 2)
	assert.Contains(t, vocab, "go")
	assert.Contains(t, vocab, "rust")
}

func TestTFIDFEngine_FitVocabularyBreaksTiesAlphabetically(t *testing.T) {
	engine := NewTFIDFEngine(2)

	vocab := engine.fitVocabulary([][]string{{"zeta", "alpha", "mid"}})

	assert.Equal(t, map[string]int{"alpha": 0, "mid": 1}, vocab)
}

func TestInverseDocumentFrequency_Smoothed(t *testing.T) {
	docs := [][]string{{"go"}, {"go", "rust"}, {"python"}}
	vocab := map[string]int{"go": 0, "python": 1, "rust": 2}

	idf := inverseDocumentFrequency(docs, vocab)

	// ln((1+3)/(1+df)) + 1
	assert.InDelta(t, 1.2876820724517808, idf[0], 1e-12)
	assert.InDelta(t, 1.6931471805599454, idf[1], 1e-12)
	assert.InDelta(t, 1.6931471805599454, idf[2], 1e-12)
}
