package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultWeights_SumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultWeights.Sum(), 1e-12)
	require.NoError(t, DefaultWeights.Validate())
}

func TestWeights_Validate(t *testing.T) {
	tests := []struct {
		name    string
		weights Weights
		wantErr bool
	}{
		{"defaults", DefaultWeights, false},
		{"skill only", Weights{Skill: 1}, false},
		{"even split", Weights{0.25, 0.25, 0.25, 0.25}, false},
		{"sum above one", Weights{0.5, 0.25, 0.2, 0.15}, true},
		{"sum below one", Weights{0.3, 0.25, 0.2, 0.15}, true},
		{"negative weight", Weights{1.1, -0.1, 0, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.weights.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWeights)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		scores   SubScores
		expected float64
	}{
		{"all perfect", SubScores{1, 1, 1, 1}, 1.0},
		{"all zero", SubScores{}, 0.0},
		{"only skill", SubScores{Skill: 1}, 0.4},
		{"weighted mix", SubScores{0.5, 0.8, 0.5, 1.0}, 0.65},
		{"rounded to three decimals", SubScores{0.3333, 1, 0.5, 1}, 0.633},
		{"out of range inputs are clamped", SubScores{2, -1, 1, 1}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DefaultWeights.Aggregate(tt.scores), 1e-9)
		})
	}
}

func TestAggregate_AlwaysWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		s := SubScores{
			Skill:        rng.Float64()*3 - 1,
			Experience:   rng.Float64()*3 - 1,
			Interest:     rng.Float64()*3 - 1,
			Availability: rng.Float64()*3 - 1,
		}
		score := DefaultWeights.Aggregate(s)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func results(scores ...float64) []MatchResult {
	out := make([]MatchResult, len(scores))
	for i, s := range scores {
		out[i] = MatchResult{ID: string(rune('a' + i)), Score: s}
	}
	return out
}

func ids(rs []MatchResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestRank_FiltersSortsAndCaps(t *testing.T) {
	in := results(0.7, 0.9, 0.59, 0.6, 0.8)

	ranked := Rank(in, 0.6, 0)
	assert.Equal(t, []string{"b", "e", "a", "d"}, ids(ranked))

	capped := Rank(in, 0.6, 2)
	assert.Equal(t, []string{"b", "e"}, ids(capped))
}

func TestRank_TiesKeepInputOrder(t *testing.T) {
	in := results(0.7, 0.8, 0.7, 0.8, 0.7)

	ranked := Rank(in, 0, 0)
	assert.Equal(t, []string{"b", "d", "a", "c", "e"}, ids(ranked))
}

func TestRank_ThresholdMonotonicity(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	scores := make([]float64, 50)
	for i := range scores {
		scores[i] = round3(rng.Float64())
	}
	in := results(scores...)

	prev := len(in) + 1
	for threshold := 0.0; threshold <= 1.0; threshold += 0.05 {
		ranked := Rank(in, threshold, 0)
		assert.LessOrEqual(t, len(ranked), prev)
		for i, r := range ranked {
			assert.GreaterOrEqual(t, r.Score, threshold)
			if i > 0 {
				assert.GreaterOrEqual(t, ranked[i-1].Score, r.Score)
			}
		}
		prev = len(ranked)
	}
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	in := results(0.2, 0.9, 0.5)
	_ = Rank(in, 0, 1)
	assert.Equal(t, []string{"a", "b", "c"}, ids(in))
}

func TestRank_EmptyInput(t *testing.T) {
	ranked := Rank(nil, 0.6, 10)
	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}
