// internal/matching/aggregate.go
package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	DefaultThreshold = 0.6
	DefaultLimit     = 10

	weightTolerance = 1e-9
)

var ErrInvalidWeights = errors.New("invalid weights")

type Weights struct {
	Skill        float64 `mapstructure:"skill" json:"skill"`
	Experience   float64 `mapstructure:"experience" json:"experience"`
	Interest     float64 `mapstructure:"interest" json:"interest"`
	Availability float64 `mapstructure:"availability" json:"availability"`
}

// DefaultWeights: skill 40%, experience 25%, interest 20%, availability 15%.
var DefaultWeights = Weights{
	Skill:        0.40,
	Experience:   0.25,
	Interest:     0.20,
	Availability: 0.15,
}

func (w Weights) Sum() float64 {
	return w.Skill + w.Experience + w.Interest + w.Availability
}

// Validate requires non-negative weights summing to 1 so the final score stays a convex combination.
func (w Weights) Validate() error {
	if w.Skill < 0 || w.Experience < 0 || w.Interest < 0 || w.Availability < 0 {
		return fmt.Errorf("%w: negative weight in %+v", ErrInvalidWeights, w)
	}
	if math.Abs(w.Sum()-1.0) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %.6f, want 1.0", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// Aggregate returns the weighted score rounded to 3 decimals and clamped to [0,1].
func (w Weights) Aggregate(s SubScores) float64 {
	score := w.Skill*clamp01(s.Skill) +
		w.Experience*clamp01(s.Experience) +
		w.Interest*clamp01(s.Interest) +
		w.Availability*clamp01(s.Availability)
	return round3(clamp01(score))
}

// Rank drops results below threshold, sorts the rest by score descending keeping input
// order among equal scores, and truncates to limit (limit <= 0 means no cap).
func Rank(results []MatchResult, threshold float64, limit int) []MatchResult {
	kept := make([]MatchResult, 0, len(results))
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
