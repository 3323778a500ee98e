// internal/matching/matcher.go
package matching

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"

	"golang.org/x/sync/errgroup"
)

var (
	ErrMatchFailed    = errors.New("MATCH_COMPUTATION_FAILED")
	ErrInvalidProfile = errors.New("INVALID_PROFILE")
)

const (
	DirectionUserToTeams = "user_to_teams"
	DirectionTeamToUsers = "team_to_users"
)

type Config struct {
	Weights           Weights
	Threshold         float64
	Limit             int
	Availability      AvailabilityPolicy
	Parallelism       int
	ParallelThreshold int
}

func DefaultConfig() *Config {
	return &Config{
		Weights:           DefaultWeights,
		Threshold:         DefaultThreshold,
		Limit:             DefaultLimit,
		Availability:      OpenSpotAvailability,
		Parallelism:       runtime.GOMAXPROCS(0),
		ParallelThreshold: 64,
	}
}

// Matcher composes text building, similarity, sub-scores, aggregation and explanations.
// It keeps no per-request state and is safe for concurrent use.
type Matcher struct {
	engine SimilarityEngine
	config *Config
	logger logger.Logger
}

func NewMatcher(engine SimilarityEngine, config *Config, log logger.Logger) (*Matcher, error) {
	if engine == nil {
		return nil, errors.New("similarity engine is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.Availability == nil {
		cfg.Availability = OpenSpotAvailability
	}
	if cfg.Limit < 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &Matcher{
		engine: engine,
		config: &cfg,
		logger: log.WithFields(map[string]interface{}{"backend": engine.Name()}),
	}, nil
}

// MatchUserToTeams ranks candidate teams for one user.
func (m *Matcher) MatchUserToTeams(ctx context.Context, user User, teams []Team, opts Options) ([]MatchResult, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: user: %v", ErrInvalidProfile, err)
	}
	user = user.Normalize()

	candidates := make([]Team, 0, len(teams))
	for _, t := range teams {
		if err := t.Validate(); err != nil {
			m.logger.Warn("skipping invalid team candidate", map[string]interface{}{
				"teamId": t.ID,
				"error":  err.Error(),
			})
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return []MatchResult{}, nil
	}

	texts := make([]string, len(candidates))
	for i, t := range candidates {
		texts[i] = BuildTeamText(t)
	}
	skill := m.similarities(ctx, BuildUserText(user), texts)

	results, err := m.scoreAll(ctx, len(candidates), func(i int) MatchResult {
		return m.teamResult(user, candidates[i], skill[i])
	})
	if err != nil {
		return nil, err
	}
	return m.rank(DirectionUserToTeams, results, opts), nil
}

// MatchTeamToUsers ranks candidate users for one team; the same factors apply with roles reversed.
func (m *Matcher) MatchTeamToUsers(ctx context.Context, team Team, users []User, opts Options) ([]MatchResult, error) {
	if err := team.Validate(); err != nil {
		return nil, fmt.Errorf("%w: team: %v", ErrInvalidProfile, err)
	}

	candidates := make([]User, 0, len(users))
	for _, u := range users {
		if err := u.Validate(); err != nil {
			m.logger.Warn("skipping invalid user candidate", map[string]interface{}{
				"userId": u.ID,
				"error":  err.Error(),
			})
			continue
		}
		candidates = append(candidates, u.Normalize())
	}
	if len(candidates) == 0 {
		return []MatchResult{}, nil
	}

	texts := make([]string, len(candidates))
	for i, u := range candidates {
		texts[i] = BuildUserText(u)
	}
	skill := m.similarities(ctx, BuildTeamText(team), texts)

	results, err := m.scoreAll(ctx, len(candidates), func(i int) MatchResult {
		return m.userResult(candidates[i], team, skill[i])
	})
	if err != nil {
		return nil, err
	}
	return m.rank(DirectionTeamToUsers, results, opts), nil
}

// Compatibility scores a single pair with no threshold or cap applied.
func (m *Matcher) Compatibility(ctx context.Context, user User, team Team) (*MatchResult, error) {
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: user: %v", ErrInvalidProfile, err)
	}
	if err := team.Validate(); err != nil {
		return nil, fmt.Errorf("%w: team: %v", ErrInvalidProfile, err)
	}
	user = user.Normalize()

	skill := m.similarities(ctx, BuildUserText(user), []string{BuildTeamText(team)})
	results, err := m.scoreAll(ctx, 1, func(int) MatchResult {
		return m.teamResult(user, team, skill[0])
	})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// similarities degrades to zero skill scores when the backend fails, so the other three
// factors still decide the match.
func (m *Matcher) similarities(ctx context.Context, query string, texts []string) []float64 {
	scores, err := m.engine.Similarities(ctx, query, texts)
	if err == nil && len(scores) == len(texts) {
		return scores
	}
	if err == nil {
		err = fmt.Errorf("engine returned %d scores for %d candidates", len(scores), len(texts))
	}
	m.logger.Warn("similarity computation failed, using zero skill scores", map[string]interface{}{
		"candidates": len(texts),
		"error":      err.Error(),
	})
	metrics.SimilarityDegraded.WithLabelValues(m.engine.Name()).Inc()
	return zeroScores(len(texts))
}

func (m *Matcher) subScores(user User, team Team, skill float64) SubScores {
	return SubScores{
		Skill:        clamp01(skill),
		Experience:   ExperienceFit(user.ExperienceLevel, team.ExperienceNeed()),
		Interest:     InterestOverlap(user.Interests, team.Domains),
		Availability: clamp01(m.config.Availability(team)),
	}
}

func (m *Matcher) teamResult(user User, team Team, skill float64) MatchResult {
	s := m.subScores(user, team, skill)
	return MatchResult{
		ID:        team.ID,
		Name:      team.Name,
		Score:     m.config.Weights.Aggregate(s),
		Reasons:   Explain(user, team, s.Skill, s.Experience, s.Interest),
		Breakdown: s.rounded(),
		Metadata: map[string]interface{}{
			"description":  team.Description,
			"project_idea": team.ProjectIdea,
			"tech_stack":   team.TechStack,
			"open_roles":   team.OpenRoles,
			"spots_left":   team.SpotsLeft(),
		},
	}
}

func (m *Matcher) userResult(user User, team Team, skill float64) MatchResult {
	s := m.subScores(user, team, skill)
	name := user.Name
	if name == "" {
		name = user.ID
	}
	return MatchResult{
		ID:        user.ID,
		Name:      name,
		Score:     m.config.Weights.Aggregate(s),
		Reasons:   Explain(user, team, s.Skill, s.Experience, s.Interest),
		Breakdown: s.rounded(),
		Metadata: map[string]interface{}{
			"skills":           user.Skills,
			"experience_level": user.ExperienceLevel,
			"preferred_role":   user.PreferredRole,
		},
	}
}

// scoreAll fills one result per candidate, fanning out over a bounded pool for large batches.
// All results are in place before anything is ranked. A panic while scoring fails the whole
// request with ErrMatchFailed.
func (m *Matcher) scoreAll(ctx context.Context, n int, score func(i int) MatchResult) ([]MatchResult, error) {
	results := make([]MatchResult, n)

	run := func(i int) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: candidate %d: %v", ErrMatchFailed, i, r)
			}
		}()
		results[i] = score(i)
		return nil
	}

	if n < m.config.ParallelThreshold || m.config.Parallelism == 1 {
		for i := 0; i < n; i++ {
			if err := run(i); err != nil {
				return nil, err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.Parallelism)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return run(i)
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrMatchFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMatchFailed, err)
	}
	return results, nil
}

func (m *Matcher) rank(direction string, results []MatchResult, opts Options) []MatchResult {
	start := time.Now()
	threshold := m.config.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	limit := m.config.Limit
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	ranked := Rank(results, threshold, limit)

	metrics.CandidatesScored.WithLabelValues(direction).Add(float64(len(results)))
	m.logger.Debug("candidates ranked", map[string]interface{}{
		"direction":  direction,
		"scored":     len(results),
		"returned":   len(ranked),
		"threshold":  threshold,
		"limit":      limit,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return ranked
}
