// internal/matching/models.go
package matching

import (
	"errors"
	"fmt"
	"strings"
)

// ExperienceLevel is the ordinal self-assessed level of a user or the level a team is looking for.
type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
	LevelExpert       ExperienceLevel = "expert"
)

var levelRanks = map[ExperienceLevel]int{
	LevelBeginner:     1,
	LevelIntermediate: 2,
	LevelAdvanced:     3,
	LevelExpert:       4,
}

// Rank maps the level to 1..4. Unknown or empty levels rank as intermediate.
func (l ExperienceLevel) Rank() int {
	if r, ok := levelRanks[ExperienceLevel(strings.ToLower(strings.TrimSpace(string(l))))]; ok {
		return r
	}
	return levelRanks[LevelIntermediate]
}

// Known reports whether the level is one of the four recognised values.
func (l ExperienceLevel) Known() bool {
	_, ok := levelRanks[ExperienceLevel(strings.ToLower(strings.TrimSpace(string(l))))]
	return ok
}

var (
	ErrMissingID        = errors.New("profile id is required")
	ErrInvalidCapacity  = errors.New("current members exceed max members")
	ErrNegativeCapacity = errors.New("member counts must not be negative")
)

type User struct {
	ID              string          `json:"id"`
	Name            string          `json:"name,omitempty"`
	Skills          []string        `json:"skills"`
	Interests       []string        `json:"interests"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	Bio             string          `json:"bio,omitempty"`
	PreferredRole   string          `json:"preferred_role,omitempty"`
}

// Validate checks the fields the core cannot default.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrMissingID
	}
	return nil
}

// Normalize returns a copy with skills and interests case-folded and de-duplicated.
func (u User) Normalize() User {
	u.Skills = FoldSet(u.Skills)
	u.Interests = FoldSet(u.Interests)
	return u
}

type OpenRole struct {
	Title          string   `json:"title"`
	RequiredSkills []string `json:"required_skills"`
	Description    string   `json:"description,omitempty"`
}

type Team struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	ProjectIdea     string          `json:"project_idea,omitempty"`
	RequiredSkills  []string        `json:"required_skills"`
	TechStack       []string        `json:"tech_stack"`
	Domains         []string        `json:"domains"`
	ExperienceLevel ExperienceLevel `json:"experience_level,omitempty"`
	CurrentMembers  int             `json:"current_members"`
	MaxMembers      int             `json:"max_members"`
	OpenRoles       []OpenRole      `json:"open_roles"`
	EventID         string          `json:"event_id,omitempty"`
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrMissingID
	}
	if t.CurrentMembers < 0 || t.MaxMembers < 0 {
		return fmt.Errorf("team %s: %w", t.ID, ErrNegativeCapacity)
	}
	if t.CurrentMembers > t.MaxMembers {
		return fmt.Errorf("team %s: %w", t.ID, ErrInvalidCapacity)
	}
	return nil
}

func (t Team) SpotsLeft() int {
	return t.MaxMembers - t.CurrentMembers
}

// AllRequiredSkills is the case-folded union of the team-level skills and every open role's skills.
func (t Team) AllRequiredSkills() []string {
	all := make([]string, 0, len(t.RequiredSkills))
	all = append(all, t.RequiredSkills...)
	for _, role := range t.OpenRoles {
		all = append(all, role.RequiredSkills...)
	}
	return FoldSet(all)
}

// ExperienceNeed defaults to intermediate when the team did not state one.
func (t Team) ExperienceNeed() ExperienceLevel {
	if strings.TrimSpace(string(t.ExperienceLevel)) == "" {
		return LevelIntermediate
	}
	return t.ExperienceLevel
}

// SubScores is the per-factor breakdown of a match, each factor in [0,1].
type SubScores struct {
	Skill        float64 `json:"skill_match"`
	Experience   float64 `json:"experience_match"`
	Interest     float64 `json:"interest_match"`
	Availability float64 `json:"availability"`
}

func (s SubScores) rounded() SubScores {
	return SubScores{
		Skill:        round3(s.Skill),
		Experience:   round3(s.Experience),
		Interest:     round3(s.Interest),
		Availability: round3(s.Availability),
	}
}

type MatchResult struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Score     float64                `json:"score"`
	Reasons   []string               `json:"reasons"`
	Breakdown SubScores              `json:"breakdown"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Options are the per-request knobs a caller may override. Zero values fall back to the Matcher defaults.
type Options struct {
	Threshold *float64 `json:"threshold,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// WithThreshold is a convenience for building Options with an explicit threshold.
func WithThreshold(threshold float64, limit int) Options {
	return Options{Threshold: &threshold, Limit: limit}
}
