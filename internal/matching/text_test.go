package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserText(t *testing.T) {
	tests := []struct {
		name     string
		user     User
		expected string
	}{
		{
			name: "all fields in order",
			user: User{
				Skills:          []string{"python", "react"},
				Interests:       []string{"ai"},
				Bio:             "builds things",
				ExperienceLevel: LevelIntermediate,
			},
			expected: "python react python react ai builds things intermediate",
		},
		{
			name:     "missing fields add nothing",
			user:     User{Interests: []string{"health", " "}},
			expected: "health",
		},
		{
			name:     "empty profile",
			user:     User{ID: "u1"},
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildUserText(tt.user))
		})
	}
}

func TestBuildTeamText(t *testing.T) {
	tests := []struct {
		name     string
		team     Team
		expected string
	}{
		{
			name: "roles then idea stack and domains",
			team: Team{
				OpenRoles: []OpenRole{
					{Title: "Backend", RequiredSkills: []string{"go", "sql"}, Description: "owns the api"},
					{Title: "Designer", Description: "figma wizard"},
				},
				ProjectIdea: "carbon tracker",
				TechStack:   []string{"go", "postgres"},
				Domains:     []string{"climate"},
			},
			expected: "go sql go sql owns the api figma wizard carbon tracker go postgres climate",
		},
		{
			name: "flattened skills when no role lists any",
			team: Team{
				RequiredSkills: []string{"python", "django"},
				Domains:        []string{"ai"},
			},
			expected: "python django python django ai",
		},
		{
			name:     "empty team",
			team:     Team{ID: "t1"},
			expected: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildTeamText(tt.team))
		})
	}
}

func TestFoldSet(t *testing.T) {
	assert.Equal(t, []string{"python", "go"}, FoldSet([]string{" Python", "GO", "python", ""}))
	assert.Nil(t, FoldSet(nil))
}
