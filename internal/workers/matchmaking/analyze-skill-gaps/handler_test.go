package analyzeskillgaps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmaking-workers/internal/common/config"
	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
)

type fakeLookup struct {
	users map[string]*matching.User
	teams map[string]*matching.Team
	calls []string
}

func (f *fakeLookup) GetUser(_ context.Context, id string) (*matching.User, error) {
	f.calls = append(f.calls, "user:"+id)
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, matching.ErrProfileNotFound)
}

func (f *fakeLookup) GetTeam(_ context.Context, id string) (*matching.Team, error) {
	f.calls = append(f.calls, "team:"+id)
	if t, ok := f.teams[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("team %s: %w", id, matching.ErrProfileNotFound)
}

func newLookup() *fakeLookup {
	return &fakeLookup{
		users: map[string]*matching.User{
			"user-1": {ID: "user-1", Skills: []string{"Go", "PostgreSQL"}},
		},
		teams: map[string]*matching.Team{
			"team-1": {
				ID:        "team-1",
				TechStack: []string{"React"},
				OpenRoles: []matching.OpenRole{
					{Title: "backend", RequiredSkills: []string{"Go", "Kafka"}},
					{Title: "frontend", RequiredSkills: []string{"React"}},
				},
			},
		},
	}
}

// ==========================================
// Input Parsing
// ==========================================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"inline skills", `{"currentSkills":["Go"],"requiredSkills":["Go","Rust"]}`, false},
		{"team only", `{"teamId":"team-1"}`, false},
		{"user and team", `{"userId":"user-1","teamId":"team-1"}`, false},
		{"nothing required", `{"currentSkills":["Go"]}`, true},
		{"skills not strings", `{"requiredSkills":[1,2]}`, true},
		{"malformed", `{"requiredSkills":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				stdErr, ok := apperrors.AsStandardError(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.ErrCodeInvalidMatchRequest, stdErr.Code)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// ==========================================
// Execution
// ==========================================

func TestHandler_Execute_InlineSkills(t *testing.T) {
	lookup := newLookup()
	h := NewHandler(&Config{Timeout: time.Second}, lookup, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{
		CurrentSkills:  []string{"go", "Docker"},
		RequiredSkills: []string{"Go", "Kubernetes"},
	})
	require.NoError(t, err)

	assert.Empty(t, lookup.calls)
	assert.Equal(t, []string{"go"}, output.CoveredSkills)
	assert.Equal(t, []string{"kubernetes"}, output.MissingSkills)
	assert.Equal(t, 50.0, output.CoveragePercent)
	assert.Equal(t, "needs_improvement", output.SkillStatus)
	assert.Equal(t, map[string]string{"Go": "green", "Kubernetes": "red"}, output.SkillHeatmap)
}

func TestHandler_Execute_ResolvesProfiles(t *testing.T) {
	tests := []struct {
		name        string
		input       *Input
		wantCalls   []string
		wantCovered []string
		wantMissing []string
	}{
		{
			name:        "team against its own stack",
			input:       &Input{TeamID: "team-1"},
			wantCalls:   []string{"team:team-1"},
			wantCovered: []string{"react"},
			wantMissing: []string{"go", "kafka"},
		},
		{
			name:        "user against team roles",
			input:       &Input{UserID: "user-1", TeamID: "team-1"},
			wantCalls:   []string{"team:team-1", "user:user-1"},
			wantCovered: []string{"go"},
			wantMissing: []string{"kafka", "react"},
		},
		{
			name:        "user against inline requirements",
			input:       &Input{UserID: "user-1", RequiredSkills: []string{"PostgreSQL"}},
			wantCalls:   []string{"user:user-1"},
			wantCovered: []string{"postgresql"},
			wantMissing: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := newLookup()
			h := NewHandler(&Config{Timeout: time.Second}, lookup, logger.NewNoOpLogger())

			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCalls, lookup.calls)
			assert.Equal(t, tt.wantCovered, output.CoveredSkills)
			assert.Equal(t, tt.wantMissing, output.MissingSkills)
		})
	}
}

func TestHandler_Execute_UnknownTeam(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second}, newLookup(), logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{TeamID: "ghost"})
	require.Error(t, err)

	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
}

func TestConfigFrom_DefaultTimeout(t *testing.T) {
	assert.Equal(t, 10*time.Second, ConfigFrom(config.WorkerConfig{Enabled: true}).Timeout)
}
