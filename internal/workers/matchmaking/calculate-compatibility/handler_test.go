package calculatecompatibility

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/matching"
)

type fakeScorer struct {
	result *matching.MatchResult
	err    error
	pair   [2]string
}

func (f *fakeScorer) Compatibility(_ context.Context, userID, teamID string) (*matching.MatchResult, error) {
	f.pair = [2]string{userID, teamID}
	return f.result, f.err
}

// ==========================
// Mock Scorer Implementation
// ==========================

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Compatibility(ctx context.Context, userID, teamID string) (*matching.MatchResult, error) {
	args := m.Called(ctx, userID, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*matching.MatchResult), args.Error(1)
}

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		wantErr   bool
	}{
		{"both ids", `{"userId":"user-1","teamId":"team-1"}`, false},
		{"missing team", `{"userId":"user-1"}`, true},
		{"numeric id", `{"userId":1,"teamId":"team-1"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInput(tt.variables)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  bool
	}{
		{"above threshold", 0.74, true},
		{"exactly at threshold", 0.6, true},
		{"below threshold", 0.41, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeScorer{result: &matching.MatchResult{
				ID:        "team-1",
				Score:     tt.score,
				Breakdown: matching.SubScores{Skill: 0.5, Experience: 1, Interest: 0.5, Availability: 1},
			}}
			h := NewHandler(&Config{Timeout: time.Second}, svc, 0.6, logger.NewTestLogger(t))

			output, err := h.Execute(context.Background(), &Input{UserID: "user-1", TeamID: "team-1"})
			require.NoError(t, err)

			assert.Equal(t, tt.score, output.CompatibilityScore)
			assert.Equal(t, tt.want, output.MeetsThreshold)
			assert.Equal(t, []string{}, output.MatchReasons)
			assert.Equal(t, 1.0, output.ScoreBreakdown.Experience)
			assert.Equal(t, [2]string{"user-1", "team-1"}, svc.pair)
		})
	}
}

func TestHandler_Execute_Error(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second}, &fakeScorer{err: apperrors.NewLedgerWriteFailedError(errors.New("x"))}, 0.6, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{UserID: "u", TeamID: "t"})
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeLedgerWriteFailed, stdErr.Code)
}

func TestHandler_Execute_ProfileNotFound(t *testing.T) {
	scorer := new(MockScorer)
	scorer.On("Compatibility", mock.Anything, "user-404", "team-1").
		Return(nil, fmt.Errorf("user user-404: %w", matching.ErrProfileNotFound))

	h := NewHandler(&Config{Timeout: time.Second}, scorer, 0.6, logger.NewNoOpLogger())
	output, err := h.Execute(context.Background(), &Input{UserID: "user-404", TeamID: "team-1"})

	assert.Nil(t, output)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeProfileNotFound, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	scorer.AssertExpectations(t)
}
