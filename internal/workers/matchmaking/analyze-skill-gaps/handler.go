// internal/workers/matchmaking/analyze-skill-gaps/handler.go
package analyzeskillgaps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"matchmaking-workers/internal/analysis"
	apperrors "matchmaking-workers/internal/common/errors"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
	"matchmaking-workers/internal/common/validation"
	"matchmaking-workers/internal/matching"
)

const TaskType = "analyze-skill-gaps"

// ProfileLookup resolves the profiles whose skills are compared when the job only carries ids.
type ProfileLookup interface {
	GetUser(ctx context.Context, userID string) (*matching.User, error)
	GetTeam(ctx context.Context, teamID string) (*matching.Team, error)
}

type Handler struct {
	config *Config
	store  ProfileLookup
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, store ProfileLookup, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		store:  store,
		errors: apperrors.NewErrorHandler(scoped),
		logger: scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := ParseInput(job.Variables)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"jobKey": job.Key, "error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("skill gaps analyzed", map[string]interface{}{
		"jobKey":   job.Key,
		"coverage": output.CoveragePercent,
		"status":   output.SkillStatus,
	})
}

func ParseInput(variables string) (*Input, error) {
	result, err := validation.ValidateAgainst(inputSchema, []byte(variables))
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidMatchRequestError(result.Summary())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidMatchRequestError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	current, required, err := h.resolveSkills(ctx, input)
	if err != nil {
		return nil, matching.ToStandardError(err)
	}

	report := analysis.AnalyzeSkillGaps(current, required)
	return &Output{
		MissingSkills:   report.MissingSkills,
		CoveredSkills:   report.CoveredSkills,
		CoveragePercent: report.CoveragePercent,
		SkillHeatmap:    report.Heatmap,
		SkillStatus:     report.Status,
	}, nil
}

func (h *Handler) resolveSkills(ctx context.Context, input *Input) (current, required []string, err error) {
	current, required = input.CurrentSkills, input.RequiredSkills

	if input.TeamID != "" && (required == nil || (current == nil && input.UserID == "")) {
		team, err := h.store.GetTeam(ctx, input.TeamID)
		if err != nil {
			return nil, nil, fmt.Errorf("get team %s: %w", input.TeamID, err)
		}
		if required == nil {
			required = team.AllRequiredSkills()
		}
		if current == nil && input.UserID == "" {
			current = team.TechStack
		}
	}

	if current == nil && input.UserID != "" {
		user, err := h.store.GetUser(ctx, input.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("get user %s: %w", input.UserID, err)
		}
		current = user.Skills
	}
	return current, required, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := matching.ToStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}
