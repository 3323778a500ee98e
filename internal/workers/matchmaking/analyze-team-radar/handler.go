// internal/workers/matchmaking/analyze-team-radar/handler.go
package analyzeteamradar

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

const TaskType = "analyze-team-radar"

// Handler scores a team's recent chat; needsMentor drives the mentor-request gateway in the process.
type Handler struct {
	config *Config
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
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

	output := h.Execute(input)

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

	if output.NeedsMentor {
		h.logger.Warn("team flagged for mentor", map[string]interface{}{
			"jobKey":        job.Key,
			"teamId":        output.TeamID,
			"struggleScore": output.StruggleScore,
		})
	}
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

func (h *Handler) Execute(input *Input) *Output {
	report := analysis.AnalyzeTeamStatus(input.Messages)
	return &Output{
		TeamID:           input.TeamID,
		StruggleScore:    report.StruggleScore,
		KeywordCount:     report.KeywordCount,
		DetectedKeywords: report.DetectedKeywords,
		TeamStatus:       report.Status,
		Recommendation:   report.Recommendation,
		NeedsMentor:      report.Status == analysis.RadarNeedsMentor,
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := matching.ToStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}
