// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"matchmaking-workers/internal/common/config"
	"matchmaking-workers/internal/common/logger"
	"matchmaking-workers/internal/common/metrics"
)

// Handler is the job callback every matchmaking worker exposes.
type Handler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// JobRecorder receives a span and the outcome of every job a Pool runs.
type JobRecorder interface {
	StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
	JobStatusBPMNError = "bpmn_error"
	JobStatusNoCommand = "no_command"
)

// Pool opens job workers against one Zeebe client and closes them together on shutdown.
type Pool struct {
	client   zbc.Client
	recorder JobRecorder
	logger   logger.Logger
	mu       sync.Mutex
	workers  map[string]worker.JobWorker
}

// NewPool builds a Pool. recorder may be nil.
func NewPool(client zbc.Client, recorder JobRecorder, log logger.Logger) *Pool {
	return &Pool{
		client:   client,
		recorder: recorder,
		logger:   log.WithFields(map[string]interface{}{"component": "worker-pool"}),
		workers:  make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled. Returns whether a worker was opened.
func (p *Pool) Start(taskType string, wcfg config.WorkerConfig, handler Handler) bool {
	if !wcfg.Enabled {
		p.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jobWorker := p.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, p.recorder, handler.Handle)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	p.mu.Lock()
	p.workers[taskType] = jobWorker
	p.mu.Unlock()

	p.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

func (p *Pool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.workers))
	for t := range p.workers {
		types = append(types, t)
	}
	return types
}

// Close stops polling and waits for in-flight jobs of every worker.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for taskType, w := range p.workers {
		w.Close()
		w.AwaitClose()
		p.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	p.workers = make(map[string]worker.JobWorker)
}

// Instrument tracks in-flight jobs and handler duration for a task type. With a recorder it
// also opens a span per job and records the command the handler answered with.
func Instrument(taskType string, recorder JobRecorder, handle worker.JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer func() {
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		}()

		if recorder == nil {
			handle(client, job)
			return
		}

		ctx, span := recorder.StartSpan(context.Background(), "job."+taskType,
			attribute.String("job.type", taskType),
			attribute.Int64("job.key", job.GetKey()),
		)
		tracked := &outcomeClient{JobClient: client, status: JobStatusNoCommand}
		defer func() {
			span.SetAttributes(attribute.String("job.status", tracked.status))
			span.End()
			recorder.RecordJobProcessed(ctx, taskType, tracked.status)
			recorder.RecordJobDuration(ctx, taskType, time.Since(start), tracked.status)
		}()
		handle(tracked, job)
	}
}

// outcomeClient remembers which terminal command a handler issued for its job.
type outcomeClient struct {
	worker.JobClient
	status string
}

func (c *outcomeClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	c.status = JobStatusCompleted
	return c.JobClient.NewCompleteJobCommand()
}

func (c *outcomeClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	c.status = JobStatusFailed
	return c.JobClient.NewFailJobCommand()
}

func (c *outcomeClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	c.status = JobStatusBPMNError
	return c.JobClient.NewThrowErrorCommand()
}
