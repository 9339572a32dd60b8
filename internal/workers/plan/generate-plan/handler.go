// Package generateplan is the Zeebe job worker that builds a yoga plan for a
// profile carried in process variables.
package generateplan

import (
	"context"
	"encoding/json"
	"time"

	"yoga-guide/internal/common/errors"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/common/metrics"
	"yoga-guide/internal/common/observability"
	"yoga-guide/internal/models"
	"yoga-guide/internal/plan"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "generate-yoga-plan"
)

type PlanBuilder interface {
	BuildPlan(ctx context.Context, profile models.UserProfile) plan.Result
}

type CredentialChecker interface {
	HasAPIKey() bool
}

type Dependencies struct {
	Config      *Config
	Builder     PlanBuilder
	Credentials CredentialChecker
	Logger      logger.Logger
	Obs         *observability.Observability
}

type Handler struct {
	config     *Config
	builder    PlanBuilder
	creds      CredentialChecker
	errHandler *errors.ErrorHandler
	logger     logger.Logger
	obs        *observability.Observability
}

func NewHandler(deps Dependencies) *Handler {
	log := deps.Logger.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     deps.Config,
		builder:    deps.Builder,
		creds:      deps.Credentials,
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
		obs:        deps.Obs,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	status := "success"
	defer func() {
		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
		h.obs.RecordJobProcessed(ctx, status)
		h.obs.RecordJobDuration(ctx, elapsed, status)
	}()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		status = "failed"
		h.fail(ctx, client, job, errors.NewInvalidInputError(err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		status = "failed"
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errHandler.HandleJobError(ctx, client, job, err)
}

// Execute builds the plan. It fails only when no credential is configured;
// generation and parse failures complete with the default plan.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.creds.HasAPIKey() {
		return nil, errors.NewConfigurationError("generation API key is not configured")
	}

	res := h.builder.BuildPlan(ctx, *input)

	fields := map[string]interface{}{"outcome": string(res.Outcome)}
	if res.Model != "" {
		fields["model"] = res.Model
	}
	h.logger.Info("plan built", fields)

	return &Output{
		Plan:    res.Plan,
		Outcome: string(res.Outcome),
		Model:   res.Model,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
