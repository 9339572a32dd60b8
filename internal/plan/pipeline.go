package plan

import (
	"context"
	"errors"
	"time"

	commonerrors "yoga-guide/internal/common/errors"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/common/metrics"
	"yoga-guide/internal/common/observability"
	"yoga-guide/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Outcome names which failure mode, if any, produced a Result. It is
// diagnostic only.
type Outcome string

const (
	OutcomeNone            Outcome = "None"
	OutcomeAllModelsFailed Outcome = "AllModelsFailed"
	OutcomeParseFailure    Outcome = "ParseFailure"
)

// Result always carries a usable Plan. Err explains a non-None Outcome.
type Result struct {
	Plan    models.Plan
	Outcome Outcome
	Model   string
	Err     error
}

// Fallback reports whether Plan is the default plan.
func (r Result) Fallback() bool {
	return r.Outcome != OutcomeNone
}

type PipelineConfig struct {
	Models  []string
	Timeout time.Duration // whole build; zero means none
}

// Pipeline builds plans. It holds no per-call state and is safe for
// concurrent use.
type Pipeline struct {
	client *FallbackClient
	models []string
	cfg    PipelineConfig
	logger logger.Logger
	obs    *observability.Observability
}

func NewPipeline(client *FallbackClient, cfg PipelineConfig, log logger.Logger, obs *observability.Observability) *Pipeline {
	return &Pipeline{
		client: client,
		models: append([]string(nil), cfg.Models...),
		cfg:    cfg,
		logger: log,
		obs:    obs,
	}
}

// Models returns the configured preference order.
func (p *Pipeline) Models() []string {
	return append([]string(nil), p.models...)
}

// BuildPlan never fails: every error path resolves to DefaultPlan.
func (p *Pipeline) BuildPlan(ctx context.Context, profile models.UserProfile) Result {
	start := time.Now()

	ctx, span := p.obs.StartSpan(ctx, "plan.build")
	defer span.End()

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	res := p.build(ctx, profile)

	span.SetAttributes(
		attribute.String("plan.outcome", string(res.Outcome)),
		attribute.String("plan.model", res.Model),
	)
	metrics.PlanBuilds.WithLabelValues(string(res.Outcome)).Inc()
	metrics.PlanBuildDuration.WithLabelValues(string(res.Outcome)).Observe(time.Since(start).Seconds())
	p.obs.RecordPlanOutcome(ctx, string(res.Outcome))

	fields := map[string]interface{}{
		"outcome":    string(res.Outcome),
		"durationMs": time.Since(start).Milliseconds(),
	}
	if res.Model != "" {
		fields["model"] = res.Model
	}
	if res.Err != nil {
		stdErr := standardError(res)
		fields["error"] = res.Err.Error()
		fields["errorCode"] = string(stdErr.Code)
		fields["retryable"] = commonerrors.IsRetryableErrorCode(stdErr.Code)
		p.logger.Warn("serving default plan", fields)
	} else {
		p.logger.Info("plan generated", fields)
	}

	return res
}

// standardError maps a fallback Result onto the shared error codes.
func standardError(res Result) *commonerrors.StandardError {
	if res.Outcome == OutcomeParseFailure {
		return commonerrors.NewParseFailureError(res.Err)
	}
	attempts := 0
	var allFailed *AllModelsFailedError
	if errors.As(res.Err, &allFailed) {
		attempts = len(allFailed.Attempts)
	}
	return commonerrors.NewAllModelsFailedError(attempts, res.Err)
}

func (p *Pipeline) build(ctx context.Context, profile models.UserProfile) Result {
	prompt := NewGenerationRequest(profile).Prompt()

	gen, err := p.client.Generate(ctx, prompt, p.models)
	if err != nil {
		var allFailed *AllModelsFailedError
		if !errors.As(err, &allFailed) {
			err = &AllModelsFailedError{Err: err}
		}
		return Result{Plan: DefaultPlan(), Outcome: OutcomeAllModelsFailed, Err: err}
	}

	plan, err := ExtractStructuredPlan(gen.Text)
	if err != nil {
		return Result{Plan: DefaultPlan(), Outcome: OutcomeParseFailure, Model: gen.Model, Err: err}
	}

	return Result{Plan: plan, Outcome: OutcomeNone, Model: gen.Model}
}
