// Package plan turns a user profile into a one-day yoga and diet plan using a
// list of generation models, falling back to a fixed plan on any failure.
package plan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "yoga-guide/internal/common/errors"
	"yoga-guide/internal/common/logger"
	"yoga-guide/internal/common/metrics"
	"yoga-guide/internal/common/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrNoModels is wrapped by AllModelsFailedError when the candidate list is empty.
var ErrNoModels = errors.New("no candidate models")

// errEmptyText marks a response that carried no text at all.
var errEmptyText = errors.New("empty response text")

// Generator is the external generation service.
type Generator interface {
	GenerateContent(ctx context.Context, modelID, prompt string) (string, error)
}

// AttemptRecorder receives the outcome of every model attempt. A nil
// attemptErr is a success.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, modelID string, attemptErr error) error
}

// AttemptError is one failed candidate.
type AttemptError struct {
	Model    string
	Err      error
	Duration time.Duration
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("model %s: %v", e.Model, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// AllModelsFailedError reports that every candidate was exhausted. Err is the
// last encountered error.
type AllModelsFailedError struct {
	Attempts []AttemptError
	Err      error
}

func (e *AllModelsFailedError) Error() string {
	return fmt.Sprintf("all %d models failed, last error: %v", len(e.Attempts), e.Err)
}

func (e *AllModelsFailedError) Unwrap() error { return e.Err }

// Generation is the text of the first successful attempt.
type Generation struct {
	Text     string
	Model    string
	Attempts int
}

// FallbackClient tries candidate models one after another until one answers.
type FallbackClient struct {
	gen            Generator
	attemptTimeout time.Duration
	recorder       AttemptRecorder
	logger         logger.Logger
	obs            *observability.Observability
}

type FallbackOption func(*FallbackClient)

// WithAttemptTimeout bounds each attempt. Expiry fails only that attempt.
func WithAttemptTimeout(d time.Duration) FallbackOption {
	return func(c *FallbackClient) { c.attemptTimeout = d }
}

func WithRecorder(r AttemptRecorder) FallbackOption {
	return func(c *FallbackClient) { c.recorder = r }
}

func WithObservability(o *observability.Observability) FallbackOption {
	return func(c *FallbackClient) { c.obs = o }
}

func NewFallbackClient(gen Generator, log logger.Logger, opts ...FallbackOption) *FallbackClient {
	c := &FallbackClient{gen: gen, logger: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate runs prompt against modelIDs in order and returns the first
// success. Attempts never overlap.
func (c *FallbackClient) Generate(ctx context.Context, prompt string, modelIDs []string) (Generation, error) {
	if len(modelIDs) == 0 {
		return Generation{}, &AllModelsFailedError{Err: ErrNoModels}
	}

	var failures []AttemptError
	var lastErr error

	for i, modelID := range modelIDs {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		text, dur, err := c.attempt(ctx, modelID, prompt, i+1)
		if err == nil {
			return Generation{Text: text, Model: modelID, Attempts: i + 1}, nil
		}

		failures = append(failures, AttemptError{Model: modelID, Err: err, Duration: dur})
		lastErr = err
	}

	return Generation{}, &AllModelsFailedError{Attempts: failures, Err: lastErr}
}

func (c *FallbackClient) attempt(ctx context.Context, modelID, prompt string, n int) (string, time.Duration, error) {
	ctx, span := c.obs.StartSpan(ctx, "genai.generate",
		attribute.String("genai.model", modelID),
		attribute.Int("genai.attempt", n),
	)
	defer span.End()

	if c.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.attemptTimeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.gen.GenerateContent(ctx, modelID, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyText
	}
	dur := time.Since(start)

	fields := map[string]interface{}{
		"model":      modelID,
		"attempt":    n,
		"durationMs": dur.Milliseconds(),
	}

	result := "success"
	if err != nil {
		result = "failure"
		stdErr := commonerrors.NewModelAttemptFailedError(modelID, err)
		fields["outcome"] = "failed"
		fields["error"] = err.Error()
		fields["errorCode"] = string(stdErr.Code)
		fields["retryable"] = commonerrors.IsRetryableErrorCode(stdErr.Code)
		c.logger.Warn("model attempt failed", fields)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		fields["outcome"] = "succeeded"
		c.logger.Info("model attempt succeeded", fields)
	}

	metrics.ModelAttempts.WithLabelValues(modelID, result).Inc()
	metrics.ModelAttemptDuration.WithLabelValues(modelID).Observe(dur.Seconds())
	c.obs.RecordModelAttempt(ctx, modelID, dur, err == nil)

	if c.recorder != nil {
		// the attempt context may already be expired
		if recErr := c.recorder.RecordAttempt(context.WithoutCancel(ctx), modelID, err); recErr != nil {
			c.logger.Warn("attempt ledger write failed", map[string]interface{}{
				"model": modelID,
				"error": recErr.Error(),
			})
		}
	}

	return text, dur, err
}
