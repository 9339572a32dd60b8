package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// Observability bundles the otel meters and tracer of one service. A nil
// *Observability is valid and records nothing.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	tracer        trace.Tracer
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	planOutcomes  otelmetric.Int64Counter
	attemptTime   otelmetric.Float64Histogram
}

// New creates the meter provider backed by a Prometheus exporter registered
// on reg. A nil reg uses the default registerer.
func New(serviceName string, reg promclient.Registerer) *Observability {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}

	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{tracer: otel.Tracer(serviceName)}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	planOutcomes, _ := meter.Int64Counter(
		"plan.outcomes",
		otelmetric.WithDescription("Plan builds by diagnostic outcome"),
	)

	attemptTime, _ := meter.Float64Histogram(
		"genai.attempt.duration",
		otelmetric.WithDescription("Generation attempt duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		tracer:        otel.Tracer(serviceName),
		jobCounter:    jobCounter,
		jobDuration:   jobDuration,
		planOutcomes:  planOutcomes,
		attemptTime:   attemptTime,
	}
}

// StartSpan starts a span on the global tracer provider.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("yoga-guide")
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordJobProcessed(ctx context.Context, status string) {
	if o != nil && o.jobCounter != nil {
		o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordJobDuration(ctx context.Context, duration time.Duration, status string) {
	if o != nil && o.jobDuration != nil {
		o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordPlanOutcome(ctx context.Context, outcome string) {
	if o != nil && o.planOutcomes != nil {
		o.planOutcomes.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordModelAttempt(ctx context.Context, model string, duration time.Duration, success bool) {
	if o != nil && o.attemptTime != nil {
		o.attemptTime.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("model", model),
			attribute.Bool("success", success),
		))
	}
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
