package observability

import (
	"context"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_RecordsToRegistry(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("yoga-guide-test", reg)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordPlanOutcome(ctx, "None")
	obs.RecordModelAttempt(ctx, "gemini-pro", 120*time.Millisecond, true)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["plan_outcomes_total"], "got %v", names)
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		obs.RecordPlanOutcome(ctx, "None")
		obs.RecordModelAttempt(ctx, "m", time.Second, false)
		obs.RecordJobProcessed(ctx, "completed")
		_, span := obs.StartSpan(ctx, "noop")
		span.End()
		obs.Shutdown()
	})
}
