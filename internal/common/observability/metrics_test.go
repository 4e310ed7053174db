package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestObservability_RecordsTurnsAndSearches(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))

	obs, err := newWithProviders(provider, sdktrace.NewTracerProvider(), "test")
	require.NoError(t, err)

	ctx := context.Background()
	obs.RecordTurn(ctx, 120*time.Millisecond, "ok")
	obs.RecordTurn(ctx, 80*time.Millisecond, "failed")
	obs.RecordSearch(ctx, "ranked", 3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["agent.turns"])
	assert.True(t, names["agent.turn.duration"])
	assert.True(t, names["catalog.searches"])

	require.NoError(t, obs.Shutdown(ctx))
}

func TestObservability_NilSafe(t *testing.T) {
	var obs *Observability
	obs.RecordTurn(context.Background(), time.Second, "ok")
	obs.RecordSearch(context.Background(), "exact", 0)
	assert.NoError(t, obs.Shutdown(context.Background()))

	(&Observability{}).RecordTurn(context.Background(), time.Second, "ok")
}

func TestObservability_TurnSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	obs, err := newWithProviders(metric.NewMeterProvider(), tp, "test")
	require.NoError(t, err)

	ctx, span := obs.StartTurn(context.Background(), "IDLE")
	assert.Len(t, TraceID(ctx), 32)
	span.End("SEARCH", "ok")

	_, failed := obs.StartTurn(context.Background(), "AWAITING_SEARCH_ACK")
	failed.End("", "upstream")

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "agent.turn", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "upstream", spans[1].Status().Description)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "IDLE", attrs["agent.state"])
	assert.Equal(t, "SEARCH", attrs["agent.label"])
}

func TestObservability_NilTurnSpan(t *testing.T) {
	var obs *Observability
	ctx, span := obs.StartTurn(context.Background(), "IDLE")
	assert.Empty(t, TraceID(ctx))
	span.End("SEARCH", "ok")
}
