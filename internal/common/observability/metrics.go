package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability records turn-level OpenTelemetry metrics, exported through
// the default prometheus registry alongside the promauto collectors, and
// opens a span per turn so log lines carry a trace id.
// A zero value is safe to use and records nothing.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	turnCounter    otelmetric.Int64Counter
	turnDuration   otelmetric.Float64Histogram
	searchCounter  otelmetric.Int64Counter
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	// No span exporter is configured; spans exist for trace ids in logs.
	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)

	return newWithProviders(mp, tp, serviceName)
}

func newWithProviders(mp *metric.MeterProvider, tp *sdktrace.TracerProvider, serviceName string) (*Observability, error) {
	meter := mp.Meter(serviceName)

	turnCounter, err := meter.Int64Counter(
		"agent.turns",
		otelmetric.WithDescription("Number of conversation turns processed"),
	)
	if err != nil {
		return &Observability{}, err
	}

	turnDuration, err := meter.Float64Histogram(
		"agent.turn.duration",
		otelmetric.WithDescription("Conversation turn duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return &Observability{}, err
	}

	searchCounter, err := meter.Int64Counter(
		"catalog.searches",
		otelmetric.WithDescription("Number of catalog searches"),
	)
	if err != nil {
		return &Observability{}, err
	}

	return &Observability{
		meterProvider:  mp,
		tracerProvider: tp,
		tracer:         tp.Tracer(serviceName),
		turnCounter:    turnCounter,
		turnDuration:   turnDuration,
		searchCounter:  searchCounter,
	}, nil
}

func (o *Observability) RecordTurn(ctx context.Context, duration time.Duration, status string) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, attrs)
	}
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordSearch(ctx context.Context, mode string, results int) {
	if o == nil || o.searchCounter == nil {
		return
	}
	o.searchCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("empty", results == 0),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
