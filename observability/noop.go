package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// disabledProvider backs a disabled config. The REST client still records
// spans and metrics against it; they are dropped.
type disabledProvider struct{}

func (disabledProvider) TracerProvider() trace.TracerProvider { return tracenoop.NewTracerProvider() }
func (disabledProvider) MeterProvider() metric.MeterProvider  { return metricnoop.NewMeterProvider() }
func (disabledProvider) Shutdown(context.Context) error       { return nil }
func (disabledProvider) ForceFlush(context.Context) error     { return nil }
