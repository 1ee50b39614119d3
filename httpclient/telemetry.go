package httpclient

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/observability"
)

const (
	instrumentationName = "github.com/gaborage/bridgekit/httpclient"

	// SpanName is the name of the span wrapping one pipeline run.
	SpanName = "httpclient.request"

	MetricRequests = "bridgekit.httpclient.requests"
	MetricDuration = "bridgekit.httpclient.duration"
)

// urlFilter scrubs credentials from URLs before they reach span attributes.
var urlFilter = logger.NewSensitiveDataFilter(nil)

type telemetry struct {
	tracer   oteltrace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tp oteltrace.TracerProvider, mp metric.MeterProvider) *telemetry {
	meter := mp.Meter(instrumentationName)
	t := &telemetry{tracer: tp.Tracer(instrumentationName)}

	var err error
	if t.requests, err = observability.CreateCounter(meter, MetricRequests, "Outbound HTTP calls by method and outcome"); err != nil {
		t.requests = noop.Int64Counter{}
	}
	if t.duration, err = observability.CreateHistogram(meter, MetricDuration, "Outbound HTTP call duration", metric.WithUnit("ms")); err != nil {
		t.duration = noop.Float64Histogram{}
	}
	return t
}

func (t *telemetry) start(ctx context.Context, req *http.Request) (context.Context, oteltrace.Span) {
	return t.tracer.Start(ctx, SpanName,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLFull(urlFilter.FilterString("url", req.URL.String())),
		),
	)
}

// finish closes the span and records metrics. status is 0 when no response arrived.
func (t *telemetry) finish(ctx context.Context, span oteltrace.Span, method string, status int, err error, elapsed time.Duration) {
	attrs := []attribute.KeyValue{semconv.HTTPRequestMethodKey.String(method)}
	if status > 0 {
		attrs = append(attrs, semconv.HTTPResponseStatusCode(status))
		span.SetAttributes(semconv.HTTPResponseStatusCode(status))
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		attrs = append(attrs, semconv.ErrorTypeKey.String(errorType(err)))
	case status >= http.StatusBadRequest:
		span.SetStatus(codes.Error, strconv.Itoa(status))
		attrs = append(attrs, semconv.ErrorTypeKey.String(strconv.Itoa(status)))
	}
	span.End()

	set := metric.WithAttributes(attrs...)
	t.requests.Add(ctx, 1, set)
	t.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), set)
}

func errorType(err error) string {
	if ce, ok := err.(ClientError); ok {
		return string(ce.Type())
	}
	return "_OTHER"
}
