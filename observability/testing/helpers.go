// Package testing provides in-memory OpenTelemetry providers and assertions
// for tests of instrumented bridgekit code.
//
//	tp := NewTestTraceProvider()
//	defer tp.Shutdown(context.Background())
//	client := httpclient.New(cfg, log, httpclient.WithTracerProvider(tp))
//	...
//	spans := NewSpanCollector(t, tp.Exporter).WithName(httpclient.SpanName).AssertCount(1)
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTraceProvider wraps the SDK TracerProvider and in-memory exporter for testing.
type TestTraceProvider struct {
	*sdktrace.TracerProvider
	Exporter *tracetest.InMemoryExporter
}

// NewTestTraceProvider creates a TracerProvider that records spans synchronously in memory.
func NewTestTraceProvider() *TestTraceProvider {
	exporter := tracetest.NewInMemoryExporter()
	return &TestTraceProvider{
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
		Exporter:       exporter,
	}
}

// TestMeterProvider wraps the SDK MeterProvider and manual reader for testing.
type TestMeterProvider struct {
	*sdkmetric.MeterProvider
	Reader *sdkmetric.ManualReader
}

// NewTestMeterProvider creates a MeterProvider collected on demand.
func NewTestMeterProvider() *TestMeterProvider {
	reader := sdkmetric.NewManualReader()
	return &TestMeterProvider{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Reader:        reader,
	}
}

// Collect reads all metrics from the provider.
func (tmp *TestMeterProvider) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tmp.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// SpanCollector provides a fluent API for filtering and asserting on captured spans.
type SpanCollector struct {
	t     *testing.T
	spans tracetest.SpanStubs
}

// NewSpanCollector creates a span collector from an in-memory exporter.
func NewSpanCollector(t *testing.T, exporter *tracetest.InMemoryExporter) *SpanCollector {
	t.Helper()
	return &SpanCollector{t: t, spans: exporter.GetSpans()}
}

// WithName keeps spans with the given name.
func (sc *SpanCollector) WithName(name string) *SpanCollector {
	var out tracetest.SpanStubs
	for _, s := range sc.spans {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return &SpanCollector{t: sc.t, spans: out}
}

// AssertCount fails the test unless exactly expected spans were collected.
func (sc *SpanCollector) AssertCount(expected int) *SpanCollector {
	sc.t.Helper()
	assert.Len(sc.t, sc.spans, expected, "unexpected span count")
	return sc
}

// First returns the first collected span.
func (sc *SpanCollector) First() tracetest.SpanStub {
	sc.t.Helper()
	require.NotEmpty(sc.t, sc.spans, "no spans collected")
	return sc.spans[0]
}

// AssertSpanAttribute checks an attribute value on span.
func AssertSpanAttribute(t *testing.T, span *tracetest.SpanStub, key string, expected any) {
	t.Helper()
	for _, kv := range span.Attributes {
		if string(kv.Key) == key {
			assert.True(t, matchesValue(kv.Value, expected), "attribute %s value mismatch: got %v", key, kv.Value.AsInterface())
			return
		}
	}
	assert.Fail(t, "attribute not found", "attribute %s missing from span %s", key, span.Name)
}

// AssertSpanStatus checks the status code of span.
func AssertSpanStatus(t *testing.T, span *tracetest.SpanStub, expected codes.Code) {
	t.Helper()
	assert.Equal(t, expected, span.Status.Code, "span status code mismatch")
}

func matchesValue(v attribute.Value, expected any) bool {
	switch e := expected.(type) {
	case int:
		return v.Type() == attribute.INT64 && v.AsInt64() == int64(e)
	case int64:
		return v.Type() == attribute.INT64 && v.AsInt64() == e
	case string:
		return v.Type() == attribute.STRING && v.AsString() == e
	case bool:
		return v.Type() == attribute.BOOL && v.AsBool() == e
	case float64:
		return v.Type() == attribute.FLOAT64 && v.AsFloat64() == e
	default:
		return v.AsInterface() == expected
	}
}

// FindMetric returns the metric named metricName, or nil.
func FindMetric(rm metricdata.ResourceMetrics, metricName string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == metricName {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// AssertMetricValue checks the summed value of an int64 counter or the total
// observation count of a float64 histogram.
func AssertMetricValue(t *testing.T, rm metricdata.ResourceMetrics, metricName string, expected int64) {
	t.Helper()
	m := FindMetric(rm, metricName)
	require.NotNil(t, m, "metric %s not found", metricName)

	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		require.NotEmpty(t, data.DataPoints, "no data points for metric %s", metricName)
		var total int64
		for _, dp := range data.DataPoints {
			total += dp.Value
		}
		assert.Equal(t, expected, total, "metric %s value mismatch", metricName)
	case metricdata.Histogram[float64]:
		require.NotEmpty(t, data.DataPoints, "no data points for metric %s", metricName)
		var count uint64
		for _, dp := range data.DataPoints {
			count += dp.Count
		}
		assert.Equal(t, uint64(expected), count, "metric %s count mismatch", metricName)
	default:
		t.Fatalf("unsupported metric data type: %T", m.Data)
	}
}
