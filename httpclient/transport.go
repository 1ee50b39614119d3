package httpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// newHTTPClient builds the platform default transport: net/http with otelhttp
// client instrumentation.
func newHTTPClient(timeout time.Duration, tp oteltrace.TracerProvider, mp metric.MeterProvider) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		),
	}
}

// FetchFromClient adapts an *http.Client to Fetch.
func FetchFromClient(hc *http.Client) Fetch {
	return hc.Do
}

// RateLimitedFetch waits for a token from l before every call to next. The
// wait honors the request context.
func RateLimitedFetch(l *rate.Limiter, next Fetch) Fetch {
	return func(req *http.Request) (*http.Response, error) {
		if err := l.Wait(req.Context()); err != nil {
			return nil, err
		}
		return next(req)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func transportError(err error, timeout time.Duration) ClientError {
	if isTimeout(err) {
		return newTimeoutErrorWithCause("request timeout", timeout, err)
	}
	return NewNetworkError("request execution failed", err)
}
