package httpclient

import (
	"context"
	"net/http"

	"github.com/gaborage/bridgekit/trace"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = trace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = trace.HeaderTraceParent
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = trace.HeaderTraceState
)

// NewTraceIDInterceptor creates a request interceptor that adds X-Request-ID
// when the request does not carry one.
func NewTraceIDInterceptor() RequestInterceptor {
	return NewTraceIDInterceptorFor(HeaderXRequestID)
}

// NewTraceIDInterceptorFor creates an interceptor that uses a custom header name
func NewTraceIDInterceptorFor(header string) RequestInterceptor {
	if header == "" {
		header = HeaderXRequestID
	}
	return func(ctx context.Context, req *http.Request, _ *RequestOptions) (*http.Request, error) {
		if req.Header.Get(header) == "" {
			req.Header.Set(header, trace.EnsureTraceID(ctx))
		}
		return req, nil
	}
}

// NewTraceContextInterceptor propagates the request id together with W3C
// traceparent/tracestate from the context.
func NewTraceContextInterceptor(opts trace.InjectOptions) RequestInterceptor {
	return func(ctx context.Context, req *http.Request, _ *RequestOptions) (*http.Request, error) {
		trace.InjectIntoHeadersWithOptions(ctx, trace.HTTPHeaders(req.Header), opts)
		return req, nil
	}
}

// requestID returns the id logged with an exchange: the outgoing header if
// set, else the context id.
func requestID(ctx context.Context, req *http.Request) string {
	if id := req.Header.Get(HeaderXRequestID); id != "" {
		return id
	}
	if id, ok := trace.IDFromContext(ctx); ok {
		return id
	}
	return ""
}
