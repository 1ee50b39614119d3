// Package trace carries request ids and W3C trace context through
// context.Context and onto outbound HTTP headers.
package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	nethttp "net/http"
	"strings"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	traceIDKey     contextKey = "trace_id"
	traceParentKey contextKey = "traceparent"
	traceStateKey  contextKey = "tracestate"

	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = "tracestate"
)

// WithTraceID adds a trace ID to the context
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// IDFromContext returns a trace ID from context if present
func IDFromContext(ctx context.Context) (string, bool) {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		return traceID, true
	}
	return "", false
}

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return uuid.New().String()
}

// WithTraceParent adds a W3C traceparent value to the context
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, traceParentKey, traceParent)
}

// ParentFromContext returns a traceparent from context if present
func ParentFromContext(ctx context.Context) (string, bool) {
	if tp, ok := ctx.Value(traceParentKey).(string); ok && tp != "" {
		return tp, true
	}
	return "", false
}

// WithTraceState adds a W3C tracestate value to the context
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return context.WithValue(ctx, traceStateKey, traceState)
}

// StateFromContext returns a tracestate from context if present
func StateFromContext(ctx context.Context) (string, bool) {
	if ts, ok := ctx.Value(traceStateKey).(string); ok && ts != "" {
		return ts, true
	}
	return "", false
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string {
	traceID := make([]byte, 16)
	spanID := make([]byte, 8)
	if _, err := crand.Read(traceID); err != nil {
		traceID = make([]byte, 16)
	}
	if _, err := crand.Read(spanID); err != nil {
		spanID = make([]byte, 8)
	}
	if allZero(traceID) {
		traceID[len(traceID)-1] = 0x01
	}
	if allZero(spanID) {
		spanID[len(spanID)-1] = 0x01
	}
	return "00-" + hex.EncodeToString(traceID) + "-" + hex.EncodeToString(spanID) + "-01"
}

// TraceIDFromParent extracts the 32-hex trace id from a traceparent value.
// It returns false for malformed values and for the all-zero trace id.
func TraceIDFromParent(traceParent string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(traceParent), "-")
	if len(parts) != 4 || len(parts[0]) != 2 || len(parts[1]) != 32 || len(parts[2]) != 16 || len(parts[3]) != 2 {
		return "", false
	}
	raw, err := hex.DecodeString(parts[1])
	if err != nil || allZero(raw) {
		return "", false
	}
	return strings.ToLower(parts[1]), true
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// HeaderAccessor abstracts a header carrier so injection works for net/http
// headers as well as message-style carriers.
type HeaderAccessor interface {
	Get(key string) any
	Set(key string, value any)
}

// InjectMode controls how existing header values are treated.
type InjectMode int

const (
	// InjectPreserve keeps values already present on the carrier.
	InjectPreserve InjectMode = iota
	// InjectOverwrite replaces carrier values with context values.
	InjectOverwrite
)

// InjectOptions configures InjectIntoHeadersWithOptions.
type InjectOptions struct {
	Mode InjectMode
	// RequestIDHeader overrides HeaderXRequestID.
	RequestIDHeader string
	// GenerateParent creates a traceparent when neither the carrier nor the context has one.
	GenerateParent bool
}

// InjectIntoHeadersWithOptions writes request id and W3C trace context from ctx
// onto the carrier. When no request id is known it is derived from the
// traceparent, then generated.
func InjectIntoHeadersWithOptions(ctx context.Context, acc HeaderAccessor, opts InjectOptions) {
	if acc == nil {
		return
	}
	idHeader := opts.RequestIDHeader
	if idHeader == "" {
		idHeader = HeaderXRequestID
	}

	parent := safeToString(acc.Get(HeaderTraceParent))
	if ctxParent, ok := ParentFromContext(ctx); ok && (parent == "" || opts.Mode == InjectOverwrite) {
		parent = ctxParent
		acc.Set(HeaderTraceParent, parent)
	}
	if parent == "" && opts.GenerateParent {
		parent = GenerateTraceParent()
		acc.Set(HeaderTraceParent, parent)
	}

	if state, ok := StateFromContext(ctx); ok {
		if safeToString(acc.Get(HeaderTraceState)) == "" || opts.Mode == InjectOverwrite {
			acc.Set(HeaderTraceState, state)
		}
	}

	if existing := safeToString(acc.Get(idHeader)); existing != "" && opts.Mode == InjectPreserve {
		return
	}
	if id, ok := IDFromContext(ctx); ok {
		acc.Set(idHeader, id)
		return
	}
	if id, ok := TraceIDFromParent(parent); ok {
		acc.Set(idHeader, id)
		return
	}
	acc.Set(idHeader, uuid.New().String())
}

// HTTPHeaders adapts net/http headers to HeaderAccessor.
func HTTPHeaders(h nethttp.Header) HeaderAccessor {
	return httpHeaders{h: h}
}

type httpHeaders struct{ h nethttp.Header }

func (a httpHeaders) Get(key string) any { return a.h.Get(key) }

func (a httpHeaders) Set(key string, value any) { a.h.Set(key, safeToString(value)) }

func safeToString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}
