package httpclient

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gaborage/bridgekit/platform"
)

const testConnectionFailed = "connection failed"

func TestClientErrorMessagesAndTypes(t *testing.T) {
	tests := []struct {
		name     string
		err      ClientError
		kind     ErrorType
		contains []string
	}{
		{"network", NewNetworkError(testConnectionFailed, errors.New("refused")), NetworkError, []string{"network error", testConnectionFailed, "refused"}},
		{"network bare", NewNetworkError(testConnectionFailed, nil), NetworkError, []string{"network error: " + testConnectionFailed}},
		{"timeout", NewTimeoutError("request timeout", 30*time.Second), TimeoutError, []string{"timeout error", "30s"}},
		{"http", NewHTTPError("bad request", 400, []byte("invalid input")), HTTPError, []string{"bad request", "400"}},
		{"validation", NewValidationError("missing path parameter", "id"), ValidationError, []string{"validation error: missing path parameter (field: id)"}},
		{"validation no field", NewValidationError("bad body", ""), ValidationError, []string{"validation error: bad body"}},
		{"interceptor", NewInterceptorError("request interceptor failed", StageRequest, errors.New("no token")), InterceptorError, []string{"request interceptor failed", "no token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Type())
			for _, want := range tt.contains {
				assert.Contains(t, tt.err.Error(), want)
			}
		})
	}
}

func TestClientErrorUnwrap(t *testing.T) {
	root := errors.New("socket closed")
	network := NewNetworkError("connection lost", root)
	chained := NewInterceptorError("request processing failed", StageRequest, network)

	assert.ErrorIs(t, chained, root)
	assert.ErrorIs(t, chained, network)

	var netErr *networkError
	require.ErrorAs(t, chained, &netErr)
	assert.Equal(t, "connection lost", netErr.message)

	var intErr *interceptorError
	require.ErrorAs(t, chained, &intErr)
	assert.Equal(t, StageRequest, intErr.Stage())

	assert.NoError(t, errors.Unwrap(NewNetworkError("x", nil)))
	assert.NoError(t, errors.Unwrap(NewInterceptorError("x", StageError, nil)))
}

func TestHTTPErrorAccessors(t *testing.T) {
	body := []byte(`{"error":"invalid request"}`)
	err := NewHTTPError("failed", 422, body)

	httpErr, ok := err.(*httpError)
	require.True(t, ok)
	assert.Equal(t, body, httpErr.Body())
	assert.Equal(t, 422, httpErr.StatusCode())
	assert.Nil(t, NewHTTPError("failed", 500, nil).(*httpError).Body())
}

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("call: %w", NewHTTPError("not found", 404, nil))

	assert.True(t, IsErrorType(wrapped, HTTPError))
	assert.False(t, IsErrorType(wrapped, NetworkError))
	assert.False(t, IsErrorType(nil, NetworkError))
	assert.False(t, IsErrorType(errors.New("plain"), NetworkError))

	assert.True(t, IsHTTPStatusError(wrapped, 404))
	assert.False(t, IsHTTPStatusError(wrapped, 500))
	assert.False(t, IsHTTPStatusError(NewNetworkError("x", nil), 404))
	assert.False(t, IsHTTPStatusError(nil, 404))

	for code, want := range map[int]bool{199: false, 200: true, 204: true, 299: true, 300: false, 404: false} {
		assert.Equal(t, want, IsSuccessStatus(code), "status %d", code)
	}
}

func TestHTTPErrorValue(t *testing.T) {
	value := map[string]any{"code": "E_QUOTA"}
	err := newHTTPErrorWithValue(429, []byte(`{"code":"E_QUOTA"}`), value)

	assert.True(t, IsHTTPStatusError(err, 429))
	assert.Contains(t, err.Error(), "429")

	got, ok := ErrorValue(fmt.Errorf("call failed: %w", err))
	assert.True(t, ok)
	assert.Equal(t, value, got)

	_, ok = ErrorValue(NewNetworkError("x", nil))
	assert.False(t, ok)
}

func TestCauseWrapping(t *testing.T) {
	timeout := newTimeoutErrorWithCause("request timeout", time.Second, context.DeadlineExceeded)
	assert.ErrorIs(t, timeout, context.DeadlineExceeded)
	assert.True(t, IsErrorType(timeout, TimeoutError))

	cause := errors.New("name is required")
	validation := newValidationErrorWithCause("request validation failed", "request", cause)
	assert.ErrorIs(t, validation, cause)
	assert.Contains(t, validation.Error(), "(field: request): name is required")
}

func TestClientErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"network", NewNetworkError(testConnectionFailed, nil), codes.Unavailable},
		{"timeout", NewTimeoutError("slow", time.Second), codes.DeadlineExceeded},
		{"validation", NewValidationError("bad", "id"), codes.InvalidArgument},
		{"interceptor", NewInterceptorError("boom", StageRequest, nil), codes.Internal},
		{"not found", NewHTTPError("failed", 404, nil), codes.NotFound},
		{"unauthorized", NewHTTPError("failed", 401, nil), codes.Unauthenticated},
		{"rate limited", NewHTTPError("failed", 429, nil), codes.ResourceExhausted},
		{"bad gateway", NewHTTPError("failed", 502, nil), codes.Unavailable},
		{"server error", NewHTTPError("failed", 500, nil), codes.Internal},
		{"teapot", NewHTTPError("failed", 418, nil), codes.Unknown},
		{"wrapped", fmt.Errorf("call: %w", NewHTTPError("failed", 403, nil)), codes.PermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, platform.CodeOf(tt.err))
			assert.Equal(t, tt.want, status.Code(tt.err))
		})
	}
}
