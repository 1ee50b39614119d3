package logger

import (
	"context"
	"sync/atomic"
	"time"
)

type callStatsKey struct{}

// callStats accumulates the outbound REST calls made under one context.
type callStats struct {
	calls   atomic.Int64
	elapsed atomic.Int64
}

// WithHTTPCounter returns a context that counts REST calls and their total time.
func WithHTTPCounter(ctx context.Context) context.Context {
	return context.WithValue(ctx, callStatsKey{}, &callStats{})
}

func statsFrom(ctx context.Context) *callStats {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(callStatsKey{}).(*callStats)
	return s
}

// IncrementHTTPCounter is a no-op on contexts without a counter.
func IncrementHTTPCounter(ctx context.Context) {
	if s := statsFrom(ctx); s != nil {
		s.calls.Add(1)
	}
}

func AddHTTPElapsed(ctx context.Context, nanos int64) {
	if s := statsFrom(ctx); s != nil {
		s.elapsed.Add(nanos)
	}
}

func GetHTTPCounter(ctx context.Context) int64 {
	if s := statsFrom(ctx); s != nil {
		return s.calls.Load()
	}
	return 0
}

func GetHTTPElapsed(ctx context.Context) time.Duration {
	if s := statsFrom(ctx); s != nil {
		return time.Duration(s.elapsed.Load())
	}
	return 0
}
