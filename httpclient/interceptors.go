package httpclient

import (
	"context"
	"net/http"
	"sync"
)

// RequestInterceptor may replace the outgoing request.
type RequestInterceptor func(ctx context.Context, req *http.Request, opts *RequestOptions) (*http.Request, error)

// ResponseInterceptor may replace the received response.
type ResponseInterceptor func(ctx context.Context, resp *http.Response, req *http.Request, opts *RequestOptions) (*http.Response, error)

// ErrorInterceptor receives the current error value of a non-2xx response and
// returns the value handed to the next interceptor.
type ErrorInterceptor func(ctx context.Context, value any, resp *http.Response, req *http.Request, opts *RequestOptions) (any, error)

// Chain is an ordered interceptor registry. Handles are never reused, so a
// handle taken before Eject or Clear stays dead.
type Chain[F any] struct {
	mu  sync.RWMutex
	fns []*F
}

// Use appends fn and returns its handle.
func (c *Chain[F]) Use(fn F) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, &fn)
	return len(c.fns) - 1
}

// Eject removes the interceptor registered under id. Other handles keep their meaning.
func (c *Chain[F]) Eject(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id >= 0 && id < len(c.fns) {
		c.fns[id] = nil
	}
}

// Update replaces the interceptor under id and reports whether id was live.
func (c *Chain[F]) Update(id int, fn F) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.fns) || c.fns[id] == nil {
		return false
	}
	c.fns[id] = &fn
	return true
}

// Exists reports whether id refers to a live interceptor.
func (c *Chain[F]) Exists(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return id >= 0 && id < len(c.fns) && c.fns[id] != nil
}

// Clear removes every interceptor.
func (c *Chain[F]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.fns)
}

// Fns returns a snapshot of the live interceptors in registration order.
func (c *Chain[F]) Fns() []F {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]F, 0, len(c.fns))
	for _, fn := range c.fns {
		if fn != nil {
			out = append(out, *fn)
		}
	}
	return out
}

// Interceptors groups the three chains of one client.
type Interceptors struct {
	Request  *Chain[RequestInterceptor]
	Response *Chain[ResponseInterceptor]
	Error    *Chain[ErrorInterceptor]
}

// NewInterceptors returns an empty registry.
func NewInterceptors() *Interceptors {
	return &Interceptors{
		Request:  &Chain[RequestInterceptor]{},
		Response: &Chain[ResponseInterceptor]{},
		Error:    &Chain[ErrorInterceptor]{},
	}
}
