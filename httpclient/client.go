// Package httpclient is a REST client built around a fixed request pipeline:
// configuration merge, auth, validation, body serialization, URL building,
// request/response/error interceptor chains and response parsing.
//
// Each call takes a snapshot of the client configuration and interceptor
// registries, so concurrent calls never observe a half-applied SetConfig or
// interceptor change. There are no retries.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/trace"
)

// Client defines the REST client interface for making HTTP requests
type Client interface {
	Request(ctx context.Context, opts RequestOptions) (*Result, error)
	Get(ctx context.Context, opts RequestOptions) (*Result, error)
	Post(ctx context.Context, opts RequestOptions) (*Result, error)
	Put(ctx context.Context, opts RequestOptions) (*Result, error)
	Patch(ctx context.Context, opts RequestOptions) (*Result, error)
	Delete(ctx context.Context, opts RequestOptions) (*Result, error)
	Head(ctx context.Context, opts RequestOptions) (*Result, error)
	Options(ctx context.Context, opts RequestOptions) (*Result, error)
	Connect(ctx context.Context, opts RequestOptions) (*Result, error)
	Trace(ctx context.Context, opts RequestOptions) (*Result, error)

	// BuildURL renders the URL a call with opts would hit.
	BuildURL(opts RequestOptions) (string, error)
	// GetConfig returns a copy of the client configuration.
	GetConfig() Config
	// SetConfig merges cfg into the client configuration and returns the result.
	SetConfig(cfg Config) Config
	Interceptors() *Interceptors
}

// Option customizes a client at construction.
type Option func(*client)

// WithTracerProvider sets the tracer provider for pipeline spans and the
// default transport. Defaults to the global provider.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(c *client) {
		if tp != nil {
			c.tracerProvider = tp
		}
	}
}

// WithMeterProvider sets the meter provider for request metrics. Defaults to
// the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *client) {
		if mp != nil {
			c.meterProvider = mp
		}
	}
}

// WithHTTPClient replaces the default transport. Config.Fetch still takes precedence.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
			c.customHTTPClient = true
		}
	}
}

// WithRateLimiter makes every call wait for a token from l before reaching
// its transport, including per-call Fetch overrides.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *client) {
		c.limiter = l
	}
}

// WithTraceHeaders registers a request interceptor that propagates request id
// and W3C trace context headers.
func WithTraceHeaders(opts trace.InjectOptions) Option {
	return func(c *client) {
		c.interceptors.Request.Use(NewTraceContextInterceptor(opts))
	}
}

// client implements the Client interface
type client struct {
	mu               sync.RWMutex
	logger           logger.Logger
	config           *Config
	httpClient       *http.Client
	customHTTPClient bool
	limiter          *rate.Limiter
	interceptors     *Interceptors
	tracerProvider   oteltrace.TracerProvider
	meterProvider    metric.MeterProvider
	telemetry        *telemetry
	callCount        int64
}

// New creates a client whose configuration is cfg merged over DefaultConfig.
func New(cfg Config, log logger.Logger, opts ...Option) Client {
	if log == nil {
		log = logger.Nop()
	}
	merged := MergeConfigs(DefaultConfig(), cfg)
	c := &client{
		logger:         log,
		config:         &merged,
		interceptors:   NewInterceptors(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newHTTPClient(merged.Timeout, c.tracerProvider, c.meterProvider)
	}
	c.telemetry = newTelemetry(c.tracerProvider, c.meterProvider)
	return c
}

// Builder provides a fluent interface for configuring the REST client
type Builder struct {
	config               Config
	logger               logger.Logger
	options              []Option
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
	errorInterceptors    []ErrorInterceptor
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: log,
	}
}

// WithBaseURL sets the URL every request path is appended to
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the request timeout
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.Security = []Auth{{Type: "http", Scheme: "basic"}}
	b.config.Auth = StaticToken(username + ":" + password)
	return b
}

// WithBearerToken sends token as a bearer Authorization header
func (b *Builder) WithBearerToken(token string) *Builder {
	b.config.Security = []Auth{{Type: "http", Scheme: "bearer"}}
	b.config.Auth = StaticToken(token)
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.Headers.Set(key, value)
	return b
}

// WithLogPayloads enables debug logging of headers and body previews up to maxBytes
func (b *Builder) WithLogPayloads(maxBytes int) *Builder {
	b.config.LogPayloads = true
	if maxBytes > 0 {
		b.config.MaxPayloadLogBytes = maxBytes
	}
	return b
}

// WithResponseStyle sets the default result shape
func (b *Builder) WithResponseStyle(style ResponseStyle) *Builder {
	b.config.ResponseStyle = style
	return b
}

// WithThrowOnError makes non-2xx outcomes return as Go errors
func (b *Builder) WithThrowOnError(throw bool) *Builder {
	b.config.ThrowOnError = Bool(throw)
	return b
}

// WithFetch sets the client-level transport
func (b *Builder) WithFetch(fetch Fetch) *Builder {
	b.config.Fetch = fetch
	return b
}

// WithRequestInterceptor adds a request interceptor
func (b *Builder) WithRequestInterceptor(interceptor RequestInterceptor) *Builder {
	b.requestInterceptors = append(b.requestInterceptors, interceptor)
	return b
}

// WithResponseInterceptor adds a response interceptor
func (b *Builder) WithResponseInterceptor(interceptor ResponseInterceptor) *Builder {
	b.responseInterceptors = append(b.responseInterceptors, interceptor)
	return b
}

// WithErrorInterceptor adds an error interceptor
func (b *Builder) WithErrorInterceptor(interceptor ErrorInterceptor) *Builder {
	b.errorInterceptors = append(b.errorInterceptors, interceptor)
	return b
}

// WithOptions appends construction options
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.options = append(b.options, opts...)
	return b
}

// Build creates the REST client with the configured options
func (b *Builder) Build() Client {
	c := New(b.config, b.logger, b.options...)
	reg := c.Interceptors()
	for _, fn := range b.requestInterceptors {
		reg.Request.Use(fn)
	}
	for _, fn := range b.responseInterceptors {
		reg.Response.Use(fn)
	}
	for _, fn := range b.errorInterceptors {
		reg.Error.Use(fn)
	}
	return c
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodGet, opts)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodPost, opts)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodPut, opts)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodPatch, opts)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodDelete, opts)
}

// Head performs a HEAD request
func (c *client) Head(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodHead, opts)
}

// Options performs an OPTIONS request
func (c *client) Options(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodOptions, opts)
}

// Connect performs a CONNECT request
func (c *client) Connect(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodConnect, opts)
}

// Trace performs a TRACE request
func (c *client) Trace(ctx context.Context, opts RequestOptions) (*Result, error) {
	return c.do(ctx, http.MethodTrace, opts)
}

func (c *client) do(ctx context.Context, method string, opts RequestOptions) (*Result, error) {
	opts.Method = method
	return c.Request(ctx, opts)
}

func (c *client) Interceptors() *Interceptors {
	return c.interceptors
}

func (c *client) GetConfig() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *client) SetConfig(cfg Config) Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	merged := MergeConfigs(*c.config, cfg)
	if merged.Timeout != c.config.Timeout && !c.customHTTPClient {
		c.httpClient = newHTTPClient(merged.Timeout, c.tracerProvider, c.meterProvider)
	}
	c.config = &merged
	return c.snapshotLocked()
}

func (c *client) snapshotLocked() Config {
	cfg := *c.config
	cfg.Headers = cfg.Headers.Clone()
	if cfg.Security != nil {
		cfg.Security = append([]Auth(nil), cfg.Security...)
	}
	return cfg
}

func (c *client) BuildURL(opts RequestOptions) (string, error) {
	c.mu.RLock()
	base := *c.config
	c.mu.RUnlock()
	opts.Config = MergeConfigs(base, opts.Config)
	return BuildURL(opts)
}

// Request runs the full pipeline for one call.
func (c *client) Request(ctx context.Context, options RequestOptions) (*Result, error) {
	c.mu.RLock()
	base := *c.config
	httpClient := c.httpClient
	c.mu.RUnlock()
	requestFns := c.interceptors.Request.Fns()
	responseFns := c.interceptors.Response.Fns()
	errorFns := c.interceptors.Error.Fns()

	opts := options
	opts.Config = MergeConfigs(base, options.Config)
	if opts.Method == "" {
		opts.Method = http.MethodGet
	}
	fetch := opts.Fetch
	if fetch == nil {
		fetch = httpClient.Do
	}
	if c.limiter != nil {
		fetch = RateLimitedFetch(c.limiter, fetch)
	}

	req, payload, err := c.prepare(ctx, &opts, requestFns)
	if err != nil {
		return nil, err
	}

	traceID := requestID(ctx, req)
	c.logRequest(req, payload, traceID)
	callCount := atomic.AddInt64(&c.callCount, 1)
	logger.IncrementHTTPCounter(ctx)

	start := time.Now()
	spanCtx, span := c.telemetry.start(req.Context(), req)
	req = req.WithContext(spanCtx)

	resp, err := fetch(req)
	if err != nil {
		elapsed := time.Since(start)
		logger.AddHTTPElapsed(ctx, elapsed.Nanoseconds())
		clientErr := transportError(err, opts.Timeout)
		c.telemetry.finish(spanCtx, span, opts.Method, 0, clientErr, elapsed)
		c.logger.Warn().
			Err(err).
			Str("method", req.Method).
			Str("url", req.URL.String()).
			Str("request_id", traceID).
			Msg("REST client request failed")
		return nil, clientErr
	}

	for _, fn := range responseFns {
		next, ierr := fn(ctx, resp, req, &opts)
		if ierr != nil {
			closeBody(resp)
			clientErr := NewInterceptorError("response interceptor failed", StageResponse, ierr)
			c.telemetry.finish(spanCtx, span, opts.Method, resp.StatusCode, clientErr, time.Since(start))
			return nil, clientErr
		}
		if next != nil {
			resp = next
		}
	}
	if resp.Body == nil {
		resp.Body = http.NoBody
	}

	success := IsSuccessStatus(resp.StatusCode)
	var (
		value any
		body  []byte
	)
	if success {
		value, body, err = c.parseSuccess(ctx, &opts, resp)
	} else {
		value, body, err = c.parseError(ctx, &opts, req, resp, errorFns)
	}

	elapsed := time.Since(start)
	logger.AddHTTPElapsed(ctx, elapsed.Nanoseconds())
	stats := Stats{ElapsedTime: elapsed, CallCount: callCount}
	c.logResponse(&responseLog{
		statusCode: resp.StatusCode,
		body:       body,
		headers:    resp.Header,
		stats:      stats,
	}, traceID)
	c.telemetry.finish(spanCtx, span, opts.Method, resp.StatusCode, err, elapsed)
	if err != nil {
		return nil, err
	}

	if !success {
		if opts.throwOnError() {
			if asErr, ok := value.(error); ok {
				return nil, asErr
			}
			return nil, newHTTPErrorWithValue(resp.StatusCode, body, value)
		}
		if opts.ResponseStyle == StyleData {
			return nil, nil
		}
		return &Result{Error: value, Request: req, Response: resp, Stats: stats}, nil
	}

	if opts.ResponseStyle == StyleData {
		return &Result{Data: value}, nil
	}
	return &Result{Data: value, Request: req, Response: resp, Stats: stats}, nil
}

// prepare runs every stage before transport: auth, validation, serialization,
// URL building and the request interceptor chain.
func (c *client) prepare(ctx context.Context, opts *RequestOptions, requestFns []RequestInterceptor) (*http.Request, []byte, error) {
	if opts.Headers == nil {
		opts.Headers = http.Header{}
	}

	if len(opts.Security) > 0 {
		if err := setAuthParams(ctx, opts); err != nil {
			return nil, nil, newValidationErrorWithCause("failed to resolve auth token", "auth", err)
		}
	}

	if opts.RequestValidator != nil {
		if err := opts.RequestValidator(ctx, opts); err != nil {
			return nil, nil, newValidationErrorWithCause("request validation failed", "request", err)
		}
	}

	payload, err := serializeBody(opts)
	if err != nil {
		return nil, nil, err
	}

	u, err := BuildURL(*opts)
	if err != nil {
		return nil, nil, err
	}

	var body io.Reader = http.NoBody
	if len(payload) > 0 {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, u, body)
	if err != nil {
		return nil, nil, NewNetworkError("failed to create HTTP request", err)
	}
	req.Header = opts.Headers.Clone()

	for _, fn := range requestFns {
		next, ierr := fn(ctx, req, opts)
		if ierr != nil {
			return nil, nil, NewInterceptorError("request interceptor failed", StageRequest, ierr)
		}
		if next != nil {
			req = next
		}
	}
	return req, payload, nil
}

// serializeBody encodes a present body and drops Content-Type when nothing is sent.
func serializeBody(opts *RequestOptions) ([]byte, error) {
	var payload []byte
	if !isNil(opts.Body) {
		switch {
		case opts.BodySerializer != nil:
			data, contentType, err := opts.BodySerializer(opts.Body)
			if err != nil {
				return nil, newValidationErrorWithCause("failed to serialize request body", "body", err)
			}
			payload = data
			if contentType != "" && len(payload) > 0 {
				opts.Headers.Set(headerContentType, contentType)
			}
		default:
			switch raw := opts.Body.(type) {
			case []byte:
				payload = raw
			case string:
				payload = []byte(raw)
			default:
				return nil, NewValidationError(fmt.Sprintf("no body serializer for %T", opts.Body), "body")
			}
		}
	}
	if len(payload) == 0 {
		opts.Headers.Del(headerContentType)
	}
	return payload, nil
}

func (c *client) parseSuccess(ctx context.Context, opts *RequestOptions, resp *http.Response) (any, []byte, error) {
	if resp.StatusCode == http.StatusNoContent || resp.Header.Get(headerContentLength) == "0" {
		closeBody(resp)
		return map[string]any{}, nil, nil
	}

	mode := opts.ParseAs
	if mode == "" || mode == ParseAuto {
		mode = ParseAsFromContentType(resp.Header.Get(headerContentType))
	}
	if mode == "" {
		mode = ParseJSON
	}
	if mode == ParseStream {
		return resp.Body, nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	closeBody(resp)
	if err != nil {
		return nil, nil, NewNetworkError("failed to read response body", err)
	}

	data, err := decodeBody(mode, body, resp.Header.Get(headerContentType))
	if err != nil {
		return nil, body, newValidationErrorWithCause(fmt.Sprintf("failed to decode %s response", mode), "response", err)
	}
	if mode != ParseJSON {
		return data, body, nil
	}

	if opts.ResponseValidator != nil {
		if err := opts.ResponseValidator(ctx, data); err != nil {
			return nil, body, newValidationErrorWithCause("response validation failed", "response", err)
		}
	}
	if opts.ResponseTransformer != nil {
		if data, err = opts.ResponseTransformer(ctx, data); err != nil {
			return nil, body, newValidationErrorWithCause("response transform failed", "response", err)
		}
	}
	return data, body, nil
}

func (c *client) parseError(ctx context.Context, opts *RequestOptions, req *http.Request, resp *http.Response, errorFns []ErrorInterceptor) (any, []byte, error) {
	body, err := io.ReadAll(resp.Body)
	closeBody(resp)
	if err != nil {
		return nil, nil, NewNetworkError("failed to read error response body", err)
	}

	value := parseErrorBody(body)
	for _, fn := range errorFns {
		next, ierr := fn(ctx, value, resp, req, opts)
		if ierr != nil {
			return nil, body, NewInterceptorError("error interceptor failed", StageError, ierr)
		}
		value = next
	}
	if isFalsy(value) {
		value = map[string]any{}
	}
	return value, body, nil
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}
