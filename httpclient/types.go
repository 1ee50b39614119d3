package httpclient

import (
	"context"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default request timeout duration
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPayloadLogBytes bounds payload previews in debug logs
	DefaultMaxPayloadLogBytes = 1024

	headerContentType   = "Content-Type"
	headerContentLength = "Content-Length"
	contentTypeJSON     = "application/json"
)

// ParseAs selects how a successful response body is decoded.
type ParseAs string

const (
	ParseAuto        ParseAs = "auto"
	ParseJSON        ParseAs = "json"
	ParseText        ParseAs = "text"
	ParseBlob        ParseAs = "blob"
	ParseArrayBuffer ParseAs = "arrayBuffer"
	ParseFormData    ParseAs = "formData"
	ParseStream      ParseAs = "stream"
)

// ResponseStyle selects the shape of a Result.
type ResponseStyle string

const (
	// StyleFields returns data or error together with the request and response.
	StyleFields ResponseStyle = "fields"
	// StyleData returns only the data; a non-2xx outcome yields a nil Result.
	StyleData ResponseStyle = "data"
)

// Fetch sends one request. The default is a net/http client.
type Fetch func(req *http.Request) (*http.Response, error)

// BodySerializer encodes a request body. A non-empty contentType replaces the
// Content-Type header.
type BodySerializer func(body any) (payload []byte, contentType string, err error)

// QuerySerializer renders query parameters without the leading "?".
type QuerySerializer func(query map[string]any) (string, error)

// RequestValidator inspects resolved options before the body is serialized.
type RequestValidator func(ctx context.Context, opts *RequestOptions) error

// ResponseValidator inspects decoded JSON data.
type ResponseValidator func(ctx context.Context, data any) error

// ResponseTransformer replaces decoded JSON data.
type ResponseTransformer func(ctx context.Context, data any) (any, error)

// Auth describes one security scheme of an operation.
type Auth struct {
	// Type is "http" or "apiKey".
	Type string
	// Scheme is "bearer" or "basic" for http auth.
	Scheme string
	// In is "header" (default), "query" or "cookie".
	In string
	// Name defaults to Authorization.
	Name string
}

// AuthToken resolves the raw token for a scheme. An empty token skips the scheme.
type AuthToken func(ctx context.Context, auth Auth) (string, error)

// Config holds client-wide defaults. Per-call RequestOptions embed a Config
// whose non-zero fields override these.
type Config struct {
	BaseURL                string
	Headers                http.Header
	Fetch                  Fetch
	Timeout                time.Duration
	BodySerializer         BodySerializer
	QuerySerializer        QuerySerializer
	QuerySerializerOptions *QuerySerializerOptions
	RequestValidator       RequestValidator
	ResponseValidator      ResponseValidator
	ResponseTransformer    ResponseTransformer
	ParseAs                ParseAs
	ResponseStyle          ResponseStyle
	ThrowOnError           *bool
	Security               []Auth
	Auth                   AuthToken
	LogPayloads            bool
	MaxPayloadLogBytes     int
}

// RequestOptions describes one call.
type RequestOptions struct {
	Config

	Method string
	// URL is the path template, e.g. "/users/{id}".
	URL   string
	Body  any
	Path  map[string]any
	Query map[string]any
}

// Stats captures per-call timing
type Stats struct {
	ElapsedTime time.Duration
	CallCount   int64
}

// Result is the outcome of a call that reached the server. Exactly one of
// Data and Error is set. With StyleData only Data is populated.
type Result struct {
	Data     any
	Error    any
	Request  *http.Request
	Response *http.Response
	Stats    Stats
}

// DefaultConfig returns the defaults every client starts from.
func DefaultConfig() Config {
	return Config{
		Headers:            http.Header{headerContentType: []string{contentTypeJSON}},
		Timeout:            DefaultTimeout,
		BodySerializer:     JSONBodySerializer,
		ParseAs:            ParseAuto,
		ResponseStyle:      StyleFields,
		MaxPayloadLogBytes: DefaultMaxPayloadLogBytes,
	}
}

// Bool returns a pointer to b, for ThrowOnError.
func Bool(b bool) *bool {
	return &b
}

func (c *Config) throwOnError() bool {
	return c.ThrowOnError != nil && *c.ThrowOnError
}
