package httpclient

import (
	"net/http"

	"github.com/gaborage/bridgekit/logger"
)

const (
	msgRequest  = "REST client request"
	msgResponse = "REST client response"
)

// responseLog is what logResponse reports about one exchange.
type responseLog struct {
	statusCode int
	body       []byte
	headers    http.Header
	stats      Stats
}

// logRequest writes an info summary of req. With payload logging on, a
// debug entry adds headers and a bounded body preview.
func (c *client) logRequest(req *http.Request, body []byte, traceID string) {
	e := c.logger.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Str("request_id", traceID)
	if n := len(req.Header); n > 0 {
		e = e.Int("header_count", n)
	}
	if len(body) > 0 {
		e = e.Int("body_size", len(body))
	}
	e.Msg(msgRequest)

	c.logPayload(msgRequest, body, req.Header, func(d logger.LogEvent) logger.LogEvent {
		return d.Str("direction", "outbound").Str("method", req.Method).Str("request_id", traceID)
	})
}

func (c *client) logResponse(resp *responseLog, traceID string) {
	e := c.logger.Info().
		Str("direction", "inbound").
		Int("status", resp.statusCode).
		Dur("elapsed", resp.stats.ElapsedTime).
		Int64("call_count", resp.stats.CallCount).
		Str("request_id", traceID)
	if len(resp.body) > 0 {
		e = e.Int("body_size", len(resp.body))
	}
	e.Msg(msgResponse)

	c.logPayload(msgResponse, resp.body, resp.headers, func(d logger.LogEvent) logger.LogEvent {
		return d.Str("direction", "inbound").Int("status", resp.statusCode).Str("request_id", traceID)
	})
}

// logPayload is a no-op unless LogPayloads is set in the live config.
func (c *client) logPayload(msg string, body []byte, headers http.Header, fields func(logger.LogEvent) logger.LogEvent) {
	enabled, maxBytes := c.payloadLogging()
	if !enabled {
		return
	}
	d := fields(c.logger.Debug()).Interface("headers", headers)
	if len(body) > 0 {
		preview := body[:min(len(body), maxBytes)]
		d = d.Int("body_size", len(body)).
			Bool("body_truncated", len(preview) < len(body)).
			Bytes("body_preview", preview)
	}
	d.Msg(msg)
}

func (c *client) payloadLogging() (enabled bool, maxBytes int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	maxBytes = DefaultMaxPayloadLogBytes
	if c.config == nil {
		return false, maxBytes
	}
	if c.config.MaxPayloadLogBytes > 0 {
		maxBytes = c.config.MaxPayloadLogBytes
	}
	return c.config.LogPayloads, maxBytes
}
