package app

import (
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/gaborage/bridgekit/config"
	"github.com/gaborage/bridgekit/ffmpeg"
	"github.com/gaborage/bridgekit/httpclient"
	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/notification"
	"github.com/gaborage/bridgekit/observability"
	"github.com/gaborage/bridgekit/permissions"
	"github.com/gaborage/bridgekit/platform"
	"github.com/gaborage/bridgekit/trace"
)

// appBootstrap handles the initialization sequence for creating an App instance.
type appBootstrap struct {
	cfg  *config.Config
	log  logger.Logger
	opts *Options
}

func newAppBootstrap(cfg *config.Config, log logger.Logger, opts *Options) *appBootstrap {
	return &appBootstrap{cfg: cfg, log: log, opts: opts}
}

func (b *appBootstrap) platformKind() (platform.Kind, error) {
	kind, err := platform.Parse(b.cfg.Platform)
	if err != nil {
		return "", fmt.Errorf("failed to resolve platform: %w", err)
	}
	return kind, nil
}

// observability returns the injected provider or builds one from config.
func (b *appBootstrap) observability() (observability.Provider, error) {
	if b.opts.Observability != nil {
		return b.opts.Observability, nil
	}
	obsCfg := b.cfg.Observability
	if obsCfg.Service.Name == "" {
		obsCfg.Service.Name = b.cfg.App.Name
	}
	if obsCfg.Service.Version == "" {
		obsCfg.Service.Version = b.cfg.App.Version
	}
	if obsCfg.Environment == "" {
		obsCfg.Environment = b.cfg.App.Env
	}
	return observability.NewProvider(&obsCfg, b.log)
}

// restClient builds the outbound REST client from the httpclient section.
func (b *appBootstrap) restClient(obs observability.Provider) httpclient.Client {
	hc := b.cfg.HTTPClient
	cfg := httpclient.Config{
		BaseURL:            hc.BaseURL,
		Timeout:            hc.Timeout,
		ResponseStyle:      httpclient.ResponseStyle(hc.ResponseStyle),
		LogPayloads:        hc.LogPayloads,
		MaxPayloadLogBytes: hc.MaxPayloadLogBytes,
	}
	if len(hc.Headers) > 0 {
		cfg.Headers = httpclient.MergeHeaders(hc.Headers)
	}
	if hc.ThrowOnError {
		cfg.ThrowOnError = httpclient.Bool(true)
	}
	if hc.Auth.Token != "" {
		cfg.Security = []httpclient.Auth{securityScheme(hc.Auth)}
		cfg.Auth = httpclient.StaticToken(hc.Auth.Token)
	}

	opts := []httpclient.Option{
		httpclient.WithTracerProvider(obs.TracerProvider()),
		httpclient.WithMeterProvider(obs.MeterProvider()),
		httpclient.WithTraceHeaders(trace.InjectOptions{}),
	}
	if b.opts.HTTPClient != nil {
		opts = append(opts, httpclient.WithHTTPClient(b.opts.HTTPClient))
	}
	if hc.RateLimit > 0 {
		burst := hc.RateBurst
		if burst <= 0 {
			burst = 1
		}
		opts = append(opts, httpclient.WithRateLimiter(rate.NewLimiter(rate.Limit(hc.RateLimit), burst)))
	}

	b.log.Debug().
		Str("base_url", hc.BaseURL).
		Dur("timeout", hc.Timeout).
		Str("response_style", hc.ResponseStyle).
		Msg("REST client configured")
	return httpclient.New(cfg, b.log, opts...)
}

// securityScheme maps the configured credential onto a client auth scheme.
func securityScheme(a config.AuthConfig) httpclient.Auth {
	switch strings.ToLower(a.Scheme) {
	case "basic":
		return httpclient.Auth{Type: "http", Scheme: "basic", Name: a.Name}
	case "apikey":
		return httpclient.Auth{Type: "apiKey", In: a.In, Name: a.Name}
	default:
		return httpclient.Auth{Type: "http", Scheme: "bearer", Name: a.Name}
	}
}

type platformServices struct {
	permissions   permissions.Service
	notifications notification.Service
	ffmpeg        ffmpeg.Service
}

func (b *appBootstrap) services(kind platform.Kind) platformServices {
	notifier := b.opts.Notifier
	if notifier == nil {
		notifier = notification.NewBeeepNotifier(b.cfg.Notification.AppName, b.cfg.Notification.Icon)
	}
	return platformServices{
		permissions:   permissions.New(kind, b.opts.PermissionPlugin, b.log),
		notifications: notification.New(kind, notifier, b.log),
		ffmpeg: ffmpeg.New(kind, ffmpeg.Config{
			Binary:  b.cfg.FFmpeg.Binary,
			Timeout: b.cfg.FFmpeg.Timeout,
		}, b.log),
	}
}
