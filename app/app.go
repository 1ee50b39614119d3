// Package app wires configuration, logging, observability, the REST client and
// the platform services into one application instance.
package app

import (
	"context"
	"fmt"

	"github.com/gaborage/bridgekit/config"
	"github.com/gaborage/bridgekit/ffmpeg"
	"github.com/gaborage/bridgekit/httpclient"
	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/notification"
	"github.com/gaborage/bridgekit/observability"
	"github.com/gaborage/bridgekit/permissions"
	"github.com/gaborage/bridgekit/platform"
)

// App represents the main application instance.
type App struct {
	cfg           *config.Config
	logger        logger.Logger
	kind          platform.Kind
	obs           observability.Provider
	client        httpclient.Client
	permissions   permissions.Service
	notifications notification.Service
	ffmpeg        ffmpeg.Service
}

// New creates an application from the default configuration sources.
func New() (*App, error) {
	return NewWithOptions(nil)
}

// NewWithOptions creates an application with optional overrides.
func NewWithOptions(opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}
	loader := opts.ConfigLoader
	if loader == nil {
		loader = func() (*config.Config, error) { return config.Load(config.Options{}) }
	}
	cfg, err := loader()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(cfg, opts)
}

// NewWithConfig creates an application from an already loaded configuration.
func NewWithConfig(cfg *config.Config, opts *Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts == nil {
		opts = &Options{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewWithOptions(logger.Options{
			Level:  cfg.Log.Level,
			Pretty: cfg.Log.Pretty,
			Output: opts.LogOutput,
		})
	}

	log.Info().
		Str("app", cfg.App.Name).
		Str("env", cfg.App.Env).
		Str("version", cfg.App.Version).
		Msg("Starting application")

	b := newAppBootstrap(cfg, log, opts)

	kind, err := b.platformKind()
	if err != nil {
		return nil, err
	}
	obs, err := b.observability()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	svc := b.services(kind)

	a := &App{
		cfg:           cfg,
		logger:        log,
		kind:          kind,
		obs:           obs,
		client:        b.restClient(obs),
		permissions:   svc.permissions,
		notifications: svc.notifications,
		ffmpeg:        svc.ffmpeg,
	}

	log.Info().
		Str("platform", string(kind)).
		Msg("Application initialized")
	return a, nil
}

func (a *App) Config() *config.Config                { return a.cfg }
func (a *App) Logger() logger.Logger                 { return a.logger }
func (a *App) Platform() platform.Kind               { return a.kind }
func (a *App) HTTPClient() httpclient.Client         { return a.client }
func (a *App) Permissions() permissions.Service      { return a.permissions }
func (a *App) Notifications() notification.Service   { return a.notifications }
func (a *App) FFmpeg() ffmpeg.Service                { return a.ffmpeg }
func (a *App) Observability() observability.Provider { return a.obs }

// Shutdown flushes telemetry. It is safe to call more than once.
func (a *App) Shutdown(ctx context.Context) error {
	if a.obs == nil {
		return nil
	}
	if err := a.obs.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown observability provider")
		return fmt.Errorf("observability shutdown failed: %w", err)
	}
	a.obs = nil
	a.logger.Info().Msg("Application shutdown complete")
	return nil
}
