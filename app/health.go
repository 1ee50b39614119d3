package app

import (
	"context"

	"github.com/gaborage/bridgekit/platform"
)

const (
	healthyStatus   = "healthy"
	unhealthyStatus = "unhealthy"
	disabledStatus  = "disabled"
)

// HealthStatus captures the outcome of a readiness probe.
type HealthStatus struct {
	Name     string
	Status   string
	Details  map[string]any
	Err      error
	Critical bool
}

// HealthProbe exposes a uniform interface for readiness probes.
type HealthProbe interface {
	Run(ctx context.Context) HealthStatus
}

type healthProbeFunc struct {
	name     string
	critical bool
	fn       func(ctx context.Context) (string, map[string]any, error)
}

func (h healthProbeFunc) Run(ctx context.Context) HealthStatus {
	status, details, err := h.fn(ctx)
	if details == nil {
		details = map[string]any{}
	}
	return HealthStatus{
		Name:     h.name,
		Status:   status,
		Details:  details,
		Err:      err,
		Critical: h.critical,
	}
}

// Health runs every probe in order.
func (a *App) Health(ctx context.Context) []HealthStatus {
	probes := []HealthProbe{
		a.platformProbe(),
		a.ffmpegProbe(),
		a.httpClientProbe(),
	}
	out := make([]HealthStatus, 0, len(probes))
	for _, p := range probes {
		out = append(out, p.Run(ctx))
	}
	return out
}

func (a *App) platformProbe() HealthProbe {
	return healthProbeFunc{
		name:     "platform",
		critical: true,
		fn: func(context.Context) (string, map[string]any, error) {
			headless := a.kind == platform.Desktop && platform.Headless()
			return healthyStatus, map[string]any{
				"kind":     string(a.kind),
				"headless": headless,
			}, nil
		},
	}
}

func (a *App) ffmpegProbe() HealthProbe {
	return healthProbeFunc{
		name: "ffmpeg",
		fn: func(ctx context.Context) (string, map[string]any, error) {
			if !a.ffmpeg.Available(ctx) {
				return disabledStatus, map[string]any{"binary": a.cfg.FFmpeg.Binary}, nil
			}
			version, err := a.ffmpeg.Version(ctx)
			if err != nil {
				return unhealthyStatus, map[string]any{"binary": a.cfg.FFmpeg.Binary}, err
			}
			return healthyStatus, map[string]any{"binary": a.cfg.FFmpeg.Binary, "version": version}, nil
		},
	}
}

func (a *App) httpClientProbe() HealthProbe {
	return healthProbeFunc{
		name: "httpclient",
		fn: func(context.Context) (string, map[string]any, error) {
			cfg := a.client.GetConfig()
			if cfg.BaseURL == "" {
				return disabledStatus, map[string]any{"base_url": ""}, nil
			}
			return healthyStatus, map[string]any{
				"base_url": cfg.BaseURL,
				"timeout":  cfg.Timeout.String(),
			}, nil
		},
	}
}
