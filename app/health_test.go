package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusByName(statuses []HealthStatus) map[string]HealthStatus {
	out := make(map[string]HealthStatus, len(statuses))
	for _, s := range statuses {
		out[s.Name] = s
	}
	return out
}

func TestHealthWeb(t *testing.T) {
	a := newTestApp(t, loadConfig(t, "platform: web\n"), nil)

	statuses := a.Health(context.Background())
	require.Len(t, statuses, 3)
	byName := statusByName(statuses)

	assert.Equal(t, healthyStatus, byName["platform"].Status)
	assert.True(t, byName["platform"].Critical)
	assert.Equal(t, "web", byName["platform"].Details["kind"])
	assert.Equal(t, false, byName["platform"].Details["headless"])

	assert.Equal(t, disabledStatus, byName["ffmpeg"].Status)
	assert.Equal(t, "ffmpeg", byName["ffmpeg"].Details["binary"])

	assert.Equal(t, disabledStatus, byName["httpclient"].Status)
}

func TestHealthHTTPClientConfigured(t *testing.T) {
	a := newTestApp(t, loadConfig(t, "platform: web\nhttpclient:\n  baseurl: https://api.example.com/\n"), nil)

	byName := statusByName(a.Health(context.Background()))
	assert.Equal(t, healthyStatus, byName["httpclient"].Status)
	assert.Equal(t, "https://api.example.com", byName["httpclient"].Details["base_url"])
	assert.Equal(t, "30s", byName["httpclient"].Details["timeout"])
}

func TestHealthProbeFuncDefaultsDetails(t *testing.T) {
	probe := healthProbeFunc{
		name: "empty",
		fn: func(context.Context) (string, map[string]any, error) {
			return healthyStatus, nil, nil
		},
	}

	got := probe.Run(context.Background())
	assert.NotNil(t, got.Details)
	assert.Equal(t, "empty", got.Name)
}
