package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(Options{Files: []string{filepath.Join(t.TempDir(), "missing.yaml")}, Environ: environ()})
	require.NoError(t, err)

	assert.Equal(t, "bridgekit", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Env)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "auto", cfg.Platform)
	assert.Equal(t, 30*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, "fields", cfg.HTTPClient.ResponseStyle)
	assert.Equal(t, 1024, cfg.HTTPClient.MaxPayloadLogBytes)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Binary)
	assert.False(t, cfg.Observability.Enabled)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: desktop-shell
httpclient:
  baseurl: https://api.example.com/
  timeout: 5s
  headers:
    accept: application/json
log:
  level: debug
`), 0o600))

	cfg, err := Load(Options{
		Files: []string{path},
		Environ: environ(
			"BRIDGE_LOG_LEVEL=warn",
			"BRIDGE_HTTPCLIENT_THROWONERROR=true",
			"UNRELATED_LOG_LEVEL=error",
		),
	})
	require.NoError(t, err)

	assert.Equal(t, "desktop-shell", cfg.App.Name)
	assert.Equal(t, "https://api.example.com/", cfg.HTTPClient.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPClient.Timeout)
	assert.Equal(t, "application/json", cfg.HTTPClient.Headers["accept"])
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.HTTPClient.ThrowOnError)
	assert.Equal(t, "warn", cfg.GetString("log.level"))
	assert.True(t, cfg.GetBool("httpclient.throwonerror"))
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app: [unclosed"), 0o600))

	_, err := Load(Options{Files: []string{path}, Environ: environ()})
	assert.Error(t, err)
}

func TestLoadBytes_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		category Category
		field    string
	}{
		{"bad env", "app:\n  env: qa\n", CategoryInvalid, "app.env"},
		{"bad level", "log:\n  level: loud\n", CategoryInvalid, "log.level"},
		{"bad url", "httpclient:\n  baseurl: not a url\n", CategoryInvalid, "httpclient.baseurl"},
		{"bad style", "httpclient:\n  responsestyle: raw\n", CategoryInvalid, "httpclient.responsestyle"},
		{"empty ffmpeg", "ffmpeg:\n  binary: \"\"\n", CategoryMissing, "ffmpeg.binary"},
		{"token without scheme", "httpclient:\n  auth:\n    token: abc\n", CategoryMissing, "httpclient.auth.scheme"},
		{"apikey without name", "httpclient:\n  auth:\n    scheme: apikey\n    token: abc\n", CategoryMissing, "httpclient.auth.name"},
		{"observability without name", "observability:\n  enabled: true\n", CategoryInvalid, "observability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBytes([]byte(tt.yaml))
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected ConfigError, got %v", err)
			assert.Equal(t, tt.category, cfgErr.Category)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadBytes_Observability(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
observability:
  enabled: true
  service:
    name: bridge
  trace:
    samplerate: 0.25
`))
	require.NoError(t, err)
	assert.True(t, cfg.Observability.Enabled)
	assert.Equal(t, "bridge", cfg.Observability.Service.Name)
	require.NotNil(t, cfg.Observability.Trace.SampleRate)
	assert.Equal(t, 0.25, *cfg.Observability.Trace.SampleRate)
}

func TestConfigError(t *testing.T) {
	err := NewMissingFieldError("httpclient.baseurl")
	assert.Equal(t, "config_missing: httpclient.baseurl required set BRIDGE_HTTPCLIENT_BASEURL env var or add httpclient.baseurl to config.yaml", err.Error())

	inv := NewInvalidFieldError("log.level", "invalid value \"x\"", []string{"debug", "info"})
	assert.Contains(t, inv.Error(), "must be one of: debug, info")

	nc := NewNotConfiguredError("ffmpeg", "", "ffmpeg.binary")
	assert.True(t, IsNotConfigured(nc))
	assert.Contains(t, nc.Error(), "BRIDGE_FFMPEG_BINARY")
	assert.True(t, IsNotConfigured(ErrNotConfigured))
	assert.False(t, IsNotConfigured(inv))
	assert.False(t, IsNotConfigured(nil))

	assert.Equal(t, codes.InvalidArgument, status.Code(inv))
	assert.Equal(t, codes.FailedPrecondition, status.Code(nc))
}

func TestUnmarshalSubtree(t *testing.T) {
	cfg, err := LoadBytes([]byte("extras:\n  region: eu\n"))
	require.NoError(t, err)

	var extras struct {
		Region string `koanf:"region"`
	}
	require.NoError(t, cfg.Unmarshal("extras", &extras))
	assert.Equal(t, "eu", extras.Region)

	var nilCfg *Config
	assert.True(t, IsNotConfigured(nilCfg.Unmarshal("extras", &extras)))
	assert.Equal(t, "fallback", nilCfg.GetString("x", "fallback"))
}
