package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/gaborage/bridgekit/config"
	"github.com/gaborage/bridgekit/ffmpeg"
	"github.com/gaborage/bridgekit/httpclient"
	"github.com/gaborage/bridgekit/notification"
	"github.com/gaborage/bridgekit/permissions"
	"github.com/gaborage/bridgekit/platform"
)

type recordingNotifier struct {
	sent []notification.Notification
}

func (r *recordingNotifier) Notify(n notification.Notification) error {
	r.sent = append(r.sent, n)
	return nil
}

type denyAllPlugin struct{}

func (denyAllPlugin) Check(context.Context, permissions.Permission) (bool, error)   { return false, nil }
func (denyAllPlugin) Request(context.Context, permissions.Permission) (bool, error) { return false, nil }

func loadConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	cfg, err := config.LoadBytes([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts *Options) *App {
	t.Helper()
	if opts == nil {
		opts = &Options{}
	}
	opts.LogOutput = io.Discard
	a, err := NewWithConfig(cfg, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func TestNewWithConfigWebPlatform(t *testing.T) {
	a := newTestApp(t, loadConfig(t, "platform: web\n"), &Options{Notifier: &recordingNotifier{}})
	ctx := context.Background()

	assert.Equal(t, platform.Web, a.Platform())

	ok, err := a.Permissions().Check(ctx, permissions.Camera)
	require.NoError(t, err)
	assert.True(t, ok)

	err = a.Notifications().Notify(ctx, notification.Notification{Title: "x"})
	assert.Equal(t, codes.Unimplemented, platform.CodeOf(err))
	assert.NoError(t, a.Notifications().Clear(ctx))

	assert.False(t, a.FFmpeg().Available(ctx))
	_, err = a.FFmpeg().Run(ctx, "-version")
	assert.ErrorIs(t, err, ffmpeg.ErrUnavailable)
}

func TestNewWithConfigDesktopPlugin(t *testing.T) {
	a := newTestApp(t, loadConfig(t, "platform: desktop\n"), &Options{PermissionPlugin: denyAllPlugin{}})

	ok, err := a.Permissions().Request(context.Background(), permissions.Microphone)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewWithConfigRequiresConfig(t *testing.T) {
	_, err := NewWithConfig(nil, nil)
	assert.Error(t, err)
}

func TestNewWithConfigRejectsUnknownPlatform(t *testing.T) {
	cfg := loadConfig(t, "platform: desktop\n")
	cfg.Platform = "mainframe"

	_, err := NewWithConfig(cfg, &Options{LogOutput: io.Discard})
	assert.ErrorContains(t, err, "mainframe")
}

func TestNewWithOptionsUsesLoader(t *testing.T) {
	a, err := NewWithOptions(&Options{
		ConfigLoader: func() (*config.Config, error) {
			return config.LoadBytes([]byte("app:\n  name: loaded\nplatform: web\n"))
		},
		LogOutput: io.Discard,
	})
	require.NoError(t, err)
	assert.Equal(t, "loaded", a.Config().App.Name)
	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Observability())

	_, err = NewWithOptions(&Options{
		ConfigLoader: func() (*config.Config, error) { return nil, errors.New("no config") },
	})
	assert.ErrorContains(t, err, "failed to load config")
}

func TestRESTClientFromConfig(t *testing.T) {
	e := echo.New()
	e.GET("/whoami", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"authorization": c.Request().Header.Get(echo.HeaderAuthorization),
			"static":        c.Request().Header.Get("X-Static"),
			"traceparent":   c.Request().Header.Get("traceparent"),
		})
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	cfg := loadConfig(t, `
platform: web
httpclient:
  baseurl: `+srv.URL+`
  headers:
    X-Static: fixed
  auth:
    scheme: bearer
    token: s3cret
  ratelimit: 100
  rateburst: 5
`)
	a := newTestApp(t, cfg, &Options{HTTPClient: srv.Client()})

	res, err := a.HTTPClient().Get(context.Background(), httpclient.RequestOptions{URL: "/whoami"})
	require.NoError(t, err)
	data, ok := res.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bearer s3cret", data["authorization"])
	assert.Equal(t, "fixed", data["static"])

	got := a.HTTPClient().GetConfig()
	assert.Equal(t, srv.URL, got.BaseURL)
	assert.Equal(t, httpclient.StyleFields, got.ResponseStyle)
}

func TestSecurityScheme(t *testing.T) {
	tests := []struct {
		in   config.AuthConfig
		want httpclient.Auth
	}{
		{config.AuthConfig{Scheme: "bearer"}, httpclient.Auth{Type: "http", Scheme: "bearer"}},
		{config.AuthConfig{}, httpclient.Auth{Type: "http", Scheme: "bearer"}},
		{config.AuthConfig{Scheme: "basic"}, httpclient.Auth{Type: "http", Scheme: "basic"}},
		{config.AuthConfig{Scheme: "apikey", In: "query", Name: "key"}, httpclient.Auth{Type: "apiKey", In: "query", Name: "key"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, securityScheme(tt.in))
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	a, err := NewWithConfig(loadConfig(t, "platform: web\n"), &Options{LogOutput: io.Discard})
	require.NoError(t, err)

	assert.NoError(t, a.Shutdown(context.Background()))
	assert.NoError(t, a.Shutdown(context.Background()))
}
