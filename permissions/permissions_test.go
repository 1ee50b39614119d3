package permissions

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/gaborage/bridgekit/platform"
)

// fakePlugin records calls and answers from a fixed table.
type fakePlugin struct {
	mu       sync.Mutex
	granted  map[Permission]bool
	err      error
	checks   []Permission
	requests []Permission
}

func (f *fakePlugin) Check(_ context.Context, p Permission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, p)
	return f.granted[p], f.err
}

func (f *fakePlugin) Request(_ context.Context, p Permission) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, p)
	if f.err != nil {
		return false, f.err
	}
	f.granted[p] = true
	return true, nil
}

func TestWebGrantsWithoutPlugin(t *testing.T) {
	plugin := &fakePlugin{granted: map[Permission]bool{}}
	svc := New(platform.Web, plugin, nil)

	ok, err := svc.Check(context.Background(), Camera)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Request(context.Background(), Microphone)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Empty(t, plugin.checks, "web never calls the plugin")
	assert.Empty(t, plugin.requests)
}

func TestDesktopWithoutPluginGrants(t *testing.T) {
	svc := New(platform.Desktop, nil, nil)

	ok, err := svc.Check(context.Background(), Accessibility)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDesktopForwardsToPlugin(t *testing.T) {
	plugin := &fakePlugin{granted: map[Permission]bool{Camera: true}}
	svc := New(platform.Desktop, plugin, nil)

	ok, err := svc.Check(context.Background(), Camera)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Check(context.Background(), Microphone)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Request(context.Background(), Microphone)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []Permission{Camera, Microphone}, plugin.checks)
	assert.Equal(t, []Permission{Microphone}, plugin.requests)
}

func TestPluginErrorsAreTagged(t *testing.T) {
	cause := errors.New("tcc database locked")
	svc := New(platform.Desktop, &fakePlugin{granted: map[Permission]bool{}, err: cause}, nil)

	ok, err := svc.Check(context.Background(), ScreenRecording)
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, cause)

	var pe *platform.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, codes.Internal, pe.Code)
	assert.Equal(t, "permissions.check", pe.Op)
	assert.Contains(t, pe.Message, "screen_recording")
}

func TestPluginPlatformErrorsPassThrough(t *testing.T) {
	denied := platform.NewError(codes.PermissionDenied, "permissions.request", "blocked by policy", nil)
	svc := New(platform.Desktop, &fakePlugin{granted: map[Permission]bool{}, err: denied}, nil)

	_, err := svc.Request(context.Background(), Camera)
	assert.Same(t, denied, err)
	assert.Equal(t, codes.PermissionDenied, platform.CodeOf(err))
}

func TestContextErrorsKeepTheirCode(t *testing.T) {
	svc := New(platform.Desktop, &fakePlugin{granted: map[Permission]bool{}, err: context.DeadlineExceeded}, nil)

	_, err := svc.Check(context.Background(), Camera)
	assert.Equal(t, codes.DeadlineExceeded, platform.CodeOf(err))
}

func TestCheckAll(t *testing.T) {
	plugin := &fakePlugin{granted: map[Permission]bool{Camera: true, Notifications: true}}
	svc := New(platform.Desktop, plugin, nil)

	got, err := svc.CheckAll(context.Background(), Camera, Microphone, Notifications, Accessibility, ScreenRecording)
	require.NoError(t, err)
	assert.Equal(t, map[Permission]bool{
		Camera:          true,
		Microphone:      false,
		Notifications:   true,
		Accessibility:   false,
		ScreenRecording: false,
	}, got)
	assert.Len(t, plugin.checks, 5)
}

func TestCheckAllFailure(t *testing.T) {
	svc := New(platform.Desktop, &fakePlugin{granted: map[Permission]bool{}, err: errors.New("boom")}, nil)

	got, err := svc.CheckAll(context.Background(), Camera, Microphone)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, codes.Internal, platform.CodeOf(err))
}

func TestCheckAllWeb(t *testing.T) {
	got, err := New(platform.Web, nil, nil).CheckAll(context.Background(), Camera)
	require.NoError(t, err)
	assert.Equal(t, map[Permission]bool{Camera: true}, got)
}

func TestNewSelectsVariant(t *testing.T) {
	plugin := &fakePlugin{granted: map[Permission]bool{}}

	assert.IsType(t, grantingService{}, New(platform.Web, plugin, nil))
	assert.IsType(t, grantingService{}, New(platform.Desktop, nil, nil))
	assert.IsType(t, &pluginService{}, New(platform.Desktop, plugin, nil))
}

func TestGrantingServiceCheckAll(t *testing.T) {
	got, err := New(platform.Desktop, nil, nil).CheckAll(context.Background(), Camera, Accessibility)
	require.NoError(t, err)
	assert.Equal(t, map[Permission]bool{Camera: true, Accessibility: true}, got)
}

func TestParse(t *testing.T) {
	p, err := Parse("screen_recording")
	require.NoError(t, err)
	assert.Equal(t, ScreenRecording, p)

	_, err = Parse("telepathy")
	assert.Equal(t, codes.InvalidArgument, platform.CodeOf(err))
	assert.ErrorContains(t, err, "telepathy")
}
