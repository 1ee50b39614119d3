package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/gaborage/bridgekit/platform"
)

type recordingNotifier struct {
	sent []Notification
	err  error
}

func (r *recordingNotifier) Notify(n Notification) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, n)
	return nil
}

func newDesktop(t *testing.T, n Notifier, headless bool) Service {
	t.Helper()
	return newService(platform.Desktop, n, nil, headless)
}

func TestNotifyDesktop(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newDesktop(t, rec, false)

	err := svc.Notify(context.Background(), Notification{Title: "Export done", Body: "clip.mp4"})
	require.NoError(t, err)
	assert.Equal(t, []Notification{{Title: "Export done", Body: "clip.mp4"}}, rec.sent)
}

func TestNotifyWebUnsupported(t *testing.T) {
	rec := &recordingNotifier{}
	err := New(platform.Web, rec, nil).Notify(context.Background(), Notification{Title: "x"})

	require.Error(t, err)
	assert.Equal(t, codes.Unimplemented, platform.CodeOf(err))
	assert.Empty(t, rec.sent)
}

func TestNotifyHeadlessUnsupported(t *testing.T) {
	rec := &recordingNotifier{}
	err := newDesktop(t, rec, true).Notify(context.Background(), Notification{Title: "x"})

	assert.Equal(t, codes.Unimplemented, platform.CodeOf(err))
	assert.Empty(t, rec.sent)
}

func TestNotifyRejectsEmpty(t *testing.T) {
	err := newDesktop(t, &recordingNotifier{}, false).Notify(context.Background(), Notification{})
	assert.Equal(t, codes.InvalidArgument, platform.CodeOf(err))
}

func TestNotifyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recordingNotifier{}
	err := newDesktop(t, rec, false).Notify(ctx, Notification{Title: "x"})
	assert.Equal(t, codes.Canceled, platform.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.sent)
}

func TestNotifierFailureIsTagged(t *testing.T) {
	cause := errors.New("dbus: connection refused")
	err := newDesktop(t, &recordingNotifier{err: cause}, false).Notify(context.Background(), Notification{Body: "b"})

	var pe *platform.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, codes.Unavailable, pe.Code)
	assert.Equal(t, opNotify, pe.Op)
	assert.ErrorIs(t, err, cause)
}

func TestClearAlwaysSucceeds(t *testing.T) {
	for _, kind := range []platform.Kind{platform.Desktop, platform.Web} {
		assert.NoError(t, New(kind, &recordingNotifier{}, nil).Clear(context.Background()))
	}
}

func TestNewDefaultsToBeeep(t *testing.T) {
	svc := newService(platform.Desktop, nil, nil, false).(*desktopService)
	assert.IsType(t, &BeeepNotifier{}, svc.notifier)
}

func TestNewSelectsVariant(t *testing.T) {
	rec := &recordingNotifier{}

	assert.IsType(t, &webService{}, New(platform.Web, rec, nil))
	assert.IsType(t, &webService{}, newService(platform.Web, rec, nil, true))
	assert.IsType(t, &headlessService{}, newService(platform.Desktop, rec, nil, true))
	assert.IsType(t, &desktopService{}, newService(platform.Desktop, rec, nil, false))
}

func TestHeadlessClearSucceeds(t *testing.T) {
	assert.NoError(t, newDesktop(t, &recordingNotifier{}, true).Clear(context.Background()))
}
