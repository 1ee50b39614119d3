// Package permissions checks and requests OS permissions through a platform
// plugin. Platforms without a permission model report every permission as
// granted.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/platform"
)

// Permission names an OS capability.
type Permission string

const (
	Camera          Permission = "camera"
	Microphone      Permission = "microphone"
	ScreenRecording Permission = "screen_recording"
	Accessibility   Permission = "accessibility"
	Notifications   Permission = "notifications"
)

var known = map[Permission]struct{}{
	Camera:          {},
	Microphone:      {},
	ScreenRecording: {},
	Accessibility:   {},
	Notifications:   {},
}

// Parse maps a permission name onto a Permission.
func Parse(name string) (Permission, error) {
	p := Permission(name)
	if _, ok := known[p]; !ok {
		return "", platform.NewError(codes.InvalidArgument, "permissions.parse", fmt.Sprintf("unknown permission %q", name), nil)
	}
	return p, nil
}

// maxConcurrentChecks bounds the plugin calls CheckAll runs at once.
const maxConcurrentChecks = 4

// Plugin is the OS permission API.
type Plugin interface {
	Check(ctx context.Context, p Permission) (bool, error)
	Request(ctx context.Context, p Permission) (bool, error)
}

// Service checks and requests permissions.
type Service interface {
	// Check reports whether p is granted without prompting.
	Check(ctx context.Context, p Permission) (bool, error)
	// Request prompts for p when needed and reports whether it is granted.
	Request(ctx context.Context, p Permission) (bool, error)
	// CheckAll checks every permission concurrently. The first failure aborts
	// the remaining checks.
	CheckAll(ctx context.Context, ps ...Permission) (map[Permission]bool, error)
}

// New returns the permission service for kind. Web, or desktop without a
// plugin, grants everything without calling out.
func New(kind platform.Kind, plugin Plugin, log logger.Logger) Service {
	if kind == platform.Web || plugin == nil {
		return grantingService{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &pluginService{plugin: plugin, logger: log}
}

// grantingService serves platforms without a permission model.
type grantingService struct{}

func (grantingService) Check(context.Context, Permission) (bool, error)   { return true, nil }
func (grantingService) Request(context.Context, Permission) (bool, error) { return true, nil }

func (grantingService) CheckAll(_ context.Context, ps ...Permission) (map[Permission]bool, error) {
	granted := make(map[Permission]bool, len(ps))
	for _, p := range ps {
		granted[p] = true
	}
	return granted, nil
}

type pluginService struct {
	plugin Plugin
	logger logger.Logger
}

func (s *pluginService) Check(ctx context.Context, p Permission) (bool, error) {
	return s.call(ctx, "permissions.check", p, s.plugin.Check)
}

func (s *pluginService) Request(ctx context.Context, p Permission) (bool, error) {
	return s.call(ctx, "permissions.request", p, s.plugin.Request)
}

func (s *pluginService) CheckAll(ctx context.Context, ps ...Permission) (map[Permission]bool, error) {
	var mu sync.Mutex
	granted := make(map[Permission]bool, len(ps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for _, p := range ps {
		g.Go(func() error {
			ok, err := s.Check(gctx, p)
			if err != nil {
				return err
			}
			mu.Lock()
			granted[p] = ok
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return granted, nil
}

func (s *pluginService) call(ctx context.Context, op string, p Permission, fn func(context.Context, Permission) (bool, error)) (bool, error) {
	granted, err := fn(ctx, p)
	if err != nil {
		wrapped := wrapPluginError(op, p, err)
		s.logger.Warn().
			Err(err).
			Str("operation", op).
			Str("permission", string(p)).
			Msg("Permission plugin call failed")
		return false, wrapped
	}

	s.logger.Debug().
		Str("operation", op).
		Str("permission", string(p)).
		Bool("granted", granted).
		Msg("Permission resolved")
	return granted, nil
}

// wrapPluginError keeps platform errors from the plugin and tags anything
// else, using the context code when the call was cancelled.
func wrapPluginError(op string, p Permission, err error) error {
	var pe *platform.Error
	if errors.As(err, &pe) {
		return err
	}
	code := codes.Internal
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		code = status.FromContextError(err).Code()
	}
	return platform.NewError(code, op, fmt.Sprintf("permission %q could not be resolved", p), err)
}
