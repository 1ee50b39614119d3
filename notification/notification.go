// Package notification shows desktop notifications.
package notification

import (
	"context"

	"github.com/gen2brain/beeep"
	"google.golang.org/grpc/codes"

	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/platform"
)

const (
	opNotify = "notification.notify"
	opClear  = "notification.clear"
)

// Notification is one message shown to the user.
type Notification struct {
	Title string
	Body  string
	// Icon is a file path. Empty uses the notifier default.
	Icon string
	// Urgent plays the system alert sound where supported.
	Urgent bool
}

// Notifier is the OS notification subsystem.
type Notifier interface {
	Notify(n Notification) error
}

// BeeepNotifier delivers notifications through beeep.
type BeeepNotifier struct {
	AppName string
	Icon    string
}

// NewBeeepNotifier returns a notifier that falls back to appName for empty
// titles and to icon for notifications without their own.
func NewBeeepNotifier(appName, icon string) *BeeepNotifier {
	return &BeeepNotifier{AppName: appName, Icon: icon}
}

func (b *BeeepNotifier) Notify(n Notification) error {
	title := n.Title
	if title == "" {
		title = b.AppName
	}
	icon := n.Icon
	if icon == "" {
		icon = b.Icon
	}
	if n.Urgent {
		return beeep.Alert(title, n.Body, icon)
	}
	return beeep.Notify(title, n.Body, icon)
}

// Service shows and clears notifications.
type Service interface {
	Notify(ctx context.Context, n Notification) error
	// Clear removes delivered notifications. It always succeeds.
	Clear(ctx context.Context) error
}

// New returns the notification service for kind. The variant is chosen once:
// web and headless desktops reject every notification. A nil notifier on
// desktop uses beeep with no app name.
func New(kind platform.Kind, notifier Notifier, log logger.Logger) Service {
	return newService(kind, notifier, log, kind == platform.Desktop && platform.Headless())
}

func newService(kind platform.Kind, notifier Notifier, log logger.Logger, headless bool) Service {
	if log == nil {
		log = logger.Nop()
	}
	switch {
	case kind == platform.Web:
		return &webService{logger: log}
	case headless:
		return &headlessService{logger: log}
	}
	if notifier == nil {
		notifier = NewBeeepNotifier("", "")
	}
	return &desktopService{notifier: notifier, logger: log}
}

type webService struct {
	logger logger.Logger
}

func (s *webService) Notify(context.Context, Notification) error {
	return platform.Unsupported(opNotify, platform.Web)
}

func (s *webService) Clear(context.Context) error {
	return clearNothing(s.logger)
}

// headlessService serves desktops without a display server.
type headlessService struct {
	logger logger.Logger
}

func (s *headlessService) Notify(context.Context, Notification) error {
	return platform.NewError(codes.Unimplemented, opNotify, "no display server available", nil)
}

func (s *headlessService) Clear(context.Context) error {
	return clearNothing(s.logger)
}

type desktopService struct {
	notifier Notifier
	logger   logger.Logger
}

func (s *desktopService) Notify(ctx context.Context, n Notification) error {
	if n.Title == "" && n.Body == "" {
		return platform.NewError(codes.InvalidArgument, opNotify, "notification needs a title or a body", nil)
	}
	if err := ctx.Err(); err != nil {
		return platform.NewError(codes.Canceled, opNotify, "notification cancelled", err)
	}

	if err := s.notifier.Notify(n); err != nil {
		s.logger.Warn().
			Err(err).
			Str("title", n.Title).
			Msg("Desktop notification failed")
		return platform.NewError(codes.Unavailable, opNotify, "desktop notification failed", err)
	}
	s.logger.Debug().Str("title", n.Title).Bool("urgent", n.Urgent).Msg("Desktop notification sent")
	return nil
}

func (s *desktopService) Clear(context.Context) error {
	return clearNothing(s.logger)
}

// clearNothing logs the request: beeep does not track delivered notifications.
func clearNothing(log logger.Logger) error {
	log.Debug().Str("operation", opClear).Msg("Notification clear requested")
	return nil
}
