package app

import (
	"io"
	"net/http"

	"github.com/gaborage/bridgekit/config"
	"github.com/gaborage/bridgekit/logger"
	"github.com/gaborage/bridgekit/notification"
	"github.com/gaborage/bridgekit/observability"
	"github.com/gaborage/bridgekit/permissions"
)

// Options contains optional dependencies for creating an App instance
type Options struct {
	ConfigLoader func() (*config.Config, error)
	Logger       logger.Logger
	// LogOutput is where the default logger writes. Ignored when Logger is set.
	LogOutput io.Writer

	Observability    observability.Provider
	HTTPClient       *http.Client
	PermissionPlugin permissions.Plugin
	Notifier         notification.Notifier
}
