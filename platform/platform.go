// Package platform detects where bridgekit runs and carries the error type
// returned by platform-dependent services.
package platform

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Kind identifies the host environment a service is built for.
type Kind string

const (
	Desktop Kind = "desktop"
	Web     Kind = "web"
)

// Detect reports the platform of the running binary. WebAssembly targets are
// treated as web, everything else as desktop.
func Detect() Kind {
	return detect(runtime.GOOS, runtime.GOARCH)
}

func detect(goos, goarch string) Kind {
	if goos == "js" || goos == "wasip1" || goarch == "wasm" {
		return Web
	}
	return Desktop
}

// Parse converts a configured platform name. An empty name or "auto" means
// Detect.
func Parse(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Detect(), nil
	case string(Desktop):
		return Desktop, nil
	case string(Web):
		return Web, nil
	default:
		return "", fmt.Errorf("unknown platform %q", name)
	}
}

// Headless reports whether a Linux desktop has no display server to talk to.
// Other operating systems are never considered headless.
func Headless() bool {
	return headless(runtime.GOOS, os.Getenv)
}

func headless(goos string, getenv func(string) string) bool {
	if goos != "linux" {
		return false
	}
	return getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == ""
}
