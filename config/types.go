package config

import (
	"time"

	"github.com/gaborage/bridgekit/observability"
	"github.com/knadh/koanf/v2"
)

// Config represents the overall bridgekit configuration. Keys contain no
// underscores so they map one-to-one onto BRIDGE_ environment variables
// (BRIDGE_HTTPCLIENT_BASEURL -> httpclient.baseurl).
type Config struct {
	App           AppConfig            `koanf:"app"`
	Log           LogConfig            `koanf:"log"`
	Platform      string               `koanf:"platform" validate:"omitempty,oneof=auto desktop web"`
	HTTPClient    HTTPClientConfig     `koanf:"httpclient"`
	Notification  NotificationConfig   `koanf:"notification"`
	FFmpeg        FFmpegConfig         `koanf:"ffmpeg"`
	Observability observability.Config `koanf:"observability" validate:"-"`

	// k holds the underlying Koanf instance for access to custom keys
	k *koanf.Koanf
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" validate:"required"`
	Version string `koanf:"version" validate:"required"`
	Env     string `koanf:"env" validate:"oneof=development staging production"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Pretty bool   `koanf:"pretty"`
}

// HTTPClientConfig holds defaults for the outbound REST client.
type HTTPClientConfig struct {
	BaseURL string            `koanf:"baseurl" validate:"omitempty,url"`
	Timeout time.Duration     `koanf:"timeout" validate:"gte=0"`
	Headers map[string]string `koanf:"headers"`

	// ResponseStyle is "fields" (envelope) or "data" (bare value).
	ResponseStyle string `koanf:"responsestyle" validate:"oneof=fields data"`
	ThrowOnError  bool   `koanf:"throwonerror"`

	// Auth is applied through a single security scheme when Token is set.
	Auth AuthConfig `koanf:"auth"`

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `koanf:"ratelimit" validate:"gte=0"`
	RateBurst int     `koanf:"rateburst" validate:"gte=0"`

	LogPayloads        bool `koanf:"logpayloads"`
	MaxPayloadLogBytes int  `koanf:"maxpayloadlogbytes" validate:"gte=0"`
}

// AuthConfig describes a static credential for outbound calls.
type AuthConfig struct {
	Scheme string `koanf:"scheme" validate:"omitempty,oneof=bearer basic apikey"`
	In     string `koanf:"in" validate:"omitempty,oneof=header query cookie"`
	Name   string `koanf:"name"`
	Token  string `koanf:"token"`
}

// NotificationConfig holds desktop notification settings.
type NotificationConfig struct {
	AppName string `koanf:"appname"`
	Icon    string `koanf:"icon"`
}

// FFmpegConfig locates the ffmpeg binary.
type FFmpegConfig struct {
	Binary  string        `koanf:"binary" validate:"required"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
}
