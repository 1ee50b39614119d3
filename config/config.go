package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "BRIDGE_"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Options controls where Load reads configuration from.
type Options struct {
	// Files are YAML files loaded in order. Missing files are skipped.
	Files []string
	// Environ replaces os.Environ, mainly for tests.
	Environ func() []string
}

// Load loads configuration from multiple sources with priority:
// 1. Environment variables with the BRIDGE_ prefix (highest priority)
// 2. YAML configuration files, in the order given
// 3. Default values (lowest priority)
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	files := opts.Files
	if len(files) == 0 {
		files = []string{"config.yaml"}
	}
	for _, path := range files {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := loadEnv(k, opts.Environ); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return finish(k)
}

// LoadBytes loads defaults overlaid with an in-memory YAML document. Environment
// variables are not consulted.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(k)
}

func finish(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnv(k *koanf.Koanf, environ func() []string) error {
	if environ == nil {
		environ = os.Environ
	}
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
		EnvironFunc: environ,
	}), nil)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "bridgekit",
		"app.version": "v0.1.0",
		"app.env":     EnvDevelopment,

		"log.level":  "info",
		"log.pretty": false,

		"platform": "auto",

		"httpclient.timeout":            "30s",
		"httpclient.responsestyle":      "fields",
		"httpclient.throwonerror":       false,
		"httpclient.logpayloads":        false,
		"httpclient.maxpayloadlogbytes": 1024,

		"notification.appname": "bridgekit",

		"ffmpeg.binary":  "ffmpeg",
		"ffmpeg.timeout": "0s",

		"observability.enabled": false,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

// GetString retrieves a string value from the configuration or the provided default.
func (c *Config) GetString(key string, defaultVal ...string) string {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		if len(defaultVal) > 0 {
			return defaultVal[0]
		}
		return ""
	}
	return c.k.String(key)
}

// GetBool retrieves a bool value from the configuration or the provided default.
func (c *Config) GetBool(key string, defaultVal ...bool) bool {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return len(defaultVal) > 0 && defaultVal[0]
	}
	return c.k.Bool(key)
}

// Unmarshal decodes the subtree at key into out, for sections bridgekit does not model.
func (c *Config) Unmarshal(key string, out any) error {
	if c == nil || c.k == nil {
		return NewNotConfiguredError(key, "", key)
	}
	return c.k.Unmarshal(key, out)
}
