package config

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrNotConfigured marks an optional section that was left out.
var ErrNotConfigured = errors.New("not configured")

// Category classifies a ConfigError.
type Category string

const (
	CategoryMissing       Category = "missing"
	CategoryInvalid       Category = "invalid"
	CategoryNotConfigured Category = "not_configured"
)

// ConfigError points at one configuration key and says how to fix it.
//
//nolint:revive // config.ConfigError reads better than config.Error at call sites
type ConfigError struct {
	Category Category
	Field    string // koanf key path, e.g. "httpclient.baseurl"
	Message  string
	Hint     string
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config_")
	b.WriteString(string(e.Category))
	b.WriteString(":")
	for _, part := range []string{e.Field, e.Message, e.Hint} {
		if part != "" {
			b.WriteString(" ")
			b.WriteString(part)
		}
	}
	return b.String()
}

// GRPCStatus classifies configuration problems alongside platform errors.
func (e *ConfigError) GRPCStatus() *status.Status {
	code := codes.InvalidArgument
	if e.Category == CategoryNotConfigured {
		code = codes.FailedPrecondition
	}
	return status.New(code, e.Error())
}

// EnvVar returns the environment variable that sets key.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func NewMissingFieldError(field string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    field,
		Message:  "required",
		Hint:     fmt.Sprintf("set %s env var or add %s to config.yaml", EnvVar(field), field),
	}
}

func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{Category: CategoryInvalid, Field: field, Message: message}
	if len(validOptions) > 0 {
		err.Hint = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return err
}

// NewNotConfiguredError reports an optional section. envVar defaults to the
// variable derived from yamlPath.
func NewNotConfiguredError(feature, envVar, yamlPath string) *ConfigError {
	if envVar == "" {
		envVar = EnvVar(yamlPath)
	}
	return &ConfigError{
		Category: CategoryNotConfigured,
		Field:    feature,
		Message:  "(optional)",
		Hint:     fmt.Sprintf("to enable: set %s env var or add %s to config.yaml", envVar, yamlPath),
	}
}

// IsNotConfigured reports whether err marks an optional section as absent.
func IsNotConfigured(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	var configErr *ConfigError
	return errors.As(err, &configErr) && configErr.Category == CategoryNotConfigured
}
