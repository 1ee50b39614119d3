package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report koanf key names so errors point at what the user actually writes.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks cfg and returns the first problem as a *ConfigError. The
// observability section is validated by its own package.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return toConfigError(verrs[0])
		}
		return err
	}

	if cfg.HTTPClient.Auth.Token != "" && cfg.HTTPClient.Auth.Scheme == "" {
		return NewMissingFieldError("httpclient.auth.scheme")
	}
	if cfg.HTTPClient.Auth.Scheme == "apikey" && cfg.HTTPClient.Auth.Name == "" {
		return NewMissingFieldError("httpclient.auth.name")
	}
	obs := cfg.Observability
	obs.ApplyDefaults()
	if err := obs.Validate(); err != nil {
		return NewInvalidFieldError("observability", err.Error(), nil)
	}
	return nil
}

func toConfigError(fe validator.FieldError) *ConfigError {
	// Namespace is "Config.httpclient.baseurl"; drop the root type.
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch fe.Tag() {
	case "required":
		return NewMissingFieldError(field)
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %q", fmt.Sprint(fe.Value())), strings.Fields(fe.Param()))
	case "url":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid url %q", fmt.Sprint(fe.Value())), nil)
	default:
		return NewInvalidFieldError(field, fmt.Sprintf("failed %s=%s check", fe.Tag(), fe.Param()), nil)
	}
}
