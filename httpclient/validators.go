package httpclient

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

// ValidateBody returns a request validator that runs struct validation on
// struct bodies. Other body types pass.
func ValidateBody(v *validator.Validate) RequestValidator {
	return func(ctx context.Context, opts *RequestOptions) error {
		if isNil(opts.Body) {
			return nil
		}
		rv := reflect.ValueOf(opts.Body)
		for rv.Kind() == reflect.Pointer && !rv.IsNil() {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil
		}
		return v.StructCtx(ctx, opts.Body)
	}
}

// ValidateMap returns a response validator that checks a decoded JSON object
// against validator map rules, e.g. {"id": "required,uuid"}.
func ValidateMap(v *validator.Validate, rules map[string]any) ResponseValidator {
	return func(ctx context.Context, data any) error {
		obj, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected a JSON object, got %T", data)
		}
		failures := v.ValidateMapCtx(ctx, obj, rules)
		if len(failures) == 0 {
			return nil
		}
		keys := sortedKeys(failures)
		msgs := make([]string, 0, len(keys))
		for _, k := range keys {
			msgs = append(msgs, fmt.Sprintf("%s: %v", k, failures[k]))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}

// TransformInto returns a response transformer that decodes JSON data into a
// T using its json tags. RFC 3339 strings decode into time.Time fields.
func TransformInto[T any]() ResponseTransformer {
	return func(_ context.Context, data any) (any, error) {
		var out T
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			TagName:          "json",
			Result:           &out,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(data); err != nil {
			return nil, fmt.Errorf("decode %T: %w", out, err)
		}
		return out, nil
	}
}
