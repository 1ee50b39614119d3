// Package validation reads request-binding metadata from struct tags. The
// httpclient parameter mapper uses it to route struct fields into request
// slots, and the same metadata exposes validator constraints for callers that
// want to inspect them.
package validation

import (
	"reflect"
	"strconv"
	"strings"
)

// Location names the part of an outbound request a field binds to.
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationBody   Location = "body"
)

const flagSet = "true"

// TagInfo represents parsed binding and validation metadata of one struct field
type TagInfo struct {
	Name        string            // Go field name
	JSONName    string            // JSON field name, "-" when ignored
	In          Location          // Request location
	ParamName   string            // Name for path/query/header/form parameters
	Index       []int             // Field index for reflect.Value.FieldByIndex
	OmitEmpty   bool              // json omitempty or validate omitempty
	Required    bool              // validate:"required" or path parameter
	Constraints map[string]string // Constraints from the validate tag
}

// Key returns the name the field is sent under.
func (t *TagInfo) Key() string {
	if t.In != LocationBody {
		return t.ParamName
	}
	if t.JSONName != "" {
		return t.JSONName
	}
	if t.ParamName != "" {
		return t.ParamName
	}
	return t.Name
}

// Skipped reports whether the field never leaves the process.
func (t *TagInfo) Skipped() bool {
	return t.In == LocationBody && t.JSONName == "-"
}

// ParseTags extracts binding metadata from a struct type. Pointer types are
// dereferenced; non-struct types yield nil.
func ParseTags(t reflect.Type) []TagInfo {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	var tags []TagInfo
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		info := TagInfo{
			Name:        field.Name,
			Index:       field.Index,
			Constraints: make(map[string]string),
		}

		if json := field.Tag.Get("json"); json != "" {
			name, opts, _ := strings.Cut(json, ",")
			info.JSONName = name
			for _, opt := range strings.Split(opts, ",") {
				if strings.TrimSpace(opt) == "omitempty" {
					info.OmitEmpty = true
				}
			}
		}

		info.In, info.ParamName = parseLocation(field.Tag)

		if validate := field.Tag.Get("validate"); validate != "" {
			parseValidateTag(validate, info.Constraints)
		}
		if _, ok := info.Constraints["omitempty"]; ok {
			info.OmitEmpty = true
		}
		_, required := info.Constraints["required"]
		info.Required = required || info.In == LocationPath

		tags = append(tags, info)
	}
	return tags
}

// FieldValue pairs a field's metadata with its value in a particular struct.
type FieldValue struct {
	Tag   TagInfo
	Value any
	Zero  bool
}

// Values returns the bound fields of v in declaration order. Ignored fields and
// zero-valued omitempty fields are left out. v may be a struct or a pointer to one.
func Values(v any) []FieldValue {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	tags := ParseTags(rv.Type())
	out := make([]FieldValue, 0, len(tags))
	for _, tag := range tags {
		if tag.Skipped() {
			continue
		}
		fv := rv.FieldByIndex(tag.Index)
		zero := fv.IsZero()
		if zero && tag.OmitEmpty {
			continue
		}
		out = append(out, FieldValue{Tag: tag, Value: fv.Interface(), Zero: zero})
	}
	return out
}

// parseLocation determines the request location from struct tags. Form fields
// travel in the body.
func parseLocation(tag reflect.StructTag) (Location, string) {
	if param := tag.Get("param"); param != "" {
		return LocationPath, param
	}
	if query := tag.Get("query"); query != "" {
		return LocationQuery, query
	}
	if header := tag.Get("header"); header != "" {
		return LocationHeader, header
	}
	return LocationBody, tag.Get("form")
}

func parseValidateTag(validate string, constraints map[string]string) {
	for _, part := range strings.Split(validate, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			constraints[part] = flagSet
			continue
		}
		constraints[strings.TrimSpace(key)] = strings.Trim(strings.TrimSpace(value), `"`)
	}
}

// Min returns the min constraint if present and numeric
func (t *TagInfo) Min() (int, bool) { return t.intConstraint("min") }

// Max returns the max constraint if present and numeric
func (t *TagInfo) Max() (int, bool) { return t.intConstraint("max") }

func (t *TagInfo) intConstraint(name string) (int, bool) {
	raw, ok := t.Constraints[name]
	if !ok {
		return 0, false
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return val, true
}

// Enum returns oneof values if present
func (t *TagInfo) Enum() ([]string, bool) {
	values := strings.Fields(t.Constraints["oneof"])
	return values, len(values) > 0
}

// Has reports whether a flag constraint such as "email" or "uuid" is set.
func (t *TagInfo) Has(flag string) bool {
	return t.Constraints[flag] == flagSet
}
