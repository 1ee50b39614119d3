package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

// ParamStyle is an OpenAPI parameter serialization style.
type ParamStyle string

const (
	ParamForm           ParamStyle = "form"
	ParamSpaceDelimited ParamStyle = "spaceDelimited"
	ParamPipeDelimited  ParamStyle = "pipeDelimited"
	ParamDeepObject     ParamStyle = "deepObject"
	ParamLabel          ParamStyle = "label"
	ParamMatrix         ParamStyle = "matrix"
	ParamSimple         ParamStyle = "simple"
)

// SerializerStyle overrides how one value shape is rendered. A nil Explode means true.
type SerializerStyle struct {
	Style   ParamStyle
	Explode *bool
}

// QuerySerializerOptions configures NewQuerySerializer. Arrays default to
// exploded form style, objects to deepObject.
type QuerySerializerOptions struct {
	AllowReserved bool
	Array         SerializerStyle
	Object        SerializerStyle
}

var (
	pathParamRE = regexp.MustCompile(`\{[^{}]+\}`)

	errNestedValue = errors.New("deeply-nested arrays/objects are not supported")
)

type queryEntry struct {
	key   string
	value string
}

// BuildURL renders the absolute URL of a call: base URL, path template with
// substituted placeholders and the serialized query.
func BuildURL(opts RequestOptions) (string, error) {
	pathURL := opts.URL
	if !strings.HasPrefix(pathURL, "/") {
		pathURL = "/" + pathURL
	}

	u, err := serializePath(opts.BaseURL+pathURL, opts.Path)
	if err != nil {
		return "", err
	}

	if len(opts.Query) == 0 {
		return u, nil
	}
	serialize := opts.QuerySerializer
	if serialize == nil {
		serialize = NewQuerySerializer(opts.QuerySerializerOptions)
	}
	search, err := serialize(opts.Query)
	if err != nil {
		return "", NewValidationError(err.Error(), "query")
	}
	search = strings.TrimPrefix(search, "?")
	if search != "" {
		u += "?" + search
	}
	return u, nil
}

// NewQuerySerializer returns the default query serializer. Keys are emitted in
// sorted order and nil values are skipped.
func NewQuerySerializer(opts *QuerySerializerOptions) QuerySerializer {
	var o QuerySerializerOptions
	if opts != nil {
		o = *opts
	}
	arrayStyle := o.Array.Style
	if arrayStyle == "" {
		arrayStyle = ParamForm
	}
	objectStyle := o.Object.Style
	if objectStyle == "" {
		objectStyle = ParamDeepObject
	}

	return func(params map[string]any) (string, error) {
		search := make([]string, 0, len(params))
		for _, name := range sortedKeys(params) {
			value := params[name]
			if isNil(value) {
				continue
			}

			var part string
			if items, ok, err := arrayItems(value); ok {
				if err != nil {
					return "", fmt.Errorf("query parameter %q: %w", name, err)
				}
				part = serializeArrayParam(o.AllowReserved, explode(o.Array.Explode), name, arrayStyle, items)
			} else if entries, ok, err := objectEntries(value); ok {
				if err != nil {
					return "", fmt.Errorf("query parameter %q: %w", name, err)
				}
				part = serializeObjectParam(o.AllowReserved, explode(o.Object.Explode), name, objectStyle, entries)
			} else {
				part = serializePrimitiveParam(o.AllowReserved, name, primitiveString(value))
			}
			if part != "" {
				search = append(search, part)
			}
		}
		return strings.Join(search, "&"), nil
	}
}

// QueryFromStruct flattens a struct with `url` tags into query parameters.
func QueryFromStruct(v any) (map[string]any, error) {
	values, err := query.Values(v)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			out[key] = vals[0]
			continue
		}
		out[key] = append([]string(nil), vals...)
	}
	return out, nil
}

func serializePath(u string, path map[string]any) (string, error) {
	for _, match := range pathParamRE.FindAllString(u, -1) {
		name := match[1 : len(match)-1]
		exploded := false
		style := ParamSimple
		if strings.HasSuffix(name, "*") {
			exploded = true
			name = strings.TrimSuffix(name, "*")
		}
		if strings.HasPrefix(name, ".") {
			name = name[1:]
			style = ParamLabel
		} else if strings.HasPrefix(name, ";") {
			name = name[1:]
			style = ParamMatrix
		}

		value, ok := path[name]
		if !ok || isNil(value) {
			return "", NewValidationError(fmt.Sprintf("missing value for path parameter %q", name), name)
		}

		var replacement string
		if items, ok, err := arrayItems(value); ok {
			if err != nil {
				return "", NewValidationError(err.Error(), name)
			}
			replacement = serializeArrayParam(false, exploded, name, style, items)
		} else if entries, ok, err := objectEntries(value); ok {
			if err != nil {
				return "", NewValidationError(err.Error(), name)
			}
			replacement = serializeObjectParam(false, exploded, name, style, entries)
		} else {
			s := primitiveString(value)
			switch style {
			case ParamMatrix:
				replacement = ";" + serializePrimitiveParam(false, name, s)
			case ParamLabel:
				replacement = encodeURIComponent("." + s)
			default:
				replacement = encodeURIComponent(s)
			}
		}
		u = strings.Replace(u, match, replacement, 1)
	}
	return u, nil
}

func serializePrimitiveParam(allowReserved bool, name, value string) string {
	if allowReserved {
		return name + "=" + value
	}
	return name + "=" + encodeURIComponent(value)
}

func serializeArrayParam(allowReserved, exploded bool, name string, style ParamStyle, items []string) string {
	if !exploded {
		encoded := make([]string, len(items))
		for i, item := range items {
			encoded[i] = maybeEncode(allowReserved, item)
		}
		joined := strings.Join(encoded, arraySeparatorNoExplode(style))
		switch style {
		case ParamLabel:
			return "." + joined
		case ParamMatrix:
			return ";" + name + "=" + joined
		case ParamSimple:
			return joined
		default:
			return name + "=" + joined
		}
	}

	sep := explodeSeparator(style)
	parts := make([]string, len(items))
	for i, item := range items {
		if style == ParamLabel || style == ParamSimple {
			parts[i] = maybeEncode(allowReserved, item)
			continue
		}
		parts[i] = serializePrimitiveParam(allowReserved, name, item)
	}
	joined := strings.Join(parts, sep)
	if style == ParamLabel || style == ParamMatrix {
		return sep + joined
	}
	return joined
}

func serializeObjectParam(allowReserved, exploded bool, name string, style ParamStyle, entries []queryEntry) string {
	if style != ParamDeepObject && !exploded {
		values := make([]string, 0, len(entries)*2)
		for _, e := range entries {
			values = append(values, e.key, maybeEncode(allowReserved, e.value))
		}
		joined := strings.Join(values, ",")
		switch style {
		case ParamForm:
			return name + "=" + joined
		case ParamLabel:
			return "." + joined
		case ParamMatrix:
			return ";" + name + "=" + joined
		default:
			return joined
		}
	}

	sep := explodeSeparator(style)
	parts := make([]string, len(entries))
	for i, e := range entries {
		key := e.key
		if style == ParamDeepObject {
			key = name + "[" + e.key + "]"
		}
		parts[i] = serializePrimitiveParam(allowReserved, key, e.value)
	}
	joined := strings.Join(parts, sep)
	if style == ParamLabel || style == ParamMatrix {
		return sep + joined
	}
	return joined
}

func explodeSeparator(style ParamStyle) string {
	switch style {
	case ParamLabel:
		return "."
	case ParamMatrix:
		return ";"
	case ParamSimple:
		return ","
	default:
		return "&"
	}
}

func arraySeparatorNoExplode(style ParamStyle) string {
	switch style {
	case ParamPipeDelimited:
		return "|"
	case ParamSpaceDelimited:
		return "%20"
	default:
		return ","
	}
}

func explode(v *bool) bool {
	return v == nil || *v
}

func maybeEncode(allowReserved bool, s string) string {
	if allowReserved {
		return s
	}
	return encodeURIComponent(s)
}

// arrayItems reports whether v is a slice or array and renders its items.
// Byte slices are treated as strings.
func arrayItems(v any) ([]string, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false, nil
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false, nil
	}
	items := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i).Interface()
		if isNil(item) {
			continue
		}
		if !isPrimitive(item) {
			return nil, true, errNestedValue
		}
		items = append(items, primitiveString(item))
	}
	return items, true, nil
}

// objectEntries reports whether v is a string-keyed map or a struct and
// renders its entries. Structs are flattened through their `url` tags.
func objectEntries(v any) ([]queryEntry, bool, error) {
	if _, ok := v.(time.Time); ok {
		return nil, false, nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false, nil
		}
		entries := make([]queryEntry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			item := iter.Value().Interface()
			if isNil(item) {
				continue
			}
			if !isPrimitive(item) {
				return nil, true, errNestedValue
			}
			entries = append(entries, queryEntry{key: iter.Key().String(), value: primitiveString(item)})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
		return entries, true, nil
	case reflect.Struct:
		values, err := query.Values(rv.Interface())
		if err != nil {
			return nil, true, err
		}
		return urlValuesEntries(values), true, nil
	}
	return nil, false, nil
}

func urlValuesEntries(values url.Values) []queryEntry {
	keys := sortedKeys(values)
	entries := make([]queryEntry, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			entries = append(entries, queryEntry{key: k, value: v})
		}
	}
	return entries
}

func isPrimitive(v any) bool {
	if _, ok := v.(time.Time); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		_, isBytes := v.([]byte)
		return isBytes
	}
	return true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// primitiveString renders a scalar the way it appears on the wire.
func primitiveString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case time.Time:
		return s.UTC().Format("2006-01-02T15:04:05.000Z")
	case fmt.Stringer:
		return s.String()
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return primitiveString(rv.Elem().Interface())
	}
	return fmt.Sprint(v)
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 and - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
