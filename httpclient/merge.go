package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// MergeConfigs returns a copy of a with every non-zero field of b applied.
// Headers are merged rather than replaced and the base URL loses a trailing slash.
func MergeConfigs(a, b Config) Config {
	out := a
	if b.BaseURL != "" {
		out.BaseURL = b.BaseURL
	}
	out.BaseURL = strings.TrimSuffix(out.BaseURL, "/")
	out.Headers = MergeHeaders(a.Headers, b.Headers)

	if b.Fetch != nil {
		out.Fetch = b.Fetch
	}
	if b.Timeout > 0 {
		out.Timeout = b.Timeout
	}
	if b.BodySerializer != nil {
		out.BodySerializer = b.BodySerializer
	}
	if b.QuerySerializer != nil {
		out.QuerySerializer = b.QuerySerializer
	}
	if b.QuerySerializerOptions != nil {
		out.QuerySerializerOptions = b.QuerySerializerOptions
	}
	if b.RequestValidator != nil {
		out.RequestValidator = b.RequestValidator
	}
	if b.ResponseValidator != nil {
		out.ResponseValidator = b.ResponseValidator
	}
	if b.ResponseTransformer != nil {
		out.ResponseTransformer = b.ResponseTransformer
	}
	if b.ParseAs != "" {
		out.ParseAs = b.ParseAs
	}
	if b.ResponseStyle != "" {
		out.ResponseStyle = b.ResponseStyle
	}
	if b.ThrowOnError != nil {
		out.ThrowOnError = b.ThrowOnError
	}
	if b.Security != nil {
		out.Security = b.Security
	}
	if b.Auth != nil {
		out.Auth = b.Auth
	}
	if b.LogPayloads {
		out.LogPayloads = true
	}
	if b.MaxPayloadLogBytes > 0 {
		out.MaxPayloadLogBytes = b.MaxPayloadLogBytes
	}
	return out
}

// MergeHeaders folds header sources left to right into a new http.Header.
//
// Accepted sources: http.Header replaces each key it names and a nil value
// deletes it; map[string]string sets; map[string][]string appends;
// map[string]any deletes on nil, appends slices, sets strings and JSON-encodes
// anything else. Other source types are ignored.
func MergeHeaders(sources ...any) http.Header {
	merged := http.Header{}
	for _, source := range sources {
		switch h := source.(type) {
		case nil:
		case http.Header:
			for _, key := range sortedKeys(h) {
				merged.Del(key)
				for _, v := range h[key] {
					merged.Add(key, v)
				}
			}
		case map[string]string:
			for _, key := range sortedKeys(h) {
				merged.Set(key, h[key])
			}
		case map[string][]string:
			for _, key := range sortedKeys(h) {
				for _, v := range h[key] {
					merged.Add(key, v)
				}
			}
		case map[string]any:
			for _, key := range sortedKeys(h) {
				mergeHeaderValue(merged, key, h[key])
			}
		}
	}
	return merged
}

func mergeHeaderValue(h http.Header, key string, value any) {
	switch v := value.(type) {
	case nil:
		h.Del(key)
	case string:
		h.Set(key, v)
	case []string:
		for _, item := range v {
			h.Add(key, item)
		}
	case []any:
		for _, item := range v {
			h.Add(key, headerString(item))
		}
	default:
		h.Set(key, headerString(v))
	}
}

func headerString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return primitiveString(s)
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(encoded)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
