package httpclient

import (
	"bytes"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
)

const maxFormMemory = 32 << 20

// ParseAsFromContentType picks a decode mode from a response Content-Type.
// A missing header means stream; an unrecognized type returns "" and the
// caller falls back to JSON.
func ParseAsFromContentType(contentType string) ParseAs {
	if contentType == "" {
		return ParseStream
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if mediaType == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(mediaType, "application/json"), strings.HasSuffix(mediaType, "+json"):
		return ParseJSON
	case mediaType == "multipart/form-data":
		return ParseFormData
	case strings.HasPrefix(mediaType, "application/"),
		strings.HasPrefix(mediaType, "audio/"),
		strings.HasPrefix(mediaType, "image/"),
		strings.HasPrefix(mediaType, "video/"):
		return ParseBlob
	case strings.HasPrefix(mediaType, "text/"):
		return ParseText
	}
	return ""
}

// decodeBody turns a fully read body into data for every mode except stream.
// An empty JSON body decodes to an empty map, as HEAD responses have no body.
func decodeBody(mode ParseAs, body []byte, contentType string) (any, error) {
	switch mode {
	case ParseText:
		return string(body), nil
	case ParseBlob, ParseArrayBuffer:
		return body, nil
	case ParseFormData:
		return decodeForm(body, contentType)
	default:
		if len(bytes.TrimSpace(body)) == 0 {
			return map[string]any{}, nil
		}
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return nil, err
		}
		return data, nil
	}
}

// decodeForm parses multipart bodies into a *multipart.Form and urlencoded
// bodies into url.Values.
func decodeForm(body []byte, contentType string) (any, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, err
	}
	if mediaType == contentTypeFormURLEncoded {
		return url.ParseQuery(string(body))
	}
	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	return reader.ReadForm(maxFormMemory)
}

// parseErrorBody reads a non-2xx body as JSON when it is valid JSON, else as text.
func parseErrorBody(body []byte) any {
	var value any
	if err := json.Unmarshal(body, &value); err == nil && value != nil {
		return value
	}
	return string(body)
}

// isFalsy reports whether an error value carries nothing worth returning.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	}
	return isNil(v)
}
