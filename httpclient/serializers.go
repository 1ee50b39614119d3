package httpclient

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/textproto"
	"net/url"
)

const contentTypeFormURLEncoded = "application/x-www-form-urlencoded"

// FormFile is a file part of a multipart body.
type FormFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// JSONBodySerializer encodes the body as JSON. The Content-Type header is left
// to the configured defaults.
func JSONBodySerializer(body any) ([]byte, string, error) {
	if raw, ok := body.(json.RawMessage); ok {
		return raw, "", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}

// FormDataBodySerializer encodes a map or struct body as multipart/form-data.
// Slices produce one part per item; nil values are skipped; FormFile and
// []byte values become file parts; other non-string values are JSON encoded.
func FormDataBodySerializer(body any) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, entry := range objectArgEntries(body) {
		for _, item := range entryItems(entry.value) {
			if err := writeFormPart(w, entry.key, item); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// URLSearchParamsBodySerializer encodes a map or struct body as
// application/x-www-form-urlencoded.
func URLSearchParamsBodySerializer(body any) ([]byte, string, error) {
	values := url.Values{}
	for _, entry := range objectArgEntries(body) {
		for _, item := range entryItems(entry.value) {
			s, err := formString(item)
			if err != nil {
				return nil, "", err
			}
			values.Add(entry.key, s)
		}
	}
	return []byte(values.Encode()), contentTypeFormURLEncoded, nil
}

// entryItems spreads slice values; byte slices stay whole.
func entryItems(value any) []any {
	if isNil(value) {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return []any{v}
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case []FormFile:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	}
	return []any{value}
}

func writeFormPart(w *multipart.Writer, key string, item any) error {
	switch v := item.(type) {
	case FormFile:
		return writeFile(w, key, v)
	case *FormFile:
		return writeFile(w, key, *v)
	case []byte:
		return writeFile(w, key, FormFile{Filename: key, Data: v})
	}
	s, err := formString(item)
	if err != nil {
		return err
	}
	return w.WriteField(key, s)
}

func writeFile(w *multipart.Writer, key string, f FormFile) error {
	filename := f.Filename
	if filename == "" {
		filename = key
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipartDisposition(key, filename))
	h.Set(headerContentType, contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(f.Data)
	return err
}

func multipartDisposition(field, filename string) string {
	return `form-data; name="` + escapeQuotes(field) + `"; filename="` + escapeQuotes(filename) + `"`
}

func escapeQuotes(s string) string {
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func formString(item any) (string, error) {
	if s, ok := item.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(item)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
