package httpclient

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
)

const defaultAuthHeader = "Authorization"

// StaticToken returns an AuthToken that always yields token.
func StaticToken(token string) AuthToken {
	return func(context.Context, Auth) (string, error) {
		return token, nil
	}
}

// setAuthParams applies the first security scheme that resolves to a token.
func setAuthParams(ctx context.Context, opts *RequestOptions) error {
	for _, auth := range opts.Security {
		token, err := authToken(ctx, auth, opts.Auth)
		if err != nil {
			return err
		}
		if token == "" {
			continue
		}

		name := auth.Name
		if name == "" {
			name = defaultAuthHeader
		}
		if opts.Headers == nil {
			opts.Headers = http.Header{}
		}
		switch auth.In {
		case "query":
			opts.Query = mergeMaps(opts.Query, map[string]any{name: token})
		case "cookie":
			opts.Headers.Add("Cookie", name+"="+token)
		default:
			opts.Headers.Set(name, token)
		}
		return nil
	}
	return nil
}

func authToken(ctx context.Context, auth Auth, resolve AuthToken) (string, error) {
	if resolve == nil {
		return "", nil
	}
	token, err := resolve(ctx, auth)
	if err != nil || token == "" {
		return "", err
	}
	switch strings.ToLower(auth.Scheme) {
	case "bearer":
		return "Bearer " + token, nil
	case "basic":
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(token)), nil
	}
	return token, nil
}
