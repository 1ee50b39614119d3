package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/bridgekit/app"
	"github.com/gaborage/bridgekit/httpclient"
	"github.com/gaborage/bridgekit/logger"
)

// RequestOptions holds options for the request command
type RequestOptions struct {
	Method  string
	Path    map[string]string
	Query   map[string]string
	Headers map[string]string
	Data    string
	ParseAs string
	Throw   bool
	Stats   bool
}

// NewRequestCommand creates the request command
func NewRequestCommand(g *GlobalOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Send one call through the configured REST client",
		Long: `Sends a call through the REST client built from configuration, so base URL,
default headers, auth and interceptors apply as they would in the application.

The URL may be a path template; --path fills its {placeholders}.`,
		Example: `  # Fetch a user
  bridgectl request /users/{id} --path id=42

  # Create one
  bridgectl request /users -X POST -d '{"name":"ada"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				return runRequest(ctx, cmd, a.HTTPClient(), args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringToStringVarP(&opts.Path, "path", "p", nil, "Path parameters (name=value)")
	cmd.Flags().StringToStringVarP(&opts.Query, "query", "q", nil, "Query parameters (name=value)")
	cmd.Flags().StringToStringVarP(&opts.Headers, "header", "H", nil, "Extra headers (name=value)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "Request body; JSON is sent as JSON, anything else as text")
	cmd.Flags().StringVar(&opts.ParseAs, "parse-as", "", "Response parsing: auto, json, text, blob or stream")
	cmd.Flags().BoolVar(&opts.Throw, "throw", false, "Fail without printing the error body")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "Print call count and elapsed time to stderr")

	return cmd
}

func runRequest(ctx context.Context, cmd *cobra.Command, client httpclient.Client, url string, opts *RequestOptions) error {
	ro := httpclient.RequestOptions{
		Method: strings.ToUpper(opts.Method),
		URL:    url,
		Path:   toAnyMap(opts.Path),
		Query:  toAnyMap(opts.Query),
	}
	// The status line needs the response, whatever style the config picks.
	ro.ResponseStyle = httpclient.StyleFields
	if len(opts.Headers) > 0 {
		ro.Headers = httpclient.MergeHeaders(opts.Headers)
	}
	if opts.Data != "" {
		ro.Body = requestBody(opts.Data)
	}
	if opts.ParseAs != "" {
		ro.ParseAs = httpclient.ParseAs(opts.ParseAs)
	}
	if opts.Throw {
		ro.ThrowOnError = httpclient.Bool(true)
	}

	ctx = logger.WithHTTPCounter(ctx)
	res, err := client.Request(ctx, ro)
	if opts.Stats {
		fmt.Fprintf(cmd.ErrOrStderr(), "calls=%d elapsed=%s\n", logger.GetHTTPCounter(ctx), logger.GetHTTPElapsed(ctx))
	}
	if err != nil {
		return err
	}
	if res == nil {
		return errors.New("request failed")
	}

	out := cmd.OutOrStdout()
	if res.Error != nil {
		if err := printValue(out, res.Error); err != nil {
			return err
		}
		return fmt.Errorf("request failed with status %d", res.Response.StatusCode)
	}
	return printValue(out, res.Data)
}

// requestBody keeps valid JSON structured so the JSON serializer re-encodes it.
func requestBody(data string) any {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err == nil {
		return v
	}
	return data
}

func toAnyMap(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func printValue(w io.Writer, v any) error {
	switch data := v.(type) {
	case nil:
		return nil
	case string:
		_, err := fmt.Fprintln(w, data)
		return err
	case []byte:
		_, err := w.Write(data)
		return err
	case io.ReadCloser:
		defer data.Close()
		_, err := io.Copy(w, data)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
}
