// Package transport performs the AJAX round trips behind routes.
//
// A Client sends GET and DELETE payloads as query parameters and other
// methods as an encoded body (JSON by default, msgpack optionally).
// Responses are decoded by Content-Type. Non-2xx responses and network
// failures are returned as *StatusError, carrying the decoded error body.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds each request unless overridden.
const DefaultTimeout = 30 * time.Second

// Doer is the AJAX collaborator used by routes.
type Doer interface {
	Do(ctx context.Context, method, url string, payload map[string]any) (*Reply, error)
}

// Reply is a successful response.
type Reply struct {
	Status int
	Header http.Header
	// Data is the decoded body, or the body as a string when the content
	// type is not a known codec.
	Data any
}

// StatusError describes a failed request.
type StatusError struct {
	// Status is the HTTP status, or 0 when no response arrived.
	Status     int
	StatusText string
	Message    string
	// Data is the decoded error body, if any.
	Data any
	err  error
}

func (e *StatusError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("transport: %s: %s", e.StatusText, e.Message)
	}
	return fmt.Sprintf("transport: %d %s: %s", e.Status, e.StatusText, e.Message)
}

func (e *StatusError) Unwrap() error { return e.err }

// AsStatusError extracts a *StatusError from err.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	ok := errors.As(err, &se)
	return se, ok
}

// Client is an HTTP Doer.
type Client struct {
	http    *http.Client
	baseURL string
	codec   Codec
	header  http.Header
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL resolves relative request URLs against base.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCodec sets the request body codec.
func WithCodec(codec Codec) Option {
	return func(c *Client) { c.codec = codec }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Add(key, value) }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		codec:  JSON,
		header: http.Header{"X-Requested-With": {"XMLHttpRequest"}},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues the request and decodes the response.
func (c *Client) Do(ctx context.Context, method, target string, payload map[string]any) (*Reply, error) {
	req, err := c.newRequest(ctx, method, target, payload)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("ajax failed", zap.String("method", method), zap.String("url", req.URL.String()), zap.Error(err))
		return nil, &StatusError{StatusText: "error", Message: err.Error(), err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &StatusError{Status: resp.StatusCode, StatusText: "error", Message: err.Error(), err: err}
	}
	data := decodeBody(resp.Header.Get("Content-Type"), body)

	c.logger.Debug("ajax",
		zap.String("method", method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Message:    errorMessage(data, resp.StatusCode),
			Data:       data,
		}
	}
	return &Reply{Status: resp.StatusCode, Header: resp.Header, Data: data}, nil
}

func (c *Client) newRequest(ctx context.Context, method, target string, payload map[string]any) (*http.Request, error) {
	method = strings.ToUpper(method)
	u, err := url.Parse(c.resolve(target))
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		if len(payload) > 0 {
			q := u.Query()
			encodeQuery(q, "", payload)
			u.RawQuery = q.Encode()
		}
	} else {
		b, err := c.codec.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("transport: encode %s body: %w", c.codec.Name(), err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", c.codec.ContentType())
	}
	req.Header.Set("Accept", "application/json, application/msgpack;q=0.9, text/html;q=0.8, */*;q=0.5")
	return req, nil
}

func (c *Client) resolve(target string) string {
	if c.baseURL == "" || strings.Contains(target, "://") {
		return target
	}
	return c.baseURL + "/" + strings.TrimLeft(target, "/")
}

// encodeQuery flattens nested payloads the way jQuery.param does:
// {"a": {"b": 1}, "c": [1, 2]} becomes a[b]=1&c[]=1&c[]=2.
func encodeQuery(q url.Values, prefix string, v any) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			name := k
			if prefix != "" {
				name = prefix + "[" + k + "]"
			}
			encodeQuery(q, name, x[k])
		}
	case []any:
		for _, item := range x {
			encodeQuery(q, prefix+"[]", item)
		}
	case []string:
		for _, item := range x {
			q.Add(prefix+"[]", item)
		}
	case nil:
		q.Add(prefix, "")
	default:
		q.Add(prefix, fmt.Sprint(x))
	}
}

func decodeBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if codec := codecForContentType(contentType); codec != nil {
		var v any
		if err := codec.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}

func errorMessage(data any, status int) string {
	if m, ok := data.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return http.StatusText(status)
}
