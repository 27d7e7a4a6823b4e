// Package proxy relays event and reward operations to the downstream event
// service without interpreting them.
package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/hongminglow/reward-auth/internal/metrics"
)

// ErrUnavailable is returned when the event service could not be reached or
// did not answer in time.
var ErrUnavailable = errors.New("event service unavailable")

// maxResponseBytes caps a relayed response body.
const maxResponseBytes = 10 << 20

// Response is the downstream reply, relayed as-is.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Request describes one call to the event service.
type Request struct {
	Method string
	// Path is the escaped request path, as returned by url.URL.EscapedPath.
	Path     string
	RawQuery string
	// Body, when non-nil, is sent as JSON.
	Body   []byte
	Header http.Header
	// Label names the call in metrics; defaults to "METHOD path".
	Label string
}

// Forwarder sends requests to the event service.
type Forwarder struct {
	base    *url.URL
	client  *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option customises a Forwarder.
type Option func(*Forwarder)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) { f.client = c }
}

// WithMetrics records forwarded calls in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Forwarder) { f.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(f *Forwarder) { f.logger = l }
}

// NewForwarder targets baseURL, e.g. http://localhost:8002.
func NewForwarder(baseURL string, timeout time.Duration, opts ...Option) (*Forwarder, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse downstream url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("downstream url %q must include scheme and host", baseURL)
	}
	f := &Forwarder{
		base: base,
		client: &http.Client{
			Timeout: timeout,
			// Redirects are relayed to the caller, not followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Forward sends r to the event service. Any HTTP response, whatever its
// status, is returned without error.
func (f *Forwarder) Forward(ctx context.Context, r Request) (*Response, error) {
	method, path := r.Method, r.Path
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return nil, oops.Code("PROXY_BUILD_FAILED").
			With("method", method).
			With("path", path).
			Wrap(err)
	}
	// RawPath keeps escaped separators in path segments, so the event service
	// sees the same segments the gateway authorised.
	target := *f.base
	target.Path = f.base.Path + decoded
	target.RawPath = f.base.EscapedPath() + path
	target.RawQuery = r.RawQuery

	var reader io.Reader
	if r.Body != nil {
		reader = bytes.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, oops.Code("PROXY_BUILD_FAILED").
			With("method", method).
			With("path", path).
			Wrap(err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	route := r.Label
	if route == "" {
		route = method + " " + path
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.Forwarded(route, 0)
		return nil, oops.Code("PROXY_UNAVAILABLE").
			With("method", method).
			With("path", path).
			Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		f.metrics.Forwarded(route, 0)
		return nil, oops.Code("PROXY_READ_FAILED").
			With("method", method).
			With("path", path).
			Wrap(fmt.Errorf("%w: %w", ErrUnavailable, err))
	}
	f.metrics.Forwarded(route, resp.StatusCode)
	f.logger.DebugContext(ctx, "forwarded request", "method", method, "path", path, "status", resp.StatusCode)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: data}, nil
}
