// Package sender provides transports implementing the client.Sender
// interface: a pooled net/http sender plus rate-limiting and latency
// instrumentation wrappers.
package sender

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// HTTP dispatches pending requests over net/http.
type HTTP struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
}

// Option configures the HTTP sender.
type Option func(*HTTP)

// NewHTTP creates an HTTP sender with pooled connections.
func NewHTTP(opts ...Option) *HTTP {
	s := &HTTP{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(s)
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !s.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if s.proxyURL != "" {
		proxyURL, err := neturl.Parse(s.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !s.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= s.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	s.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       s.timeout,
		CheckRedirect: redirectPolicy,
	}

	return s
}

// WithTimeout sets the fallback timeout for requests without their own.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTP) {
		s.timeout = d
	}
}

// WithFollowRedirects enables or disables redirect following.
func WithFollowRedirects(follow bool) Option {
	return func(s *HTTP) {
		s.followRedirect = follow
	}
}

// WithMaxRedirects sets the maximum number of redirects to follow.
func WithMaxRedirects(max int) Option {
	return func(s *HTTP) {
		s.maxRedirects = max
	}
}

// WithValidateSSL enables or disables SSL certificate validation.
func WithValidateSSL(validate bool) Option {
	return func(s *HTTP) {
		s.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests.
func WithProxy(proxyURL string) Option {
	return func(s *HTTP) {
		s.proxyURL = proxyURL
	}
}

// WithDefaultHeader sets a header applied below connector and request
// headers.
func WithDefaultHeader(key, value string) Option {
	return func(s *HTTP) {
		s.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(s *HTTP) {
		for k, v := range headers {
			s.defaultHeaders[k] = v
		}
	}
}

// Send performs the actual I/O for a pending request. Transport and I/O
// failures are returned as *client.TransportError.
func (s *HTTP) Send(ctx context.Context, pr *client.PendingRequest) (*client.Response, error) {
	if d := pr.Timeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	rawURL := pr.URL()
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	bodyBytes, err := pr.BodyBytes()
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	var body io.Reader
	if len(bodyBytes) > 0 {
		body = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, pr.Method(), rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, v := range s.defaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for _, p := range pr.Headers().Pairs() {
		httpReq.Header.Set(p.Key, fmt.Sprint(p.Value))
	}
	if ct := pr.ContentType(); ct != "" {
		httpReq.Header.Set("Content-Type", ct)
	}

	start := time.Now()
	httpResp, err := s.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, &client.TransportError{Request: pr, Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &client.TransportError{Request: pr, Err: err}
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	return client.NewResponse(pr, client.RawResponse{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
		Duration:   duration,
	})
}

// SendAsync dispatches without blocking.
func (s *HTTP) SendAsync(ctx context.Context, pr *client.PendingRequest) *client.Future {
	return client.NewFuture(func() (*client.Response, error) {
		return s.Send(ctx, pr)
	})
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme.
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
