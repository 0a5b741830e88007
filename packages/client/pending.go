package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/conduit/packages/bag"
)

// PendingRequest is the fully merged, authenticated, booted snapshot of a
// (Connector, Request) pair. It is built exactly once per logical send and is
// owned by the send operation that created it. Boot hooks and plugins may
// mutate its bags during construction; after NewPendingRequest returns the
// snapshot is treated as immutable.
type PendingRequest struct {
	connector *Connector
	request   *Request

	method string
	path   string

	headers *bag.Bag
	query   *bag.Bag
	body    *bag.Bag
	config  *bag.Bag

	bodyMode    BodyMode
	rawBody     []byte
	contentType string

	auth    Authenticator
	sender  Sender
	mock    MockClient
	factory ResponseFactory

	requestMW  []RequestMiddleware
	responseMW []ResponseMiddleware
}

// NewPendingRequest transforms a connector/request pair into a send-ready
// snapshot. The build steps run in a fixed order: mock resolution, property
// bag merges, authenticator application, boot hooks (connector then request),
// plugins (connector's then request's). Construction never mutates the
// source connector or request.
func NewPendingRequest(conn *Connector, req *Request) (*PendingRequest, error) {
	if conn == nil {
		return nil, ErrInvalidConnector
	}
	if req == nil {
		return nil, errors.New("request is nil")
	}

	pr := &PendingRequest{
		connector:   conn,
		request:     req,
		method:      req.method,
		path:        req.path,
		bodyMode:    req.bodyMode,
		rawBody:     req.rawBody,
		contentType: req.contentType,
	}

	// Step 1: mock client, request-level override first.
	pr.mock = req.mock
	if pr.mock == nil {
		pr.mock = conn.mock
	}

	factory, err := resolveFactory(conn, req)
	if err != nil {
		return nil, err
	}
	pr.factory = factory

	// Step 2: bag merges, connector first so request entries win.
	pr.headers = bag.Merge(conn.headers, req.headers)
	pr.query = bag.Merge(conn.query, req.query)
	pr.body = bag.Merge(conn.body, req.body)
	pr.config = bag.Merge(conn.config, req.config)
	if conn.body.Len() > 0 && pr.bodyMode == BodyNone {
		pr.bodyMode = BodyJSON
	}

	pr.requestMW = append(append([]RequestMiddleware{}, conn.requestMW...), req.requestMW...)
	pr.responseMW = append(append([]ResponseMiddleware{}, conn.responseMW...), req.responseMW...)

	pr.sender = conn.sender
	if pr.sender == nil {
		pr.sender = DefaultSender()
	}

	// Step 3: authenticator, request-level wins.
	pr.auth = req.auth
	if pr.auth == nil {
		pr.auth = conn.auth
	}
	if pr.auth != nil {
		pr.auth.Apply(pr)
	}

	// Step 4: boot hooks.
	if conn.boot != nil {
		if err := conn.boot(pr); err != nil {
			return nil, fmt.Errorf("connector boot: %w", err)
		}
	}
	if req.boot != nil {
		if err := req.boot(pr); err != nil {
			return nil, fmt.Errorf("request boot: %w", err)
		}
	}

	// Step 5: plugins, connector's before the request's.
	for _, p := range conn.plugins {
		if err := p.Boot(pr); err != nil {
			return nil, fmt.Errorf("plugin boot: %w", err)
		}
	}
	for _, p := range req.plugins {
		if err := p.Boot(pr); err != nil {
			return nil, fmt.Errorf("plugin boot: %w", err)
		}
	}

	return pr, nil
}

func resolveFactory(conn *Connector, req *Request) (ResponseFactory, error) {
	if req.factorySet {
		if req.factory == nil {
			return nil, ErrInvalidResponseFactory
		}
		return req.factory, nil
	}
	if conn.factorySet {
		if conn.factory == nil {
			return nil, ErrInvalidResponseFactory
		}
		return conn.factory, nil
	}
	return defaultResponseFactory, nil
}

// Connector returns the connector the snapshot was built from.
func (pr *PendingRequest) Connector() *Connector { return pr.connector }

// Request returns the request the snapshot was built from.
func (pr *PendingRequest) Request() *Request { return pr.request }

// Method returns the HTTP method.
func (pr *PendingRequest) Method() string { return pr.method }

// Path returns the endpoint path before base URL resolution.
func (pr *PendingRequest) Path() string { return pr.path }

// Headers returns the merged header bag.
func (pr *PendingRequest) Headers() *bag.Bag { return pr.headers }

// Query returns the merged query parameter bag.
func (pr *PendingRequest) Query() *bag.Bag { return pr.query }

// Body returns the merged body field bag.
func (pr *PendingRequest) Body() *bag.Bag { return pr.body }

// Config returns the merged config option bag.
func (pr *PendingRequest) Config() *bag.Bag { return pr.config }

// Authenticator returns the resolved authenticator, or nil.
func (pr *PendingRequest) Authenticator() Authenticator { return pr.auth }

// Sender returns the resolved transport.
func (pr *PendingRequest) Sender() Sender { return pr.sender }

// MockClient returns the resolved mock client, or nil.
func (pr *PendingRequest) MockClient() MockClient { return pr.mock }

// UseRequestMiddleware lets boot hooks and plugins register additional
// outbound middleware during construction.
func (pr *PendingRequest) UseRequestMiddleware(mw ...RequestMiddleware) {
	pr.requestMW = append(pr.requestMW, mw...)
}

// UseResponseMiddleware lets boot hooks and plugins register additional
// response interceptors during construction.
func (pr *PendingRequest) UseResponseMiddleware(mw ...ResponseMiddleware) {
	pr.responseMW = append(pr.responseMW, mw...)
}

// Timeout returns the dispatch timeout from the merged config bag, or zero.
func (pr *PendingRequest) Timeout() time.Duration {
	if v, ok := pr.config.Get(ConfigTimeout); ok {
		if d, ok := v.(time.Duration); ok {
			return d
		}
	}
	return 0
}

// URL returns the absolute request URL: base URL joined with the path, plus
// the merged query parameters encoded in insertion order.
func (pr *PendingRequest) URL() string {
	full := JoinURL(pr.connector.baseURL, pr.path)
	q := encodeBag(pr.query)
	if q == "" {
		return full
	}
	if strings.Contains(full, "?") {
		return full + "&" + q
	}
	return full + "?" + q
}

// ContentType returns the effective Content-Type header: an explicit header
// wins, otherwise the body mode decides.
func (pr *PendingRequest) ContentType() string {
	if ct := pr.headers.GetString("Content-Type"); ct != "" {
		return ct
	}
	switch pr.bodyMode {
	case BodyJSON:
		return "application/json"
	case BodyForm:
		return "application/x-www-form-urlencoded"
	case BodyRaw:
		return pr.contentType
	}
	return ""
}

// BodyBytes renders the merged body according to the body mode.
func (pr *PendingRequest) BodyBytes() ([]byte, error) {
	switch pr.bodyMode {
	case BodyNone:
		return nil, nil
	case BodyJSON:
		if pr.body.Len() == 0 {
			return nil, nil
		}
		return json.Marshal(pr.body.All())
	case BodyForm:
		return []byte(encodeBag(pr.body)), nil
	case BodyRaw:
		return pr.rawBody, nil
	}
	return nil, fmt.Errorf("unknown body mode %d", pr.bodyMode)
}

// JoinURL resolves path against base. An absolute path (with scheme) is used
// as-is, matching per-request overrides of the connector host.
func JoinURL(base, path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// encodeBag url-encodes a bag's entries in insertion order. url.Values is not
// used because its Encode sorts keys.
func encodeBag(b *bag.Bag) string {
	pairs := b.Pairs()
	if len(pairs) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(fmt.Sprint(p.Value)))
	}
	return sb.String()
}
