package client

import (
	"time"

	"github.com/abdul-hamid-achik/conduit/packages/bag"
)

// Config option keys recognized by the pipeline and the bundled senders.
const (
	// ConfigTimeout holds a time.Duration applied to a single dispatch.
	ConfigTimeout = "timeout"
)

// BodyMode selects how the merged body bag is rendered on the wire.
type BodyMode int

const (
	// BodyNone sends no body.
	BodyNone BodyMode = iota
	// BodyJSON renders the body bag as a JSON object.
	BodyJSON
	// BodyForm renders the body bag as application/x-www-form-urlencoded.
	BodyForm
	// BodyRaw sends raw bytes untouched.
	BodyRaw
)

// Request describes a single endpoint: an HTTP method, a path relative to
// the connector's base URL, and property overrides. A request is stateless
// beyond its properties; sending it twice produces two independent pending
// requests.
type Request struct {
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
	mock    MockClient
	plugins []Plugin
	boot    BootHook

	factory    ResponseFactory
	factorySet bool

	requestMW  []RequestMiddleware
	responseMW []ResponseMiddleware
}

// NewRequest creates a request for method and path. Configuration is applied
// with the fluent setters below.
func NewRequest(method, path string) *Request {
	return &Request{
		method:  method,
		path:    path,
		headers: bag.New(),
		query:   bag.New(),
		body:    bag.New(),
		config:  bag.New(),
	}
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the endpoint path.
func (r *Request) Path() string { return r.path }

// SetHeader sets a request header, overriding any connector default.
func (r *Request) SetHeader(key, value string) *Request {
	r.headers.Set(key, value)
	return r
}

// SetHeaders sets multiple headers, keys in sorted order.
func (r *Request) SetHeaders(headers map[string]string) *Request {
	for _, p := range bag.FromStringMap(headers).Pairs() {
		r.headers.Set(p.Key, p.Value)
	}
	return r
}

// SetQueryParam sets a query parameter, overriding any connector default.
func (r *Request) SetQueryParam(key, value string) *Request {
	r.query.Set(key, value)
	return r
}

// SetBodyField sets a single body field. The body defaults to JSON encoding
// unless a mode was already chosen.
func (r *Request) SetBodyField(key string, value any) *Request {
	if r.bodyMode == BodyNone {
		r.bodyMode = BodyJSON
	}
	r.body.Set(key, value)
	return r
}

// SetJSONBody replaces the body fields and renders them as a JSON object.
func (r *Request) SetJSONBody(fields map[string]any) *Request {
	r.bodyMode = BodyJSON
	r.body = bag.FromMap(fields)
	return r
}

// SetFormBody replaces the body fields and renders them form-urlencoded.
func (r *Request) SetFormBody(fields map[string]string) *Request {
	r.bodyMode = BodyForm
	r.body = bag.New()
	for _, p := range bag.FromStringMap(fields).Pairs() {
		r.body.Set(p.Key, p.Value)
	}
	return r
}

// SetFormField sets a single form-encoded body field, preserving insertion
// order.
func (r *Request) SetFormField(key, value string) *Request {
	r.bodyMode = BodyForm
	r.body.Set(key, value)
	return r
}

// SetRawBody sends body untouched with the given content type.
func (r *Request) SetRawBody(body []byte, contentType string) *Request {
	r.bodyMode = BodyRaw
	r.rawBody = body
	r.contentType = contentType
	return r
}

// SetConfig sets a request-level config option.
func (r *Request) SetConfig(key string, value any) *Request {
	r.config.Set(key, value)
	return r
}

// SetTimeout sets the dispatch timeout for this request.
func (r *Request) SetTimeout(d time.Duration) *Request {
	r.config.Set(ConfigTimeout, d)
	return r
}

// SetAuthenticator sets a per-request authenticator, taking precedence over
// the connector's.
func (r *Request) SetAuthenticator(a Authenticator) *Request {
	r.auth = a
	return r
}

// SetMockClient sets a per-request mock client, taking precedence over the
// connector's.
func (r *Request) SetMockClient(m MockClient) *Request {
	r.mock = m
	return r
}

// UsePlugin attaches capability modules booted after the connector's.
func (r *Request) UsePlugin(plugins ...Plugin) *Request {
	r.plugins = append(r.plugins, plugins...)
	return r
}

// OnBoot sets the request boot hook, invoked after the connector's.
func (r *Request) OnBoot(h BootHook) *Request {
	r.boot = h
	return r
}

// SetResponseFactory sets a per-request response factory.
func (r *Request) SetResponseFactory(f ResponseFactory) *Request {
	r.factory = f
	r.factorySet = true
	return r
}

// UseRequestMiddleware appends outbound middleware run after the connector's.
func (r *Request) UseRequestMiddleware(mw ...RequestMiddleware) *Request {
	r.requestMW = append(r.requestMW, mw...)
	return r
}

// UseResponseMiddleware appends response interceptors run after the
// connector's.
func (r *Request) UseResponseMiddleware(mw ...ResponseMiddleware) *Request {
	r.responseMW = append(r.responseMW, mw...)
	return r
}
