package client

import (
	"time"

	"github.com/abdul-hamid-achik/conduit/packages/bag"
)

// Authenticator injects credentials into a pending request, typically by
// mutating its header or query bags. The pipeline applies the resolved
// authenticator exactly once per build.
type Authenticator interface {
	Apply(pr *PendingRequest)
}

// Plugin is a capability module attached to a connector or request. Boot is
// invoked once per pipeline run and may mutate the builder's property bags.
type Plugin interface {
	Boot(pr *PendingRequest) error
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(pr *PendingRequest) error

func (f PluginFunc) Boot(pr *PendingRequest) error { return f(pr) }

// BootHook is the primary customization point of a connector or request. It
// receives the in-progress builder and may mutate any bag or register
// additional middleware.
type BootHook func(pr *PendingRequest) error

// RequestMiddleware runs against the pending request before dispatch.
type RequestMiddleware func(pr *PendingRequest) error

// ResponseMiddleware runs against the response after dispatch.
type ResponseMiddleware func(resp *Response) error

// Connector describes a base API: host, shared defaults and authentication.
// A connector is created once per API, is long-lived, and is immutable after
// construction.
type Connector struct {
	baseURL string

	headers *bag.Bag
	query   *bag.Bag
	body    *bag.Bag
	config  *bag.Bag

	auth    Authenticator
	sender  Sender
	mock    MockClient
	plugins []Plugin
	boot    BootHook

	factory    ResponseFactory
	factorySet bool

	requestMW  []RequestMiddleware
	responseMW []ResponseMiddleware
}

// ConnectorOption configures a Connector during construction.
type ConnectorOption func(*Connector)

// NewConnector creates a connector for the API rooted at baseURL.
func NewConnector(baseURL string, opts ...ConnectorOption) *Connector {
	c := &Connector{
		baseURL: baseURL,
		headers: bag.New(),
		query:   bag.New(),
		body:    bag.New(),
		config:  bag.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the connector's base URL.
func (c *Connector) BaseURL() string {
	return c.baseURL
}

// WithDefaultHeader sets a default header sent with every request.
func WithDefaultHeader(key, value string) ConnectorOption {
	return func(c *Connector) {
		c.headers.Set(key, value)
	}
}

// WithDefaultHeaders sets multiple default headers, keys in sorted order.
func WithDefaultHeaders(headers map[string]string) ConnectorOption {
	return func(c *Connector) {
		for _, p := range bag.FromStringMap(headers).Pairs() {
			c.headers.Set(p.Key, p.Value)
		}
	}
}

// WithDefaultQuery sets a default query parameter for every request.
func WithDefaultQuery(key, value string) ConnectorOption {
	return func(c *Connector) {
		c.query.Set(key, value)
	}
}

// WithDefaultBodyField sets a default body field merged into every request
// body.
func WithDefaultBodyField(key string, value any) ConnectorOption {
	return func(c *Connector) {
		c.body.Set(key, value)
	}
}

// WithConfigOption sets a connector-level config option.
func WithConfigOption(key string, value any) ConnectorOption {
	return func(c *Connector) {
		c.config.Set(key, value)
	}
}

// WithTimeout sets the per-request timeout honored by the HTTP sender.
func WithTimeout(d time.Duration) ConnectorOption {
	return func(c *Connector) {
		c.config.Set(ConfigTimeout, d)
	}
}

// WithAuthenticator sets the connector's default authenticator.
func WithAuthenticator(a Authenticator) ConnectorOption {
	return func(c *Connector) {
		c.auth = a
	}
}

// WithSender sets the transport used for real dispatch.
func WithSender(s Sender) ConnectorOption {
	return func(c *Connector) {
		c.sender = s
	}
}

// WithMockClient redirects all dispatch through a mock client.
func WithMockClient(m MockClient) ConnectorOption {
	return func(c *Connector) {
		c.mock = m
	}
}

// WithPlugins attaches capability modules booted on every pipeline run,
// before any request-level plugins.
func WithPlugins(plugins ...Plugin) ConnectorOption {
	return func(c *Connector) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithBootHook sets the connector boot hook, invoked before the request's.
func WithBootHook(h BootHook) ConnectorOption {
	return func(c *Connector) {
		c.boot = h
	}
}

// WithResponseFactory sets the typed factory used to build responses.
func WithResponseFactory(f ResponseFactory) ConnectorOption {
	return func(c *Connector) {
		c.factory = f
		c.factorySet = true
	}
}

// WithRequestMiddleware appends outbound middleware run before dispatch.
func WithRequestMiddleware(mw ...RequestMiddleware) ConnectorOption {
	return func(c *Connector) {
		c.requestMW = append(c.requestMW, mw...)
	}
}

// WithResponseMiddleware appends response interceptors run after dispatch.
func WithResponseMiddleware(mw ...ResponseMiddleware) ConnectorOption {
	return func(c *Connector) {
		c.responseMW = append(c.responseMW, mw...)
	}
}
