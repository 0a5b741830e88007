package mock

import (
	"net/url"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

// Client is the mock-matching engine attached to a connector or request. It
// records every dispatched pending request, matched or not, for later
// assertions.
//
// The record log is append-only and not safe for concurrent dispatch without
// external synchronization.
type Client struct {
	routes   []*Route
	recorded []*client.PendingRequest
}

// NewClient creates an empty mock client.
func NewClient() *Client {
	return &Client{
		routes: make([]*Route, 0),
	}
}

// On registers a route for method and path pattern and returns it for
// fluent response configuration.
func (m *Client) On(method, pattern string) *Route {
	route := NewRoute(method, pattern)
	m.routes = append(m.routes, route)
	return route
}

// AddRoute appends a prebuilt route.
func (m *Client) AddRoute(route *Route) {
	m.routes = append(m.routes, route)
}

// Record appends pr to the dispatch log.
func (m *Client) Record(pr *client.PendingRequest) {
	m.recorded = append(m.recorded, pr)
}

// Match finds the first registered route hit by pr and builds its response.
// Routes are tried in registration order.
func (m *Client) Match(pr *client.PendingRequest) (*client.Response, error) {
	path := pr.Path()
	if u, err := url.Parse(pr.URL()); err == nil {
		path = u.Path
	}

	for _, route := range m.routes {
		params, ok := route.match(pr.Method(), path)
		if !ok {
			continue
		}

		stub := route.Response
		if route.Respond != nil {
			stub = route.Respond(pr)
		}
		if stub == nil {
			continue
		}

		return client.NewResponse(pr, client.RawResponse{
			StatusCode: stub.StatusCode,
			Headers:    stub.Headers,
			Body:       []byte(substituteParams(stub.Body, params)),
		})
	}

	return nil, client.ErrNoMockMatch
}

// Recorded returns the dispatch log in dispatch order.
func (m *Client) Recorded() []*client.PendingRequest {
	return m.recorded
}

// SentCount returns the number of dispatched pending requests.
func (m *Client) SentCount() int {
	return len(m.recorded)
}

// Last returns the most recently dispatched pending request, or nil.
func (m *Client) Last() *client.PendingRequest {
	if len(m.recorded) == 0 {
		return nil
	}
	return m.recorded[len(m.recorded)-1]
}

// Reset clears routes and the dispatch log.
func (m *Client) Reset() {
	m.routes = m.routes[:0]
	m.recorded = m.recorded[:0]
}
