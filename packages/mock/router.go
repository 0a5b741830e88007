// Package mock provides the mock-matching engine consulted by the request
// pipeline when a mock client is configured, plus a standalone mock HTTP
// server backed by the same route definitions.
package mock

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

// StubResponse is the canned response attached to a route.
type StubResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

// Route matches dispatched requests by method and path pattern. Patterns may
// contain {name} segments which match a single path segment and are
// substituted into the response body.
type Route struct {
	Method      string
	PathPattern string
	Response    *StubResponse

	// Respond, when set, builds the response per request and wins over
	// Response.
	Respond func(pr *client.PendingRequest) *StubResponse

	pathRegex *regexp.Regexp
}

// NewRoute creates a route for method and pattern.
func NewRoute(method, pattern string) *Route {
	pattern = normalizePath(pattern)
	return &Route{
		Method:      method,
		PathPattern: pattern,
		pathRegex:   compilePathPattern(pattern),
	}
}

// Reply sets a fixed response for the route.
func (r *Route) Reply(status int, body string) *Route {
	r.Response = &StubResponse{StatusCode: status, Body: body}
	return r
}

// ReplyJSON sets a fixed JSON response for the route.
func (r *Route) ReplyJSON(status int, body string) *Route {
	r.Response = &StubResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
	return r
}

// WithHeader adds a response header.
func (r *Route) WithHeader(key, value string) *Route {
	if r.Response == nil {
		r.Response = &StubResponse{StatusCode: 200}
	}
	if r.Response.Headers == nil {
		r.Response.Headers = make(map[string]string)
	}
	r.Response.Headers[key] = value
	return r
}

// RespondWith sets a per-request response builder.
func (r *Route) RespondWith(fn func(pr *client.PendingRequest) *StubResponse) *Route {
	r.Respond = fn
	return r
}

// match reports whether method and path hit this route, and returns the
// captured path parameters.
func (r *Route) match(method, path string) (map[string]string, bool) {
	if !strings.EqualFold(r.Method, method) {
		return nil, false
	}
	path = normalizePath(path)

	if r.pathRegex != nil {
		matches := r.pathRegex.FindStringSubmatch(path)
		if matches != nil {
			params := make(map[string]string)
			for i, name := range r.pathRegex.SubexpNames() {
				if i > 0 && name != "" && i < len(matches) {
					params[name] = matches[i]
				}
			}
			return params, true
		}
		return nil, false
	}

	if r.PathPattern == path {
		return map[string]string{}, true
	}
	return nil, false
}

func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	return path
}

func compilePathPattern(pattern string) *regexp.Regexp {
	// Convert {param} segments to named capture groups.
	regexPattern := regexp.MustCompile(`\{([^}/]+)\}`).ReplaceAllString(pattern, `(?P<$1>[^/]+)`)

	regex, err := regexp.Compile("^" + regexPattern + "$")
	if err != nil {
		// Fallback to literal match
		return regexp.MustCompile("^" + regexp.QuoteMeta(pattern) + "$")
	}
	return regex
}

// substituteParams replaces {param} placeholders in a body with captured
// path parameters.
func substituteParams(body string, params map[string]string) string {
	result := body
	for key, value := range params {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}
