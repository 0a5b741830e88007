package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// RawResponse is the transport-level result handed to a ResponseFactory.
type RawResponse struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

// ResponseFactory builds the response wrapper for a pending request. Custom
// factories let a connector or request substitute an enriched wrapper without
// touching dispatch.
type ResponseFactory func(pr *PendingRequest, raw RawResponse) *Response

func defaultResponseFactory(_ *PendingRequest, raw RawResponse) *Response {
	return &Response{
		StatusCode: raw.StatusCode,
		Status:     raw.Status,
		Headers:    raw.Headers,
		Body:       raw.Body,
		Duration:   raw.Duration,
	}
}

// NewResponse builds the response for pr through its resolved factory and
// attaches the back-reference. A factory that produces nil is reported as
// ErrInvalidResponseFactory.
func NewResponse(pr *PendingRequest, raw RawResponse) (*Response, error) {
	factory := pr.factory
	if factory == nil {
		factory = defaultResponseFactory
	}
	resp := factory(pr, raw)
	if resp == nil {
		return nil, ErrInvalidResponseFactory
	}
	resp.pending = pr
	return resp, nil
}

// Response wraps the outcome of a dispatched pending request.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration

	pending *PendingRequest
}

// PendingRequest returns the pending request that produced this response.
func (r *Response) PendingRequest() *PendingRequest {
	return r.pending
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON parses the body as JSON.
func (r *Response) JSON() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// Get returns the value at a gjson path in the body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Header returns a header value, matching the name case-insensitively.
func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return strings.Contains(r.ContentType(), "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// ValidateSchema validates the JSON body against a JSON Schema document.
func (r *Response) ValidateSchema(schema []byte) error {
	schemaLoader := gojsonschema.NewBytesLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(r.Body)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
}
