package client

import (
	"context"
	"fmt"
	"sync"
)

// Sender is the transport abstraction performing actual I/O for a pending
// request.
type Sender interface {
	Send(ctx context.Context, pr *PendingRequest) (*Response, error)
	SendAsync(ctx context.Context, pr *PendingRequest) *Future
}

// MockClient is the mock-matching engine consulted instead of a Sender when
// one is attached. Record must be called for every dispatched pending
// request, matched or not, so tests can assert on dispatch history.
type MockClient interface {
	Match(pr *PendingRequest) (*Response, error)
	Record(pr *PendingRequest)
}

// Send builds a pending request from req and dispatches it.
func (c *Connector) Send(ctx context.Context, req *Request) (*Response, error) {
	pr, err := NewPendingRequest(c, req)
	if err != nil {
		return nil, err
	}
	return pr.Send(ctx)
}

// SendAsync builds and dispatches req without blocking. Construction errors
// are delivered through the returned future.
func (c *Connector) SendAsync(ctx context.Context, req *Request) *Future {
	return NewFuture(func() (*Response, error) {
		return c.Send(ctx, req)
	})
}

// Send dispatches the pending request: outbound middleware first (global,
// then connector's, then the request's), then either the mock client or the
// resolved sender, then response interceptors in the same precedence order.
func (pr *PendingRequest) Send(ctx context.Context) (*Response, error) {
	for _, mw := range globalRequestMiddleware() {
		if err := mw(pr); err != nil {
			return nil, err
		}
	}
	for _, mw := range pr.requestMW {
		if err := mw(pr); err != nil {
			return nil, err
		}
	}

	var resp *Response
	var err error
	if pr.mock != nil {
		pr.mock.Record(pr)
		resp, err = pr.mock.Match(pr)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", pr.method, pr.path, err)
		}
	} else {
		if pr.sender == nil {
			return nil, ErrNoSender
		}
		resp, err = pr.sender.Send(ctx, pr)
		if err != nil {
			return nil, err
		}
	}

	for _, mw := range globalResponseMiddleware() {
		if err := mw(resp); err != nil {
			return nil, err
		}
	}
	for _, mw := range pr.responseMW {
		if err := mw(resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// SendAsync dispatches the pending request without blocking.
func (pr *PendingRequest) SendAsync(ctx context.Context) *Future {
	return NewFuture(func() (*Response, error) {
		return pr.Send(ctx)
	})
}

// Future is the result of an asynchronous dispatch. Wait may be called any
// number of times; every call returns the same outcome.
type Future struct {
	ch   chan futureOutcome
	once sync.Once
	resp *Response
	err  error
}

type futureOutcome struct {
	resp *Response
	err  error
}

// NewFuture runs fn in a goroutine and exposes its outcome through the
// returned future.
func NewFuture(fn func() (*Response, error)) *Future {
	f := &Future{ch: make(chan futureOutcome, 1)}
	go func() {
		resp, err := fn()
		f.ch <- futureOutcome{resp: resp, err: err}
	}()
	return f
}

// Wait blocks until the dispatch finished and returns its outcome.
func (f *Future) Wait() (*Response, error) {
	f.once.Do(func() {
		out := <-f.ch
		f.resp, f.err = out.resp, out.err
	})
	return f.resp, f.err
}
