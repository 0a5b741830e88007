package sender

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

// RateLimited wraps a sender behind a token-bucket rate limiter. Dispatch
// blocks until the limiter grants a slot or the context is cancelled.
type RateLimited struct {
	inner   client.Sender
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(inner client.Sender, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *RateLimited) Send(ctx context.Context, pr *client.PendingRequest) (*client.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &client.TransportError{Request: pr, Err: err}
	}
	return s.inner.Send(ctx, pr)
}

func (s *RateLimited) SendAsync(ctx context.Context, pr *client.PendingRequest) *client.Future {
	return client.NewFuture(func() (*client.Response, error) {
		return s.Send(ctx, pr)
	})
}
