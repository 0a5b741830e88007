package sender

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/abdul-hamid-achik/conduit/packages/client"
)

// Instrumented wraps a sender and records dispatch latencies into an HDR
// histogram.
type Instrumented struct {
	inner client.Sender

	total  atomic.Int64
	errors atomic.Int64

	mu sync.Mutex
	// Latencies in microseconds, 1us to 60s range, 3 significant digits.
	histogram *hdrhistogram.Histogram
}

// Stats is a point-in-time snapshot of recorded dispatches.
type Stats struct {
	Total  int64
	Errors int64
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// NewInstrumented creates an instrumented wrapper around inner.
func NewInstrumented(inner client.Sender) *Instrumented {
	return &Instrumented{
		inner:     inner,
		histogram: hdrhistogram.New(1, 60_000_000, 3),
	}
}

func (s *Instrumented) Send(ctx context.Context, pr *client.PendingRequest) (*client.Response, error) {
	start := time.Now()
	resp, err := s.inner.Send(ctx, pr)
	elapsed := time.Since(start)

	s.total.Add(1)
	if err != nil {
		s.errors.Add(1)
	}

	s.mu.Lock()
	_ = s.histogram.RecordValue(elapsed.Microseconds())
	s.mu.Unlock()

	return resp, err
}

func (s *Instrumented) SendAsync(ctx context.Context, pr *client.PendingRequest) *client.Future {
	return client.NewFuture(func() (*client.Response, error) {
		return s.Send(ctx, pr)
	})
}

// Snapshot returns aggregate latency statistics for all dispatches so far.
func (s *Instrumented) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Total:  s.total.Load(),
		Errors: s.errors.Load(),
		P50:    time.Duration(s.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:    time.Duration(s.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:    time.Duration(s.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:    time.Duration(s.histogram.Max()) * time.Microsecond,
	}
}

// Reset clears all recorded values.
func (s *Instrumented) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total.Store(0)
	s.errors.Store(0)
	s.histogram.Reset()
}
