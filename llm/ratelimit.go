package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/plandraft/plandraft"
)

// RateLimited wraps an LLM client and throttles outgoing provider calls.
// Generation loops fire one provider call per iteration, so a single
// request-level limiter is enough to stay inside provider quotas.
type RateLimited struct {
	inner   plandraft.LLMClient
	limiter *rate.Limiter
}

var _ plandraft.LLMClient = &RateLimited{}

// NewRateLimited creates a throttled client allowing requestsPerMinute calls
// with a burst of one second's worth of quota.
func NewRateLimited(inner plandraft.LLMClient, requestsPerMinute float64) *RateLimited {
	rps := requestsPerMinute / 60.0
	burst := int(rps * 2)
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// NewSession returns a session whose GenerateContent calls share the client's
// limiter.
func (c *RateLimited) NewSession(ctx context.Context, options ...plandraft.SessionOption) (plandraft.Session, error) {
	session, err := c.inner.NewSession(ctx, options...)
	if err != nil {
		return nil, err
	}
	return &rateLimitedSession{inner: session, limiter: c.limiter}, nil
}

type rateLimitedSession struct {
	inner   plandraft.Session
	limiter *rate.Limiter
}

func (s *rateLimitedSession) GenerateContent(ctx context.Context, input ...plandraft.Input) (*plandraft.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.inner.GenerateContent(ctx, input...)
}
