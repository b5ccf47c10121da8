package ai

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a provider with a request rate limit, protecting a
// shared inference endpoint when many patient sessions run concurrently.
type RateLimited struct {
	provider CompletionProvider
	limiter  *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(provider CompletionProvider, rps float64, burst int) *RateLimited {
	return &RateLimited{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Name() string {
	return r.provider.Name()
}

func (r *RateLimited) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", classifyError(ctx, err)
	}
	return r.provider.Complete(ctx, req)
}
