package placeholder

import (
	"context"

	"golang.org/x/time/rate"
)

// Request is what the extractor sends to a text-understanding service.
type Request struct {
	// TextWindow is the leading part of the document's plain text.
	TextWindow string
	// SchemaHint describes the expected JSON answer.
	SchemaHint string
}

// Service is an external text-understanding service. Analyze returns the
// raw model output; the extractor validates it with ParseResponse.
type Service interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, req Request) (string, error)

// Analyze calls f(ctx, req).
func (f ServiceFunc) Analyze(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

type rateLimited struct {
	svc     Service
	limiter *rate.Limiter
}

// RateLimited wraps svc so that calls are admitted at most limit times per
// second with the given burst. Waiting honours the request context, so a
// call that cannot be admitted before its deadline fails like any other
// service error.
func RateLimited(svc Service, limit rate.Limit, burst int) Service {
	return &rateLimited{svc: svc, limiter: rate.NewLimiter(limit, burst)}
}

func (r *rateLimited) Analyze(ctx context.Context, req Request) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.svc.Analyze(ctx, req)
}
