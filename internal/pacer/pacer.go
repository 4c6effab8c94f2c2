// Package pacer provides the shared request-pacing primitive. A single Pacer
// is created per run and handed to every stage, so the minimum inter-request
// delay holds across all outbound traffic regardless of which stage issues it.
package pacer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed minimum delay between successive permits.
// It guarantees monotonic pacing only — no fairness or ordering.
type Pacer struct {
	limiter *rate.Limiter
}

// New creates a Pacer with the given minimum inter-permit delay.
// A non-positive delay produces a no-op Pacer.
func New(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{}
	}
	// Burst of one: every permit waits out the full interval.
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next permit is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
