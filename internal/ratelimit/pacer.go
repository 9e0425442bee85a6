// Package ratelimit enforces minimum spacing between outbound requests.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Pacer serializes request departure times so that consecutive sends are
// never closer together than the configured interval. One Pacer is shared by
// every REST call site of a client, including batched order calls.
//
// The underlying limiter performs the check-sleep-update of its timing state
// as a single unit, so concurrent callers cannot both observe a near-zero
// wait and burst through. Callers block, strictly FIFO by arrival at the
// limiter; requests are never dropped. The critical section covers only the
// timing decision, never the network send.
type Pacer struct {
	limiter  *rate.Limiter
	interval time.Duration
	metrics  *Metrics
}

// Metrics tracks statistics about pacer usage.
type Metrics struct {
	totalWaits  atomic.Int64
	grantedWait atomic.Int64
	deniedWait  atomic.Int64
}

// New creates a Pacer with the given minimum inter-request interval.
func New(interval time.Duration) *Pacer {
	return &Pacer{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		metrics:  &Metrics{},
	}
}

// Wait blocks until the minimum interval since the previous permit has
// elapsed, or the context is cancelled. Blocking is bounded by the interval.
func (p *Pacer) Wait(ctx context.Context) error {
	p.metrics.totalWaits.Add(1)
	if err := p.limiter.Wait(ctx); err != nil {
		p.metrics.deniedWait.Add(1)
		return err
	}
	p.metrics.grantedWait.Add(1)
	return nil
}

// Interval returns the configured minimum spacing.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// SetInterval updates the minimum spacing for subsequent permits.
func (p *Pacer) SetInterval(interval time.Duration) {
	p.interval = interval
	p.limiter.SetLimit(rate.Every(interval))
}

// Metrics returns a snapshot of the current pacer statistics.
func (p *Pacer) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalWaits:   p.metrics.totalWaits.Load(),
		GrantedWaits: p.metrics.grantedWait.Load(),
		DeniedWaits:  p.metrics.deniedWait.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of pacer statistics.
type MetricsSnapshot struct {
	// TotalWaits is the total number of permits requested.
	TotalWaits int64
	// GrantedWaits is the number of permits granted.
	GrantedWaits int64
	// DeniedWaits is the number of waits abandoned by context cancellation.
	DeniedWaits int64
}
