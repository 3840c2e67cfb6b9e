// Package ratelimit keeps one token bucket per client key.
//
// Both transports key limiters by client IP. Buckets idle for longer than
// the idle timeout are dropped by Prune.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/rollcall-go/pkg/cmap"
)

// DefaultIdleTimeout is how long an unused bucket is kept.
const DefaultIdleTimeout = 10 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Registry manages rate limiters per key.
type Registry struct {
	limit rate.Limit
	burst int
	idle  time.Duration
	now   func() time.Time

	limiters *cmap.Map[string, *entry]
}

// New creates a registry allowing perSecond events per key with the given
// burst. A non-positive perSecond disables limiting.
func New(perSecond float64, burst int) *Registry {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Registry{
		limit:    limit,
		burst:    burst,
		idle:     DefaultIdleTimeout,
		now:      time.Now,
		limiters: cmap.New[string, *entry](),
	}
}

// Enabled reports whether the registry limits anything.
func (r *Registry) Enabled() bool {
	return r != nil && r.limit != rate.Inf
}

// Allow reports whether one more event for key may happen now.
func (r *Registry) Allow(key string) bool {
	if !r.Enabled() {
		return true
	}
	return r.get(key).Allow()
}

func (r *Registry) get(key string) *rate.Limiter {
	now := r.now()
	e := r.limiters.Compute(key, func(e *entry, ok bool) *entry {
		if !ok {
			e = &entry{limiter: rate.NewLimiter(r.limit, r.burst)}
		}
		e.lastSeen = now
		return e
	})
	return e.limiter
}

// Prune drops buckets idle for longer than the idle timeout and returns
// how many were removed.
func (r *Registry) Prune() int {
	cutoff := r.now().Add(-r.idle)
	return r.limiters.DeleteFunc(func(_ string, e *entry) bool {
		return e.lastSeen.Before(cutoff)
	})
}

// Len returns the number of tracked keys.
func (r *Registry) Len() int {
	return r.limiters.Len()
}

// Run prunes idle buckets every interval until stop is closed.
func (r *Registry) Run(interval time.Duration, stop <-chan struct{}) {
	if !r.Enabled() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.Prune()
		}
	}
}
