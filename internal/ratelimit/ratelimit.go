// Package ratelimit provides a keyed token-bucket limiter. Inbound requests
// use Allow (login attempts per client IP); outbound calls use Wait (reminder
// webhooks per automation endpoint).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter manages per-key rate limiting. Keys idle for longer than
// the idle TTL are evicted by a background sweep.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// Option customizes a limiter.
type Option func(*KeyedRateLimiter)

// WithIdleTTL sets how long an unused key is kept. Zero disables the sweep.
func WithIdleTTL(d time.Duration) Option {
	return func(k *KeyedRateLimiter) { k.idleTTL = d }
}

// WithClock replaces time.Now for last-seen tracking.
func WithClock(now func() time.Time) Option {
	return func(k *KeyedRateLimiter) { k.now = now }
}

// New creates a keyed limiter allowing rps events per second with the given burst.
func New(rps float64, burst int, opts ...Option) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(krl)
	}

	if krl.idleTTL > 0 {
		go krl.sweepLoop()
	}
	return krl
}

// PerMinute converts a per-minute budget into the rps New expects.
func PerMinute(n int) float64 {
	return float64(n) / 60
}

// Allow reports whether an event for key may happen now. It never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Wait blocks until an event for key is allowed or ctx is canceled.
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastSeen = krl.now()
	return e.limiter
}

// Sweep evicts keys idle for longer than the idle TTL and returns how many
// were removed.
func (krl *KeyedRateLimiter) Sweep() int {
	cutoff := krl.now().Add(-krl.idleTTL)

	krl.mu.Lock()
	defer krl.mu.Unlock()

	removed := 0
	for key, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, key)
			removed++
		}
	}
	return removed
}

func (krl *KeyedRateLimiter) sweepLoop() {
	ticker := time.NewTicker(krl.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.Sweep()
		}
	}
}

// Stop shuts down the sweep goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}
