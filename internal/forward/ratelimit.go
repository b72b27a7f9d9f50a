package forward

import (
	"context"
	"sync"
	"time"
)

// RateLimiter caps outgoing forwards with a sliding one-minute window.
type RateLimiter struct {
	mu           sync.Mutex
	maxPerMinute int
	window       time.Duration
	sent         []time.Time
	now          func() time.Time
}

// NewRateLimiter creates a limiter allowing maxPerMinute forwards per sliding
// minute. Values below 1 fall back to 1.
func NewRateLimiter(maxPerMinute int) *RateLimiter {
	if maxPerMinute < 1 {
		maxPerMinute = 1
	}
	return &RateLimiter{
		maxPerMinute: maxPerMinute,
		window:       time.Minute,
		now:          time.Now,
	}
}

// TryAcquire records one forward if the window has room, returning whether it
// was granted.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.prune(now)

	if len(r.sent) >= r.maxPerMinute {
		return false
	}
	r.sent = append(r.sent, now)
	return true
}

// Wait blocks until a slot is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		if r.TryAcquire() {
			return nil
		}

		r.mu.Lock()
		var wait time.Duration
		if len(r.sent) > 0 {
			wait = r.sent[0].Add(r.window).Sub(r.now())
		}
		r.mu.Unlock()

		if wait <= 0 {
			wait = 50 * time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops entries older than the window. Caller must hold the lock.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	kept := r.sent[:0]
	for _, t := range r.sent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.sent = kept
}
