package fetch

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between requests to one source.
//
// Each instance is owned by exactly one source and is never shared across
// sources. It is a simple gate, not a scheduler: concurrent callers sharing an
// instance serialize on the internal mutex and only the last Wait's timestamp
// is authoritative.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond requests.
// Non-positive rates disable limiting.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	var interval time.Duration
	if requestsPerSecond > 0 {
		interval = time.Duration(float64(time.Second) / requestsPerSecond)
	}
	return &RateLimiter{minInterval: interval}
}

// Wait blocks until at least 1/rps seconds have elapsed since the previous
// Wait returned. The sleep is interruptible by ctx.
func (l *RateLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.minInterval > 0 && !l.last.IsZero() {
		if remaining := l.minInterval - time.Since(l.last); remaining > 0 {
			timer := time.NewTimer(remaining)
			defer timer.Stop()

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.last = time.Now()
	return nil
}

// Reset clears the internal clock so the next Wait returns immediately.
func (l *RateLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = time.Time{}
}
