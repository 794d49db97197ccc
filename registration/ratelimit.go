package registration

import (
	"sync"
	"time"
)

// RateLimiter bounds entry-point frequency per user with a sliding window:
// at most max calls within the configured window.
type RateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[int64][]time.Time
	now    func() time.Time
}

// NewRateLimiter builds a limiter allowing max calls per window.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 5
	}
	return &RateLimiter{
		window: window,
		max:    max,
		hits:   make(map[int64][]time.Time),
		now:    time.Now,
	}
}

// Allow records a call for the user and reports whether it is within the
// limit. Rejected calls are not recorded, so abuse does not extend the window.
func (l *RateLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.hits[userID][:0]
	for _, ts := range l.hits[userID] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.hits[userID] = kept
		return false
	}

	l.hits[userID] = append(kept, now)
	return true
}
