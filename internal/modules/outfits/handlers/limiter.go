package handlers

import (
	"sync"
	"time"
)

// Limiter is a per-key sliding window request counter
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

// NewLimiter allows limit requests per key within window
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records a request for key and reports whether it is within the limit
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := l.prune(l.hits[key], now)
	if len(recent) >= l.limit {
		l.hits[key] = recent
		return false
	}
	l.hits[key] = append(recent, now)
	return true
}

// Forget drops the history of one key
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	delete(l.hits, key)
	l.mu.Unlock()
}

// Sweep drops expired timestamps and empty keys, returning the keys left
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, stamps := range l.hits {
		recent := l.prune(stamps, now)
		if len(recent) == 0 {
			delete(l.hits, key)
			continue
		}
		l.hits[key] = recent
	}
	return len(l.hits)
}

func (l *Limiter) prune(stamps []time.Time, now time.Time) []time.Time {
	kept := stamps[:0]
	for _, ts := range stamps {
		if now.Sub(ts) <= l.window {
			kept = append(kept, ts)
		}
	}
	return kept
}
