// Package ratelimit is the per-client request limiter: one fixed window
// counter per key. A window opens on the first hit and resets once its
// duration has fully elapsed.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	now    func() time.Time
	keys   map[string]*window
}

// New builds a limiter allowing max hits per window for each key. The now
// function is for tests; nil means the wall clock.
func New(max int, windowDur time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{max: max, window: windowDur, now: now, keys: map[string]*window{}}
}

// Allow records one hit for the key and reports whether it fits. When it
// does not, retryIn is the time until the window resets. A non-positive
// max or window disables limiting.
func (l *Limiter) Allow(key string) (ok bool, retryIn time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.window <= 0 || l.max <= 0 {
		return true, 0
	}
	now := l.now()
	w, found := l.keys[key]
	if !found {
		w = &window{start: now}
		l.keys[key] = w
		l.sweep(now)
	}
	if now.Sub(w.start) >= l.window {
		w.start = now
		w.count = 0
	}
	w.count++
	if w.count <= l.max {
		return true, 0
	}
	return false, w.start.Add(l.window).Sub(now)
}

// sweep drops expired windows once the key map has grown large, so churn
// from one-shot clients cannot grow it without bound.
func (l *Limiter) sweep(now time.Time) {
	if len(l.keys) <= 4096 {
		return
	}
	for k, w := range l.keys {
		if now.Sub(w.start) >= l.window {
			delete(l.keys, k)
		}
	}
}
