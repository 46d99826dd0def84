// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits login attempts per client key (usually the client IP)
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewThrottle allows perMinute attempts per key with the given burst
func NewThrottle(perMinute, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    burst,
	}
}

// Allow reports whether key may attempt a login now
func (t *Throttle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[key]
	if !ok {
		l = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = l
	}
	return l.Allow()
}

// Reset forgets key, e.g. after a successful login
func (t *Throttle) Reset(key string) {
	t.mu.Lock()
	delete(t.limiters, key)
	t.mu.Unlock()
}

// Sweep drops limiters that have refilled to a full burst. Such a key
// behaves exactly like one never seen, so nothing is forgotten early.
// Returns the number of keys still tracked.
func (t *Throttle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	for key, l := range t.limiters {
		if l.TokensAt(now) >= float64(t.burst) {
			delete(t.limiters, key)
		}
	}
	return len(t.limiters)
}

// Len returns the number of keys tracked
func (t *Throttle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}
