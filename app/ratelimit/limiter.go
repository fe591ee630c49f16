package ratelimit

import (
	"sync"
	"time"
)

const cleanupInterval = time.Minute

type entry struct {
	count   int
	resetAt time.Time
}

// Result reports one rate limit decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter is a fixed-window request counter keyed by caller. It is an
// explicit instance with its own storage rather than process-global state,
// constructed once per server.
type Limiter struct {
	window      time.Duration
	maxRequests int

	mu          sync.Mutex
	entries     map[string]*entry
	lastCleanup time.Time
}

func NewLimiter(window time.Duration, maxRequests int) *Limiter {
	return &Limiter{
		window:      window,
		maxRequests: maxRequests,
		entries:     make(map[string]*entry),
		lastCleanup: time.Now(),
	}
}

// Check counts one request for the key and reports whether it is allowed
// within the current window.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.cleanupExpired(now)

	e, ok := l.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return Result{Allowed: true, Remaining: l.maxRequests - 1, ResetAt: e.resetAt}
	}

	if e.count >= l.maxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}
	}

	e.count++
	return Result{Allowed: true, Remaining: l.maxRequests - e.count, ResetAt: e.resetAt}
}

func (l *Limiter) cleanupExpired(now time.Time) {
	if now.Sub(l.lastCleanup) < cleanupInterval {
		return
	}

	l.lastCleanup = now
	for key, e := range l.entries {
		if !e.resetAt.After(now) {
			delete(l.entries, key)
		}
	}
}
