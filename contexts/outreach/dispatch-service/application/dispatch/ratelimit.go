package dispatch

import (
	"sync"
	"time"
)

type sessionWindow struct {
	count       int
	windowStart time.Time
}

// RateLimiter tracks per-session send counts within a fixed hourly window.
// State is in-process only; each session is driven by a single worker at a
// time, so the lock exists only for the shared map.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*sessionWindow
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{windows: make(map[string]*sessionWindow)}
}

// Check reports whether the session may send now. When the hourly cap is
// reached it returns allowed=false and the time the window clears; the caller
// sleeps until then and proceeds. This is a blocking throttle, not a
// rejection.
func (r *RateLimiter) Check(sessionID string, maxPerHour int, now time.Time) (bool, time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.windows[sessionID]
	if w == nil {
		w = &sessionWindow{windowStart: now}
		r.windows[sessionID] = w
	}
	if now.Sub(w.windowStart) >= time.Hour {
		w.count = 0
		w.windowStart = now
	}
	if w.count < maxPerHour {
		return true, now
	}
	return false, w.windowStart.Add(time.Hour)
}

// Record counts one successful send attempt. Call once per send, not per
// retry.
func (r *RateLimiter) Record(sessionID string, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w := r.windows[sessionID]
	if w == nil {
		w = &sessionWindow{windowStart: now}
		r.windows[sessionID] = w
	}
	if now.Sub(w.windowStart) >= time.Hour {
		w.count = 0
		w.windowStart = now
	}
	w.count++
}
