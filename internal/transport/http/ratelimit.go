package http

import "time"

const rateWindow = time.Minute

// rateLimiter caps the inbound events one connection may send per window.
// It is owned by the connection's reader and is not safe for concurrent use.
// A nil limiter admits everything.
type rateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	opened time.Time
	used   int
}

func newRateLimiter(perWindow int, window time.Duration) *rateLimiter {
	if perWindow <= 0 {
		return nil
	}
	return &rateLimiter{limit: perWindow, window: window, now: time.Now}
}

// allow reports whether one more event fits into the current window. The
// window opens on the first event after the previous one expired.
func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}
	t := r.now()
	if r.opened.IsZero() || t.Sub(r.opened) >= r.window {
		r.opened = t
		r.used = 0
	}
	if r.used >= r.limit {
		return false
	}
	r.used++
	return true
}
