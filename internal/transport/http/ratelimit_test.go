package http

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiterWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newRateLimiter(2, time.Minute)
	l.now = clock.now

	if !l.allow() || !l.allow() {
		t.Fatal("first two events should pass")
	}
	if l.allow() {
		t.Fatal("third event in the window should be refused")
	}

	clock.advance(59 * time.Second)
	if l.allow() {
		t.Fatal("window must not reset early")
	}

	clock.advance(time.Second)
	if !l.allow() {
		t.Fatal("event after the window expired should pass")
	}
	if !l.allow() || l.allow() {
		t.Fatal("fresh window should admit exactly the limit")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(0, time.Minute)
	if l != nil {
		t.Fatalf("expected nil limiter, got %+v", l)
	}
	for i := 0; i < 1000; i++ {
		if !l.allow() {
			t.Fatalf("disabled limiter refused event %d", i)
		}
	}
}
