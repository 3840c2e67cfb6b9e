package service

import (
	"sync"
	"time"
)

// Clock supplies server time in nanoseconds since the Unix epoch.
type Clock interface {
	Now() uint64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() uint64

// Now implements Clock.
func (f ClockFunc) Now() uint64 { return f() }

// MonotonicClock reads wall time but never goes backwards: if the wall clock
// steps back, Now keeps returning the last value until it catches up.
type MonotonicClock struct {
	mu   sync.Mutex
	last uint64
	wall func() time.Time
}

// NewMonotonicClock returns a clock backed by time.Now.
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{wall: time.Now}
}

// Now implements Clock.
func (c *MonotonicClock) Now() uint64 {
	t := c.wall().UnixNano()

	c.mu.Lock()
	defer c.mu.Unlock()

	var now uint64
	if t > 0 {
		now = uint64(t)
	}
	if now < c.last {
		now = c.last
	}
	c.last = now
	return now
}
