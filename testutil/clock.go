package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock starting at start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Timer returns a timer that fires immediately after advancing the clock by
// the requested duration. It satisfies backoff.Timer.
func (c *FakeClock) Timer() *FakeTimer {
	return &FakeTimer{clock: c, ch: make(chan time.Time, 1)}
}

// FakeTimer fires as soon as it is started
type FakeTimer struct {
	clock *FakeClock
	ch    chan time.Time
	mu    sync.Mutex
	waits []time.Duration
}

func (t *FakeTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()
	t.clock.Advance(d)
	t.ch <- t.clock.Now()
}

func (t *FakeTimer) Stop() {}

func (t *FakeTimer) C() <-chan time.Time {
	return t.ch
}

// Waits returns every duration the timer was started with
func (t *FakeTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}
