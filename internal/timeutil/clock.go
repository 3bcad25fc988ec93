// Package timeutil provides a testable abstraction over the time operations the
// frame loop depends on.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides an abstraction over time operations for testability.
type Clock interface {
	// Now returns the current time. Durations are taken from its monotonic
	// reading.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration

	// Sleep pauses for the specified duration.
	Sleep(d time.Duration)

	// MonoNanos returns the system monotonic clock in nanoseconds. This is the
	// time base shared with other processes on the bus.
	MonoNanos() uint64
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Sleep pauses the current goroutine for at least the duration d.
func (RealClock) Sleep(d time.Duration) {
	time.Sleep(d)
}

// MonoNanos returns CLOCK_MONOTONIC in nanoseconds.
func (RealClock) MonoNanos() uint64 {
	return monoNanos()
}

// MockClock is a manually controlled clock for testing.
//
// When a step is configured every call to Now advances the clock by that step
// after reading it, so a measured interval between two Now calls is exactly one
// step. This gives deterministic execution durations without real sleeps.
type MockClock struct {
	mu     sync.Mutex
	base   time.Time
	now    time.Time
	step   time.Duration
	sleeps []time.Duration
}

// NewMockClock creates a new MockClock set to the given time.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{base: t, now: t}
}

// SetStep configures the auto-advance applied after every Now call.
func (c *MockClock) SetStep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.step = d
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Advance moves the mock clock forward by the given duration.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the duration since t without applying the step.
func (c *MockClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}

// Sleep records the sleep duration and advances the clock by it, returning
// immediately.
func (c *MockClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

// Sleeps returns all recorded sleep durations.
func (c *MockClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]time.Duration, len(c.sleeps))
	copy(result, c.sleeps)
	return result
}

// MonoNanos returns the nanoseconds elapsed since the clock was created.
func (c *MockClock) MonoNanos() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint64(c.now.Sub(c.base))
}
