package lamport

import "sync"

// Clock is a process-wide Lamport logical clock.
//
// The counter starts at zero and never decreases. It has its own mutex,
// independent of any store-level locking, so concurrent connections can
// merge without losing updates.
type Clock struct {
	mu      sync.Mutex
	counter uint64
}

// NewClock creates a Clock starting at zero.
func NewClock() *Clock {
	return &Clock{}
}

// Merge applies the Lamport receive rule against a remote clock value and
// returns the new local value: local = max(local, remote) + 1.
func (c *Clock) Merge(remote uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.counter {
		c.counter = remote
	}
	c.counter++
	return c.counter
}

// Tick advances the clock by one for a local event (e.g. about to send a
// message) and returns the new value.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counter++
	return c.counter
}

// Current returns the clock value without advancing it.
func (c *Clock) Current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counter
}
