package services

import (
	"sync"
	"time"
)

// Cooldowns maps (namespace, key) to an expiry instant. Entries expire
// lazily when checked; there is no background sweep.
//
// Expiry instants come from time.Now and keep Go's monotonic reading, so
// wall-clock jumps do not shorten or extend a running cooldown.
type Cooldowns struct {
	mu      sync.Mutex
	entries map[string]map[string]time.Time
	now     func() time.Time
}

// NewCooldowns creates an empty cooldown table
func NewCooldowns() *Cooldowns {
	return &Cooldowns{
		entries: make(map[string]map[string]time.Time),
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests
func (c *Cooldowns) WithClock(now func() time.Time) *Cooldowns {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Set starts or restarts a cooldown
func (c *Cooldowns) Set(namespace, key string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ns, ok := c.entries[namespace]
	if !ok {
		ns = make(map[string]time.Time)
		c.entries[namespace] = ns
	}
	ns[key] = c.now().Add(duration)
}

// OnCooldown reports whether the entry exists and has not yet expired
func (c *Cooldowns) OnCooldown(namespace, key string) bool {
	return c.Remaining(namespace, key) > 0
}

// Remaining returns the time left on a cooldown, zero when none is active
func (c *Cooldowns) Remaining(namespace, key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, ok := c.entries[namespace][key]
	if !ok {
		return 0
	}
	left := expiry.Sub(c.now())
	if left <= 0 {
		delete(c.entries[namespace], key)
		return 0
	}
	return left
}

// Clear removes a cooldown
func (c *Cooldowns) Clear(namespace, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries[namespace], key)
}

// GetAll returns the remaining time of every live cooldown in a namespace
func (c *Cooldowns) GetAll(namespace string) map[string]time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	live := make(map[string]time.Duration)
	for key, expiry := range c.entries[namespace] {
		if left := expiry.Sub(now); left > 0 {
			live[key] = left
		} else {
			delete(c.entries[namespace], key)
		}
	}
	return live
}

// TryAcquire starts the cooldown and returns true unless one is already running
func (c *Cooldowns) TryAcquire(namespace, key string, duration time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if expiry, ok := c.entries[namespace][key]; ok && expiry.After(now) {
		return false
	}
	ns, ok := c.entries[namespace]
	if !ok {
		ns = make(map[string]time.Time)
		c.entries[namespace] = ns
	}
	ns[key] = now.Add(duration)
	return true
}
