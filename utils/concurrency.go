package utils

import (
	"sync"
	"time"
)

// Cooldown rejects repeated actions by the same key within a fixed duration.
type Cooldown struct {
	mu       sync.Mutex
	duration time.Duration
	last     map[string]time.Time
	now      func() time.Time
}

func NewCooldown(duration time.Duration) *Cooldown {
	return &Cooldown{
		duration: duration,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Allow reports whether key may act now. When allowed, the cooldown restarts.
func (c *Cooldown) Allow(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[key]; ok && now.Sub(last) < c.duration {
		return false
	}
	c.last[key] = now
	return true
}

// Cleanup forgets keys whose cooldown has passed.
func (c *Cooldown) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, last := range c.last {
		if now.Sub(last) >= c.duration {
			delete(c.last, key)
			removed++
		}
	}
	return removed
}
