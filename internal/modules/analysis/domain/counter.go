package domain

import "sync"

// CascadeCounter counts lower-level analyses and fires once every
// threshold increments, resetting to zero when it does.
type CascadeCounter struct {
	mu        sync.Mutex
	count     int
	threshold int
}

func NewCascadeCounter(threshold int) *CascadeCounter {
	if threshold < 1 {
		threshold = 1
	}
	return &CascadeCounter{threshold: threshold}
}

func (c *CascadeCounter) Increment() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	if c.count >= c.threshold {
		c.count = 0
		return true
	}
	return false
}

func (c *CascadeCounter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
