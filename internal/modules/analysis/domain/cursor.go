package domain

import (
	"sync"
	"time"
)

// WindowCursor hands out consecutive, non-overlapping (from, to] windows
// of at least span length.
type WindowCursor struct {
	mu     sync.Mutex
	cursor time.Time
	span   time.Duration
}

func NewWindowCursor(start time.Time, span time.Duration) *WindowCursor {
	return &WindowCursor{cursor: start.UTC(), span: span}
}

// Claim reserves (cursor, at] once at is span or more past the cursor.
func (c *WindowCursor) Claim(at time.Time) (from, to time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	at = at.UTC()
	if at.Sub(c.cursor) < c.span {
		return time.Time{}, time.Time{}, false
	}
	from = c.cursor
	c.cursor = at
	return from, at, true
}

func (c *WindowCursor) Position() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}
