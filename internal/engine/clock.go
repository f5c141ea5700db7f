package engine

import "sync/atomic"

// Clock hands out strictly increasing pass sequence numbers. Pass history
// is ordered by seq, never by wall-clock time.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock resuming after start, e.g. the last seq found
// in pass history.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
