package systems

import (
	"sync"
	"time"
)

// Clock supplies local time in seconds for interpolation and presentation.
// The simulation itself never reads it.
type Clock interface {
	Now() float64
}

// WallClock measures seconds since it was created.
type WallClock struct {
	start time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{start: time.Now()}
}

func (c *WallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// ManualClock only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(seconds float64) {
	c.mu.Lock()
	c.now += seconds
	c.mu.Unlock()
}

func (c *ManualClock) Set(seconds float64) {
	c.mu.Lock()
	c.now = seconds
	c.mu.Unlock()
}
