package stakemgr

import (
	"sync"
	"time"
)

// Clock is the time source of the ledger, in unix seconds.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// ManualClock only moves when told to.  It never goes backwards.
type ManualClock struct {
	mtx sync.Mutex
	now int64
}

func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

func (c *ManualClock) Now() int64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.now
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d int64) int64 {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if d > 0 {
		c.now += d
	}
	return c.now
}

// Set moves the clock to t if t is not in the past.
func (c *ManualClock) Set(t int64) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if t > c.now {
		c.now = t
	}
}
