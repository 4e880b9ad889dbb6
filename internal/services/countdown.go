package services

import (
	"sync"
	"time"
)

// Countdown is an advisory timer that counts a code validity window down to zero.
// Every Start and Stop invalidates the previous ticker; ticks from an older
// generation are dropped.
type Countdown struct {
	tick time.Duration

	mu         sync.Mutex
	remaining  int
	expired    bool
	generation uint64
	stop       chan struct{}
}

// NewCountdown creates a stopped countdown ticking every tick
func NewCountdown(tick time.Duration) *Countdown {
	if tick <= 0 {
		tick = time.Second
	}
	return &Countdown{tick: tick}
}

// Start (re)starts the countdown for window
func (c *Countdown) Start(window time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.remaining = int((window + c.tick - 1) / c.tick)
	c.expired = false
	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		return
	}

	stop := make(chan struct{})
	c.stop = stop
	go c.run(c.generation, stop)
}

// Stop cancels the countdown and clears its state
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelLocked()
	c.remaining = 0
	c.expired = false
}

// Remaining returns the remaining window in whole seconds
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	left := time.Duration(c.remaining) * c.tick
	return int((left + time.Second - 1) / time.Second)
}

// Expired reports whether the countdown reached zero
func (c *Countdown) Expired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expired
}

func (c *Countdown) cancelLocked() {
	c.generation++
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) run(generation uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.generation != generation {
				c.mu.Unlock()
				return
			}
			c.remaining--
			if c.remaining <= 0 {
				c.remaining = 0
				c.expired = true
				c.stop = nil
				c.mu.Unlock()
				return
			}
			c.mu.Unlock()
		}
	}
}
