package quiz

import (
	"sync"
	"time"
)

// Countdown is the single clock driving a quiz attempt. Start arms it
// with the attempt duration and spawns a ticker loop; Tick decrements
// once per second and fires the expiry callback exactly once when the
// clock hits zero. Stop is idempotent and cancels the loop, and expiry
// can never fire after Stop — both take the same lock, so whichever wins
// disables the other.
type Countdown struct {
	mu        sync.Mutex
	remaining int
	running   bool
	expired   bool
	stop      chan struct{}

	onTick   func(remaining int)
	onExpire func()
}

func NewCountdown(onTick func(remaining int), onExpire func()) *Countdown {
	return &Countdown{onTick: onTick, onExpire: onExpire}
}

// Start sets remaining to totalSeconds and begins ticking. Starting an
// already-running countdown is a no-op.
func (c *Countdown) Start(totalSeconds int) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.remaining = totalSeconds
	c.running = true
	c.expired = false
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.loop(stop)
}

func (c *Countdown) loop(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !c.Tick() {
				return
			}
		case <-stop:
			return
		}
	}
}

// Tick decrements the clock by one second while running. It returns false
// once the countdown is no longer running, which also ends the ticker
// loop. Exported so tests can drive the clock without sleeping.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return false
	}
	c.remaining--
	if c.remaining < 0 {
		c.remaining = 0
	}

	var expire func()
	if c.remaining == 0 {
		c.running = false
		if !c.expired {
			c.expired = true
			expire = c.onExpire
		}
	}
	tick := c.onTick
	remaining := c.remaining
	c.mu.Unlock()

	if tick != nil {
		tick(remaining)
	}
	if expire != nil {
		expire()
		return false
	}
	return remaining > 0
}

// Stop halts the clock and cancels the ticker loop. Safe to call any
// number of times, including before Start.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.running = false
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.mu.Unlock()
}

// Remaining returns the seconds left on the clock.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the clock is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
