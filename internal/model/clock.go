package model

import (
	"sync"
	"time"
)

// Clock is one player's chess clock.
type Clock struct {
	mu          sync.Mutex
	timeLeft    time.Duration
	lastStarted time.Time
	isRunning   bool
	now         func() time.Time
}

func NewClock(initialTime time.Duration) *Clock {
	return &Clock{
		timeLeft: initialTime,
		now:      time.Now,
	}
}

func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning {
		c.lastStarted = c.now()
		c.isRunning = true
	}
}

func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		c.timeLeft -= c.now().Sub(c.lastStarted)
		c.isRunning = false
	}
}

func (c *Clock) GetTimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isRunning {
		return c.timeLeft - c.now().Sub(c.lastStarted)
	}
	return c.timeLeft
}

// Expired reports whether the clock has run out.
func (c *Clock) Expired() bool {
	return c.GetTimeLeft() <= 0
}

// tenths is the remaining time in tenths of a second, as sent to clients.
func (c *Clock) tenths() int {
	left := c.GetTimeLeft()
	if left < 0 {
		left = 0
	}
	return int(left.Milliseconds() / 100)
}
