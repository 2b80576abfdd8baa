package core

import (
	"context"
	"time"
)

// DefaultFPS is used when a source does not report a usable frame rate.
const DefaultFPS = 30

// Clock paces the render loop. Wait returns when the next tick may start.
type Clock interface {
	Wait(ctx context.Context) error
}

// TickerClock is a Clock aligned to a fixed refresh rate. Ticks that fall due
// while a slow tick is still running are dropped, never queued.
type TickerClock struct {
	ticker   *time.Ticker
	interval time.Duration
}

// NewTickerClock creates a clock ticking fps times per second.
func NewTickerClock(fps float64) *TickerClock {
	if fps <= 0 {
		fps = DefaultFPS
	}
	interval := time.Duration(float64(time.Second) / fps)
	return &TickerClock{
		ticker:   time.NewTicker(interval),
		interval: interval,
	}
}

// Interval returns the time between ticks.
func (c *TickerClock) Interval() time.Duration { return c.interval }

// Wait blocks until the next refresh or until ctx is done.
func (c *TickerClock) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ticker.C:
		return nil
	}
}

// Stop releases the ticker.
func (c *TickerClock) Stop() {
	c.ticker.Stop()
}
