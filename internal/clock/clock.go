// Package clock drives the 60Hz delay and sound timers independently of the
// instruction rate.
package clock

import (
	"context"
	"log/slog"
	"time"
)

// Rate is the timer frequency.
const Rate = 60

// Period is the interval between two ticks.
const Period = time.Second / Rate

// Ticker is the part of the VM the clock is allowed to touch.
type Ticker interface {
	// Tick60Hz counts the timers down and reports whether the tone should sound.
	Tick60Hz() bool
}

// ToneFunc receives the tone signal after every tick.
type ToneFunc func(on bool)

// Clock calls Tick60Hz on its target at a fixed rate.
type Clock struct {
	target Ticker
	tone   ToneFunc
	period time.Duration
}

// New creates a clock for the given target. tone may be nil.
func New(target Ticker, tone ToneFunc) *Clock {
	if tone == nil {
		tone = func(bool) { /* nop */ }
	}

	return &Clock{
		target: target,
		tone:   tone,
		period: Period,
	}
}

// Run ticks until ctx is cancelled. The tone is switched off on return.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	slog.Debug("clock: start", "period", c.period)

	sounding := false
	for {
		select {
		case <-ctx.Done():
			if sounding {
				c.tone(false)
			}
			slog.Debug("clock: stop")
			return nil

		case <-ticker.C:
			on := c.target.Tick60Hz()
			if on != sounding {
				slog.Debug("clock: tone", "on", on)
			}
			sounding = on
			c.tone(on)
		}
	}
}
