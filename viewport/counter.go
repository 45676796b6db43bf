package viewport

import (
	"math"
	"time"
)

// CounterDuration is how long a counter takes to reach its target.
const CounterDuration = 800 * time.Millisecond

// EaseOut is the quadratic ease-out curve 1-(1-t)^2, t clamped to [0,1].
func EaseOut(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return 1 - (1-t)*(1-t)
}

// CounterValue is the integer displayed after elapsed. It is 0 at the
// start, exactly target once elapsed reaches duration, and never decreases
// in between.
func CounterValue(target int, elapsed, duration time.Duration) int {
	if elapsed >= duration || duration <= 0 {
		return target
	}
	if elapsed <= 0 {
		return 0
	}
	t := float64(elapsed) / float64(duration)
	return int(math.Floor(float64(target) * EaseOut(t)))
}

// Counter animates a displayed integer from 0 to Target. It implements
// Effect: Enter animates over Duration, Settle jumps to Target.
type Counter struct {
	Target   int
	Duration time.Duration // CounterDuration when zero
	Frames   Scheduler
	// Set displays a value. Called from frame callbacks.
	Set func(v int)
	// Done is optional and runs once the final value is shown.
	Done func()
}

// Enter shows 0 and starts the per-frame animation. The first frame
// timestamp is the animation origin.
func (c *Counter) Enter() {
	c.Set(0)

	dur := c.Duration
	if dur <= 0 {
		dur = CounterDuration
	}

	var start time.Time
	var step func(now time.Time)
	step = func(now time.Time) {
		if start.IsZero() {
			start = now
		}
		elapsed := now.Sub(start)
		if elapsed >= dur {
			c.Set(c.Target)
			c.finish()
			return
		}
		c.Set(CounterValue(c.Target, elapsed, dur))
		c.Frames.RequestFrame(step)
	}
	c.Frames.RequestFrame(step)
}

// Settle shows Target with no intermediate frames.
func (c *Counter) Settle() {
	c.Set(c.Target)
	c.finish()
}

func (c *Counter) finish() {
	if c.Done != nil {
		c.Done()
	}
}
