package viewport

import (
	"context"
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60Hz redraw.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler runs a callback before the next redraw.
type Scheduler interface {
	RequestFrame(fn func(now time.Time))
}

// Frames is a fixed-tick Scheduler. Callbacks requested while a frame is
// running are deferred to the next tick, like requestAnimationFrame.
type Frames struct {
	interval time.Duration

	mu    sync.Mutex
	queue []func(time.Time)
}

// NewFrames creates a Frames ticking every interval (DefaultFrameInterval
// if interval <= 0). Call Run to start ticking.
func NewFrames(interval time.Duration) *Frames {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Frames{interval: interval}
}

// RequestFrame queues fn for the next tick.
func (f *Frames) RequestFrame(fn func(now time.Time)) {
	f.mu.Lock()
	f.queue = append(f.queue, fn)
	f.mu.Unlock()
}

// Pending returns the number of callbacks waiting for the next tick.
func (f *Frames) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Tick runs the callbacks queued so far with the given timestamp.
func (f *Frames) Tick(now time.Time) {
	f.mu.Lock()
	batch := f.queue
	f.queue = nil
	f.mu.Unlock()

	for _, fn := range batch {
		fn(now)
	}
}

// Run ticks until ctx is cancelled. Queued callbacks are dropped on exit.
func (f *Frames) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			f.Tick(now)
		}
	}
}
