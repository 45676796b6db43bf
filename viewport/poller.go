package viewport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Layout is one measurement of the page: the viewport box, the scroll
// offset and the boxes of the requested regions. Regions missing from Rects
// are no longer on the page.
type Layout struct {
	Viewport Rect            `json:"viewport"`
	ScrollY  float64         `json:"scroll_y"`
	Rects    map[string]Rect `json:"rects"`
}

// Measurer reads region boxes from the page.
type Measurer interface {
	Measure(ctx context.Context, ids []string) (Layout, error)
}

// Poller turns measurements into Entry notifications for a Trigger, one per
// registration, each tested against that registration's own Options. Only
// changes in intersecting state are forwarded; the first measurement of a
// registration always is.
type Poller struct {
	m      Measurer
	t      *Trigger
	logger *slog.Logger

	mu   sync.Mutex
	last map[uint64]bool
}

// NewPoller binds a Measurer to a Trigger.
func NewPoller(m Measurer, t *Trigger, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{m: m, t: t, logger: logger, last: make(map[uint64]bool)}
}

// Check measures every pending region once and pushes the changes. The
// returned Layout is the raw measurement so callers can reuse it.
func (p *Poller) Check(ctx context.Context) (Layout, error) {
	watched := p.t.Watched()
	ids := make([]string, 0, len(watched))
	seen := make(map[string]bool, len(watched))
	for _, w := range watched {
		if !seen[w.ID] {
			seen[w.ID] = true
			ids = append(ids, w.ID)
		}
	}

	layout, err := p.m.Measure(ctx, ids)
	if err != nil {
		return Layout{}, fmt.Errorf("viewport: measure: %w", err)
	}

	var entries []Entry
	p.mu.Lock()
	for _, w := range watched {
		rect, ok := layout.Rects[w.ID]
		if !ok {
			continue
		}
		ratio, hit := Ratio(rect, layout.Viewport, w.Options.Margin)
		in := visible(ratio, hit, w.Options.Threshold)

		prev, known := p.last[w.Seq]
		if known && prev == in {
			continue
		}
		p.last[w.Seq] = in
		entries = append(entries, Entry{ID: w.ID, Seq: w.Seq, Ratio: ratio, Intersecting: in})
	}
	p.mu.Unlock()

	if len(entries) > 0 {
		p.t.Handle(entries...)
	}
	return layout, nil
}

// Run calls Check every interval until ctx is cancelled. Measurement
// errors are logged and the loop keeps going.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if len(p.t.Watched()) == 0 {
				continue
			}
			if _, err := p.Check(ctx); err != nil {
				p.logger.Debug("viewport: poll failed", "error", err)
			}
		}
	}
}
