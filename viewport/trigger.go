// Package viewport fires one-shot side effects the first time a page region
// becomes visible. It knows nothing about browsers: regions are opaque IDs,
// visibility arrives as Entry values (pushed by a Poller or any other
// observer) and frames come from a Scheduler.
//
// Each region moves pending → triggered exactly once. The triggered flag is
// set under the lock before the effect runs, so duplicate or concurrent
// visibility callbacks can never fire an effect twice.
package viewport

import (
	"log/slog"
	"sync"
)

// Options tunes a single registration.
type Options struct {
	// Threshold is the fraction of the region that must be visible. 0 fires
	// on first contact.
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// Margin adjusts the viewport box used for the test.
	Margin Margin `yaml:"margin" json:"margin"`
}

// Entry is one visibility notification for a region. Seq, when set, names
// the single registration the entry was computed for (see Watch). A zero Seq
// addresses every pending registration of ID whose threshold Ratio meets.
type Entry struct {
	ID           string
	Seq          uint64
	Ratio        float64
	Intersecting bool
}

// Effect is the side effect bound to a region.
type Effect interface {
	// Enter runs the first time the region becomes visible.
	Enter()
	// Settle applies the end state at once. Used instead of Enter when
	// reduced motion is requested.
	Settle()
}

// EffectFunc uses the same function for both Enter and Settle.
type EffectFunc func()

func (f EffectFunc) Enter()  { f() }
func (f EffectFunc) Settle() { f() }

// Document answers whether a region ID refers to something on the page.
type Document interface {
	Exists(id string) bool
}

// DocumentFunc adapts a function to Document.
type DocumentFunc func(id string) bool

func (f DocumentFunc) Exists(id string) bool { return f(id) }

// Watch is a pending registration as seen by an observer. One ID may be
// registered several times with different Options; Seq tells them apart.
type Watch struct {
	ID      string
	Seq     uint64
	Options Options
}

type region struct {
	id        string
	seq       uint64
	opts      Options
	effect    Effect
	triggered bool
}

// Trigger holds the watched regions. Safe for concurrent use.
type Trigger struct {
	doc     Document
	reduced bool
	logger  *slog.Logger

	mu      sync.Mutex
	regions map[string][]*region
	bySeq   map[uint64]*region
	order   []*region
	seq     uint64
}

// Option configures a Trigger.
type Option func(*Trigger)

// WithReducedMotion switches the Trigger to reduced-motion mode: every
// registration settles immediately instead of waiting for visibility.
func WithReducedMotion(on bool) Option {
	return func(t *Trigger) { t.reduced = on }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Trigger) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a Trigger resolving region IDs against doc.
func New(doc Document, opts ...Option) *Trigger {
	t := &Trigger{
		doc:     doc,
		logger:  slog.Default(),
		regions: make(map[string][]*region),
		bySeq:   make(map[uint64]*region),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ReducedMotion reports the mode sampled at construction.
func (t *Trigger) ReducedMotion() bool { return t.reduced }

// Register records a region to watch. A region that does not exist in the
// document is skipped silently. In reduced-motion mode the effect settles
// before Register returns and nothing is watched.
func (t *Trigger) Register(id string, o Options, e Effect) {
	if e == nil || t.doc == nil || !t.doc.Exists(id) {
		t.logger.Debug("viewport: skip missing region", "id", id)
		return
	}

	t.mu.Lock()
	t.seq++
	r := &region{id: id, seq: t.seq, opts: o, effect: e}
	t.regions[id] = append(t.regions[id], r)
	t.bySeq[r.seq] = r
	t.order = append(t.order, r)
	if t.reduced {
		r.triggered = true
	}
	t.mu.Unlock()

	if t.reduced {
		e.Settle()
	}
}

// Handle processes visibility notifications. Registrations that are
// intersecting and not yet triggered fire their Enter effect; everything
// else is ignored.
func (t *Trigger) Handle(entries ...Entry) {
	var fire []*region

	t.mu.Lock()
	for _, en := range entries {
		if !en.Intersecting {
			continue
		}
		if en.Seq != 0 {
			r, ok := t.bySeq[en.Seq]
			if ok && r.id == en.ID && !r.triggered {
				r.triggered = true
				fire = append(fire, r)
			}
			continue
		}
		for _, r := range t.regions[en.ID] {
			if r.triggered || en.Ratio < r.opts.Threshold {
				continue
			}
			r.triggered = true
			fire = append(fire, r)
		}
	}
	t.mu.Unlock()

	for _, r := range fire {
		t.logger.Debug("viewport: region triggered", "id", r.id)
		r.effect.Enter()
	}
}

// Watched returns the regions still pending, in registration order.
func (t *Trigger) Watched() []Watch {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Watch, 0, len(t.order))
	for _, r := range t.order {
		if !r.triggered {
			out = append(out, Watch{ID: r.id, Seq: r.seq, Options: r.opts})
		}
	}
	return out
}

// Triggered reports whether every region registered under id has fired.
// Unknown IDs report false.
func (t *Trigger) Triggered(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rs := t.regions[id]
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs {
		if !r.triggered {
			return false
		}
	}
	return true
}
