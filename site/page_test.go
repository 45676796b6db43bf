package site

import (
	"context"
	"sync"
	"time"

	"github.com/hazyhaar/ebiview/site/event"
	"github.com/hazyhaar/ebiview/site/internal/config"
	"github.com/hazyhaar/ebiview/viewport"
)

// fakePage is an in-memory Page. Elements exist once added; every mutation
// is recorded so tests can assert on the resulting DOM state.
type fakePage struct {
	mu sync.Mutex

	elements map[string]bool
	resolve  map[string][]string
	attrs    map[string]map[string]string
	classes  map[string]map[string]bool
	text     map[string]string
	hidden   map[string]bool
	rects    map[string]viewport.Rect
	style    map[string]string
	view     viewport.Rect
	scrollY  float64

	reduced  bool
	loadErr  error
	loads    int
	rendered map[string]any
	focused  []string
	scrolls  []scrollCall

	listen func(Input)
}

type scrollCall struct {
	selector string
	smooth   bool
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: map[string]bool{"html": true},
		resolve:  make(map[string][]string),
		attrs:    make(map[string]map[string]string),
		classes:  make(map[string]map[string]bool),
		text:     make(map[string]string),
		hidden:   make(map[string]bool),
		rects:    make(map[string]viewport.Rect),
		style:    make(map[string]string),
		view:     viewport.Rect{Width: 1440, Height: 900},
		rendered: make(map[string]any),
	}
}

// add creates an element at rect.
func (p *fakePage) add(id string, r viewport.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.elements[id] = true
	p.rects[id] = r
}

// move changes an element's box, as scrolling would.
func (p *fakePage) move(id string, r viewport.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rects[id] = r
}

func (p *fakePage) setAttrLocked(sel, name, value string) {
	if p.attrs[sel] == nil {
		p.attrs[sel] = make(map[string]string)
	}
	p.attrs[sel][name] = value
}

func (p *fakePage) hasClass(sel, class string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.classes[sel][class]
}

func (p *fakePage) attr(sel, name string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.attrs[sel][name]
	return v, ok
}

func (p *fakePage) textOf(sel string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text[sel]
}

func (p *fakePage) loadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loads
}

func (p *fakePage) chart(sel string) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.rendered[sel]
	return c, ok
}

func (p *fakePage) URL() string { return "https://ebi.test/" }

func (p *fakePage) Listen(_ context.Context, fn func(Input)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listen = fn
	return nil
}

func (p *fakePage) Resolve(_ context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resolve[selector], nil
}

func (p *fakePage) Exists(_ context.Context, selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector]
}

func (p *fakePage) Attr(_ context.Context, selector, name string) (string, bool, error) {
	v, ok := p.attr(selector, name)
	return v, ok, nil
}

func (p *fakePage) SetClass(_ context.Context, selector, class string, on bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.classes[selector] == nil {
		p.classes[selector] = make(map[string]bool)
	}
	p.classes[selector][class] = on
	return nil
}

func (p *fakePage) SetAttr(_ context.Context, selector, name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setAttrLocked(selector, name, value)
	return nil
}

func (p *fakePage) RemoveAttr(_ context.Context, selector, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attrs[selector], name)
	return nil
}

func (p *fakePage) SetText(_ context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.text[selector] = text
	return nil
}

func (p *fakePage) SetHidden(_ context.Context, selector string, hidden bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hidden[selector] = hidden
	return nil
}

func (p *fakePage) SetRootStyle(_ context.Context, property, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.style[property] = value
	return nil
}

func (p *fakePage) Focus(_ context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focused = append(p.focused, selector)
	return nil
}

func (p *fakePage) ScrollTo(_ context.Context, selector string, smooth bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls = append(p.scrolls, scrollCall{selector, smooth})
	return nil
}

func (p *fakePage) Measure(_ context.Context, ids []string) (viewport.Layout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := viewport.Layout{Viewport: p.view, ScrollY: p.scrollY, Rects: make(map[string]viewport.Rect)}
	for _, id := range ids {
		if r, ok := p.rects[id]; ok && p.elements[id] {
			l.Rects[id] = r
		}
	}
	return l, nil
}

func (p *fakePage) PrefersReducedMotion(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reduced, nil
}

func (p *fakePage) LoadScript(context.Context, string) error {
	// Give concurrent callers a chance to pile up on the in-flight load.
	time.Sleep(10 * time.Millisecond)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	return p.loadErr
}

func (p *fakePage) RenderChart(_ context.Context, selector string, cfg any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rendered[selector] = cfg
	return nil
}

// recorder collects emitted events.
type recorder struct {
	mu     sync.Mutex
	events []event.Event
}

func (r *recorder) sink() Sink {
	return NewCallbackSink(func(_ context.Context, e event.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
}

func (r *recorder) count(kind event.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) last(kind event.Kind) (event.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return event.Event{}, false
}

// stockPage returns the default page configuration with motion forced off
// so tests do not depend on the fake's media query.
func stockPage() config.PageConfig {
	pc := config.Default("https://ebi.test/").Page
	pc.ReducedMotion = "off"
	return pc
}

var (
	inView    = viewport.Rect{Top: 100, Width: 800, Height: 300}
	belowFold = viewport.Rect{Top: 2000, Width: 800, Height: 300}
)
