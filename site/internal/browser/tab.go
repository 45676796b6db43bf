package browser

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/ebiview/viewport"
)

//go:embed page.js
var pageJS string

const bindingName = "__ebiview_binding"

// Input is a user or layout signal forwarded by the injected script.
type Input struct {
	Op       string  `json:"op"`   // scroll | resize | click
	Kind     string  `json:"kind"` // click only: anchor | panel | theme
	Target   string  `json:"target"`
	Selector string  `json:"selector"` // panel family selector
	Href     string  `json:"href"`
	Controls string  `json:"controls"`
	Expanded bool    `json:"expanded"`
	ScrollY  float64 `json:"scroll_y"`
}

// ScriptConfig tells the injected script which clicks to forward.
type ScriptConfig struct {
	Anchors bool     `json:"anchors"`
	Panels  []string `json:"panels"`
	Theme   string   `json:"theme"`
}

// TabOptions configures OpenTab.
type TabOptions struct {
	Script ScriptConfig
	// EmulateReducedMotion forces prefers-reduced-motion: reduce.
	EmulateReducedMotion bool
}

// Tab is the page ebiview drives. Every DOM primitive is a single Eval
// round trip; a selector that matches nothing is a silent no-op.
type Tab struct {
	Page    *rod.Page
	PageURL string
	logger  *slog.Logger
	router  *rod.HijackRouter
}

// OpenTab creates a stealth tab, navigates to pageURL, registers the
// binding and injects the page script.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string, opts TabOptions) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	t := &Tab{Page: page, PageURL: pageURL, logger: mgr.cfg.Logger}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		t.router = applyResourceBlocking(page, mgr.cfg.ResourceBlocking)
	}

	if opts.EmulateReducedMotion {
		err := proto.EmulationSetEmulatedMedia{
			Features: []*proto.EmulationMediaFeature{{Name: "prefers-reduced-motion", Value: "reduce"}},
		}.Call(page)
		if err != nil {
			t.logger.Warn("browser: emulate reduced motion failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		t.logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	if err := (proto.RuntimeAddBinding{Name: bindingName}).Call(page); err != nil {
		t.logger.Warn("browser: addBinding failed (may already exist)", "error", err)
	}

	scriptCfg, _ := json.Marshal(opts.Script)
	if _, err := page.Context(ctx).Eval(fmt.Sprintf("() => { window.__ebiview_config = %s; }", scriptCfg)); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: set script config: %w", err)
	}
	if _, err := page.Context(ctx).Eval("() => {\n" + pageJS + "\n}"); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: inject page.js: %w", err)
	}

	return t, nil
}

// URL returns the page URL.
func (t *Tab) URL() string { return t.PageURL }

// Listen delivers Inputs to fn until ctx is cancelled. fn runs on Rod's
// event goroutine.
func (t *Tab) Listen(ctx context.Context, fn func(Input)) error {
	wait := t.Page.Context(ctx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != bindingName {
			return
		}
		var in Input
		if err := json.Unmarshal([]byte(e.Payload), &in); err != nil {
			t.logger.Warn("browser: parse binding payload", "error", err)
			return
		}
		fn(in)
	})
	go wait()
	return nil
}

// Resolve tags every element matching selector and returns one stable
// selector per element, in document order.
func (t *Tab) Resolve(ctx context.Context, selector string) ([]string, error) {
	res, err := t.eval(ctx, `(sel) => {
		let list;
		try { list = document.querySelectorAll(sel); } catch (e) { return []; }
		return Array.from(list, (el) => window.__ebiview.ident(el));
	}`, selector)
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &ids); err != nil {
		return nil, fmt.Errorf("browser: decode resolve: %w", err)
	}
	return ids, nil
}

// Exists reports whether selector matches an element. Errors read as absent.
func (t *Tab) Exists(ctx context.Context, selector string) bool {
	res, err := t.eval(ctx, `(sel) => !!window.__ebiview.query(sel)`, selector)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// Attr returns an attribute of the first matching element.
func (t *Tab) Attr(ctx context.Context, selector, name string) (string, bool, error) {
	res, err := t.eval(ctx, `(sel, name) => {
		const el = window.__ebiview.query(sel);
		if (!el || !el.hasAttribute(name)) return null;
		return el.getAttribute(name);
	}`, selector, name)
	if err != nil {
		return "", false, err
	}
	if res.Value.Nil() {
		return "", false, nil
	}
	return res.Value.Str(), true, nil
}

// SetClass adds (on) or removes a class.
func (t *Tab) SetClass(ctx context.Context, selector, class string, on bool) error {
	_, err := t.eval(ctx, `(sel, cls, on) => {
		const el = window.__ebiview.query(sel);
		if (el) el.classList.toggle(cls, on);
	}`, selector, class, on)
	return err
}

// SetAttr sets an attribute.
func (t *Tab) SetAttr(ctx context.Context, selector, name, value string) error {
	_, err := t.eval(ctx, `(sel, name, value) => {
		const el = window.__ebiview.query(sel);
		if (el) el.setAttribute(name, value);
	}`, selector, name, value)
	return err
}

// RemoveAttr removes an attribute.
func (t *Tab) RemoveAttr(ctx context.Context, selector, name string) error {
	_, err := t.eval(ctx, `(sel, name) => {
		const el = window.__ebiview.query(sel);
		if (el) el.removeAttribute(name);
	}`, selector, name)
	return err
}

// SetText replaces the text content.
func (t *Tab) SetText(ctx context.Context, selector, text string) error {
	_, err := t.eval(ctx, `(sel, text) => {
		const el = window.__ebiview.query(sel);
		if (el) el.textContent = text;
	}`, selector, text)
	return err
}

// SetHidden sets the hidden property.
func (t *Tab) SetHidden(ctx context.Context, selector string, hidden bool) error {
	_, err := t.eval(ctx, `(sel, hidden) => {
		const el = window.__ebiview.query(sel);
		if (el) el.hidden = hidden;
	}`, selector, hidden)
	return err
}

// SetRootStyle sets a CSS property on the document element.
func (t *Tab) SetRootStyle(ctx context.Context, property, value string) error {
	_, err := t.eval(ctx, `(prop, value) => { document.documentElement.style.setProperty(prop, value); }`,
		property, value)
	return err
}

// Focus focuses an element without scrolling to it.
func (t *Tab) Focus(ctx context.Context, selector string) error {
	_, err := t.eval(ctx, `(sel) => {
		const el = window.__ebiview.query(sel);
		if (el) el.focus({ preventScroll: true });
	}`, selector)
	return err
}

// ScrollTo scrolls an element to the top of the viewport.
func (t *Tab) ScrollTo(ctx context.Context, selector string, smooth bool) error {
	_, err := t.eval(ctx, `(sel, smooth) => {
		const el = window.__ebiview.query(sel);
		if (el) el.scrollIntoView({ behavior: smooth ? 'smooth' : 'auto', block: 'start' });
	}`, selector, smooth)
	return err
}

// Measure implements viewport.Measurer.
func (t *Tab) Measure(ctx context.Context, ids []string) (viewport.Layout, error) {
	if ids == nil {
		ids = []string{}
	}
	res, err := t.eval(ctx, `(ids) => {
		const out = {
			viewport: { top: 0, left: 0, width: window.innerWidth, height: window.innerHeight },
			scroll_y: window.scrollY,
			rects: {},
		};
		for (const id of ids) {
			const el = window.__ebiview.query(id);
			if (!el) continue;
			const r = el.getBoundingClientRect();
			out.rects[id] = { top: r.top, left: r.left, width: r.width, height: r.height };
		}
		return out;
	}`, ids)
	if err != nil {
		return viewport.Layout{}, err
	}

	var layout viewport.Layout
	if err := json.Unmarshal([]byte(res.Value.JSON("", "")), &layout); err != nil {
		return viewport.Layout{}, fmt.Errorf("browser: decode layout: %w", err)
	}
	return layout, nil
}

// PrefersReducedMotion samples the prefers-reduced-motion media query.
func (t *Tab) PrefersReducedMotion(ctx context.Context) (bool, error) {
	res, err := t.eval(ctx, `() => window.matchMedia('(prefers-reduced-motion: reduce)').matches`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// LoadScript appends a script tag and waits for it to load or fail.
func (t *Tab) LoadScript(ctx context.Context, url string) error {
	_, err := t.eval(ctx, `(url) => new Promise((resolve, reject) => {
		const s = document.createElement('script');
		s.src = url;
		s.async = true;
		s.onload = () => resolve(true);
		s.onerror = () => reject(new Error('failed to load ' + url));
		document.head.appendChild(s);
	})`, url)
	return err
}

// RenderChart constructs a Chart.js chart on the canvas matched by
// selector. cfg is passed through as JSON.
func (t *Tab) RenderChart(ctx context.Context, selector string, cfg any) error {
	res, err := t.eval(ctx, `(sel, cfg) => {
		const el = window.__ebiview.query(sel);
		if (!el || typeof Chart === 'undefined') return false;
		new Chart(el, cfg);
		return true;
	}`, selector, cfg)
	if err != nil {
		return err
	}
	if !res.Value.Bool() {
		return fmt.Errorf("browser: chart %s: canvas or Chart missing", selector)
	}
	return nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.router != nil {
		t.router.Stop()
	}
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}

func (t *Tab) eval(ctx context.Context, js string, args ...any) (*proto.RuntimeRemoteObject, error) {
	res, err := t.Page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("browser: eval: %w", err)
	}
	return res, nil
}
