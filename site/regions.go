package site

import (
	"context"
	"strconv"
	"strings"

	"github.com/hazyhaar/ebiview/site/event"
	"github.com/hazyhaar/ebiview/viewport"
)

// registerReveal watches every element of the reveal selectors. Each gets
// the hidden "reveal" class up front unless reduced motion is on, and the
// visible class the first time it scrolls into view.
func (s *Session) registerReveal(ctx context.Context) {
	rc := s.cfg.Reveal
	for _, sel := range rc.Selectors {
		ids, err := s.page.Resolve(ctx, sel)
		if err != nil {
			s.logger.Debug("site: resolve reveal selector", "selector", sel, "error", err)
			continue
		}
		for _, id := range ids {
			if !s.trigger.ReducedMotion() {
				if err := s.page.SetClass(ctx, id, rc.Class, true); err != nil {
					s.logger.Debug("site: add reveal class", "id", id, "error", err)
				}
			}
			s.trigger.Register(id, *rc.Options, viewport.EffectFunc(func() {
				if err := s.page.SetClass(s.ctx, id, rc.Visible, true); err != nil {
					s.logger.Debug("site: reveal", "id", id, "error", err)
					return
				}
				s.emit(event.KindRevealed, id, sel)
			}))
		}
	}
}

// registerCounters binds a Counter to every element carrying an integer
// target attribute. Elements with a malformed target are left alone.
func (s *Session) registerCounters(ctx context.Context) {
	cc := s.cfg.Counters
	ids, err := s.page.Resolve(ctx, cc.Selector)
	if err != nil {
		s.logger.Debug("site: resolve counters", "selector", cc.Selector, "error", err)
		return
	}

	for _, id := range ids {
		raw, ok, err := s.page.Attr(ctx, id, cc.Attribute)
		if err != nil || !ok {
			continue
		}
		target, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			s.logger.Debug("site: counter target is not an integer", "id", id, "value", raw)
			continue
		}

		s.trigger.Register(id, *cc.Options, &viewport.Counter{
			Target:   target,
			Duration: cc.Duration,
			Frames:   s.frames,
			Set: func(v int) {
				if err := s.page.SetText(s.ctx, id, strconv.Itoa(v)); err != nil {
					s.logger.Debug("site: counter frame", "id", id, "error", err)
				}
			},
			Done: func() { s.emit(event.KindCounterDone, id, strconv.Itoa(target)) },
		})
	}
}
