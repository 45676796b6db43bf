package site

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hazyhaar/ebiview/site/event"
	"github.com/hazyhaar/ebiview/site/internal/config"
)

// togglePanel flips an expand/collapse button and its aria-controls panel.
// Buttons whose panel does not exist are ignored.
func (s *Session) togglePanel(ctx context.Context, in Input) {
	var pc config.PanelConfig
	found := false
	for _, c := range s.cfg.Panels {
		if c.Selector == in.Selector {
			pc, found = c, true
			break
		}
	}
	if !found || in.Controls == "" || in.Target == "" {
		return
	}

	panel := fmt.Sprintf("[id=%q]", in.Controls)
	if !s.page.Exists(ctx, panel) {
		return
	}

	expanded := !in.Expanded
	if err := s.page.SetAttr(ctx, in.Target, "aria-expanded", strconv.FormatBool(expanded)); err != nil {
		s.logger.Debug("site: panel aria-expanded", "error", err)
	}
	if err := s.page.SetHidden(ctx, panel, !expanded); err != nil {
		s.logger.Debug("site: panel hidden", "error", err)
	}
	label := pc.CollapsedText
	if expanded {
		label = pc.ExpandedText
	}
	if err := s.page.SetText(ctx, in.Target, label); err != nil {
		s.logger.Debug("site: panel label", "error", err)
	}

	s.emit(event.KindPanelToggled, panel, strconv.FormatBool(expanded))
}

// followAnchor focuses an in-page anchor target and scrolls it into view,
// smoothly unless reduced motion is on.
func (s *Session) followAnchor(ctx context.Context, in Input) {
	if !s.cfg.Anchors || in.Href == "" || in.Href == "#" {
		return
	}
	target := in.Href
	if !s.page.Exists(ctx, target) {
		return
	}

	if err := s.page.SetAttr(ctx, target, "tabindex", "-1"); err != nil {
		s.logger.Debug("site: anchor tabindex", "error", err)
	}
	if err := s.page.Focus(ctx, target); err != nil {
		s.logger.Debug("site: anchor focus", "error", err)
	}
	if err := s.page.ScrollTo(ctx, target, !s.trigger.ReducedMotion()); err != nil {
		s.logger.Debug("site: anchor scroll", "error", err)
		return
	}
	s.emit(event.KindAnchorFocused, target, "")
}
