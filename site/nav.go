package site

import (
	"context"

	"github.com/hazyhaar/ebiview/site/event"
	"github.com/hazyhaar/ebiview/viewport"
)

type navLink struct {
	id   string
	href string
}

type navState struct {
	links    []navLink
	sections []string // "#id" selectors
	hasFixed bool

	applied  bool
	active   string // written by Run under Session.mu
	scrolled bool
}

// ActiveSection returns the last of sections whose box spans the line
// (in viewport pixels), or "" if none does. sections are bare element IDs.
func ActiveSection(layout viewport.Layout, sections []string, line float64) string {
	current := ""
	for _, id := range sections {
		r, ok := layout.Rects["#"+id]
		if !ok {
			continue
		}
		if r.Top <= line && r.Bottom() >= line {
			current = id
		}
	}
	return current
}

// initNav caches the nav links and section selectors; the document
// structure is static for the life of the page.
func (s *Session) initNav(ctx context.Context) {
	nc := s.cfg.Nav

	ids, err := s.page.Resolve(ctx, nc.Links)
	if err != nil {
		s.logger.Debug("site: resolve nav links", "error", err)
	}
	for _, id := range ids {
		href, _, err := s.page.Attr(ctx, id, "href")
		if err != nil {
			continue
		}
		s.nav.links = append(s.nav.links, navLink{id: id, href: href})
	}

	for _, sec := range nc.Sections {
		s.nav.sections = append(s.nav.sections, "#"+sec)
	}
	s.nav.hasFixed = s.page.Exists(ctx, nc.Fixed)
}

// updateNav highlights the active section link and flips the fixed nav's
// scrolled class. Only changes touch the DOM, except on the first call.
func (s *Session) updateNav(ctx context.Context, force bool) {
	layout, err := s.page.Measure(ctx, s.nav.sections)
	if err != nil {
		s.logger.Debug("site: measure sections", "error", err)
		return
	}
	nc := s.cfg.Nav
	first := force || !s.nav.applied
	s.nav.applied = true

	current := ActiveSection(layout, nc.Sections, nc.ActiveLine)
	if first || current != s.nav.active {
		s.mu.Lock()
		s.nav.active = current
		s.mu.Unlock()
		for _, l := range s.nav.links {
			active := current != "" && l.href == "#"+current
			if err := s.page.SetClass(ctx, l.id, "is-active", active); err != nil {
				s.logger.Debug("site: nav class", "id", l.id, "error", err)
			}
			if active {
				err = s.page.SetAttr(ctx, l.id, "aria-current", "true")
			} else {
				err = s.page.RemoveAttr(ctx, l.id, "aria-current")
			}
			if err != nil {
				s.logger.Debug("site: nav aria-current", "id", l.id, "error", err)
			}
		}
		s.emit(event.KindNavActive, nc.Links, current)
	}

	if !s.nav.hasFixed {
		return
	}
	scrolled := layout.ScrollY > nc.ScrolledOffset
	if first || scrolled != s.nav.scrolled {
		s.nav.scrolled = scrolled
		if err := s.page.SetClass(ctx, nc.Fixed, nc.ScrolledClass, scrolled); err != nil {
			s.logger.Debug("site: nav scrolled", "error", err)
			return
		}
		s.emit(event.KindNavScrolled, nc.Fixed, boolString(scrolled))
	}
}

// ActiveSection returns the section currently highlighted.
func (s *Session) ActiveSection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.active
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
