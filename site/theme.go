package site

import (
	"context"

	"github.com/hazyhaar/ebiview/site/event"
)

// initTheme applies the stored theme, or the configured default.
func (s *Session) initTheme(ctx context.Context) {
	s.themeMu.Lock()
	defer s.themeMu.Unlock()

	theme, ok, err := s.store.Get(ctx, s.cfg.Theme.Key)
	if err != nil {
		s.logger.Warn("site: read theme", "error", err)
	}
	if !ok || theme == "" {
		theme = s.cfg.Theme.Default
	}
	s.applyTheme(ctx, theme)
}

// ReloadTheme re-reads the stored theme and applies it if it changed.
// Safe to call from any goroutine.
func (s *Session) ReloadTheme(ctx context.Context) {
	s.themeMu.Lock()
	defer s.themeMu.Unlock()

	theme, ok, err := s.store.Get(ctx, s.cfg.Theme.Key)
	if err != nil || !ok {
		return
	}
	if theme != s.Theme() {
		s.applyTheme(ctx, theme)
	}
}

// Theme returns the theme currently applied.
func (s *Session) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

func (s *Session) toggleTheme(ctx context.Context) {
	s.themeMu.Lock()
	defer s.themeMu.Unlock()

	next := "dark"
	if s.Theme() == "dark" {
		next = "light"
	}
	if err := s.store.Set(ctx, s.cfg.Theme.Key, next); err != nil {
		s.logger.Warn("site: persist theme", "error", err)
	}
	s.applyTheme(ctx, next)
}

func (s *Session) applyTheme(ctx context.Context, theme string) {
	if err := s.page.SetAttr(ctx, "html", "data-theme", theme); err != nil {
		s.logger.Debug("site: apply theme", "error", err)
		return
	}
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	s.emit(event.KindThemeChanged, "html", theme)
}
