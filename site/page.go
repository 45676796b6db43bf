package site

import (
	"context"
	"sync"

	"github.com/hazyhaar/ebiview/site/internal/browser"
	"github.com/hazyhaar/ebiview/viewport"
)

// Input is a scroll, resize or click signal forwarded from the page.
type Input = browser.Input

// Page is the DOM surface a Session drives. Selectors that match nothing
// are silent no-ops. *browser.Tab is the production implementation.
type Page interface {
	viewport.Measurer

	URL() string
	// Listen delivers Inputs to fn until ctx is cancelled.
	Listen(ctx context.Context, fn func(Input)) error
	// Resolve returns one stable selector per element matching selector.
	Resolve(ctx context.Context, selector string) ([]string, error)
	Exists(ctx context.Context, selector string) bool
	Attr(ctx context.Context, selector, name string) (string, bool, error)

	SetClass(ctx context.Context, selector, class string, on bool) error
	SetAttr(ctx context.Context, selector, name, value string) error
	RemoveAttr(ctx context.Context, selector, name string) error
	SetText(ctx context.Context, selector, text string) error
	SetHidden(ctx context.Context, selector string, hidden bool) error
	SetRootStyle(ctx context.Context, property, value string) error
	Focus(ctx context.Context, selector string) error
	ScrollTo(ctx context.Context, selector string, smooth bool) error

	PrefersReducedMotion(ctx context.Context) (bool, error)
	LoadScript(ctx context.Context, url string) error
	RenderChart(ctx context.Context, selector string, cfg any) error
}

// Store persists the theme preference.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// memStore keeps preferences for the life of the process.
type memStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemStore() *memStore { return &memStore{m: make(map[string]string)} }

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

var _ Page = (*browser.Tab)(nil)
