// Package site runs the Sistema EBI page interactivity from Go. A Session
// wires a Page to a viewport.Trigger (reveal, counters, charts) and handles
// the remaining one-shot bindings: navigation highlighting, the fixed nav,
// expandable panels, anchor scrolling and the theme toggle.
//
// Every presentation change is emitted as an event.Event to the sinks.
package site

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/ebiview/site/event"
	"github.com/hazyhaar/ebiview/site/internal/config"
	"github.com/hazyhaar/ebiview/viewport"
)

// SessionConfig configures Attach.
type SessionConfig struct {
	Page config.PageConfig
	// Store persists the theme. nil keeps it in memory.
	Store Store
	// Sink receives presentation events. nil discards them.
	Sink Sink
	// Frames overrides the frame scheduler. nil runs a viewport.Frames
	// ticking at Page.FrameInterval inside Run.
	Frames viewport.Scheduler
	Logger *slog.Logger
}

// Session is the live interactivity of one page. Regions are registered
// once in Attach and live as long as the page.
type Session struct {
	page   Page
	cfg    config.PageConfig
	store  Store
	sink   Sink
	logger *slog.Logger

	// ctx bounds effects started by the trigger.
	ctx context.Context

	trigger   *viewport.Trigger
	poller    *viewport.Poller
	frames    viewport.Scheduler
	ownFrames *viewport.Frames
	loader    *viewport.Loader

	inputs chan Input
	bg     sync.WaitGroup

	nav navState

	// themeMu serialises read-modify-write of the theme between the Run
	// goroutine (clicks) and the preference watcher (ReloadTheme).
	themeMu sync.Mutex

	// mu guards theme and nav.active for readers outside Run.
	mu    sync.Mutex
	theme string
}

// Attach samples reduced motion, registers every region and applies the
// initial navigation and theme state. Missing elements are skipped; the
// only error is a failure to subscribe to page inputs.
func Attach(ctx context.Context, page Page, cfg SessionConfig) (*Session, error) {
	cfg.Page.ApplyDefaults()
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Store == nil {
		cfg.Store = newMemStore()
	}
	if cfg.Sink == nil {
		cfg.Sink = NewCallbackSink(nil)
	}

	s := &Session{
		page:   page,
		cfg:    cfg.Page,
		store:  cfg.Store,
		sink:   cfg.Sink,
		logger: cfg.Logger,
		ctx:    ctx,
		frames: cfg.Frames,
		inputs: make(chan Input, 256),
	}
	if s.frames == nil {
		s.ownFrames = viewport.NewFrames(cfg.Page.FrameInterval)
		s.frames = s.ownFrames
	}

	reduced := s.sampleReducedMotion(ctx)
	doc := viewport.DocumentFunc(func(id string) bool { return page.Exists(ctx, id) })
	s.trigger = viewport.New(doc, viewport.WithReducedMotion(reduced), viewport.WithLogger(s.logger))
	s.poller = viewport.NewPoller(page, s.trigger, s.logger)
	s.loader = viewport.NewLoader(func(ctx context.Context) error {
		return page.LoadScript(ctx, s.cfg.Charts.ScriptURL)
	}, s.logger)

	if err := page.Listen(ctx, s.push); err != nil {
		return nil, err
	}

	if err := page.SetRootStyle(ctx, "scroll-padding-top", "1rem"); err != nil {
		s.logger.Debug("site: scroll padding", "error", err)
	}
	s.initTheme(ctx)

	s.registerReveal(ctx)
	s.registerCounters(ctx)
	s.registerCharts(ctx)

	s.initNav(ctx)
	s.check(ctx)

	s.logger.Info("site: attached",
		"url", page.URL(), "reduced_motion", reduced, "pending", len(s.trigger.Watched()))
	return s, nil
}

// Run processes page inputs, polls for layout changes and drives frames
// until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if s.ownFrames != nil {
		go s.ownFrames.Run(ctx)
	}

	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case in := <-s.inputs:
			s.handle(ctx, in)

		case <-poll.C:
			if len(s.trigger.Watched()) > 0 {
				if _, err := s.poller.Check(ctx); err != nil {
					s.logger.Debug("site: poll failed", "error", err)
				}
			}
		}
	}
}

// Wait blocks until background chart loads have finished.
func (s *Session) Wait() { s.bg.Wait() }

// Trigger exposes the region state.
func (s *Session) Trigger() *viewport.Trigger { return s.trigger }

// ReducedMotion reports the mode sampled at attach time.
func (s *Session) ReducedMotion() bool { return s.trigger.ReducedMotion() }

// push is the Listen callback. It runs on the page's event goroutine.
func (s *Session) push(in Input) {
	select {
	case s.inputs <- in:
	case <-s.ctx.Done():
	}
}

func (s *Session) handle(ctx context.Context, in Input) {
	switch in.Op {
	case "scroll", "resize":
		s.check(ctx)
	case "click":
		switch in.Kind {
		case "anchor":
			s.followAnchor(ctx, in)
		case "panel":
			s.togglePanel(ctx, in)
		case "theme":
			s.toggleTheme(ctx)
		}
	default:
		s.logger.Debug("site: unknown input", "op", in.Op)
	}
}

// check runs one visibility pass and refreshes the navigation.
func (s *Session) check(ctx context.Context) {
	if len(s.trigger.Watched()) > 0 {
		if _, err := s.poller.Check(ctx); err != nil {
			s.logger.Debug("site: visibility check failed", "error", err)
		}
	}
	s.updateNav(ctx, false)
}

func (s *Session) sampleReducedMotion(ctx context.Context) bool {
	switch s.cfg.ReducedMotion {
	case "on":
		return true
	case "off":
		return false
	}
	on, err := s.page.PrefersReducedMotion(ctx)
	if err != nil {
		s.logger.Warn("site: reduced motion query failed, assuming off", "error", err)
		return false
	}
	return on
}

func (s *Session) emit(kind event.Kind, target, value string) {
	e := event.New(s.page.URL(), kind, target, value)
	if err := s.sink.Send(s.ctx, e); err != nil {
		s.logger.Warn("site: emit failed", "kind", kind, "error", err)
	}
}
