package site

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/ebiview/site/internal/browser"
	"github.com/hazyhaar/ebiview/site/internal/config"
	"github.com/hazyhaar/ebiview/site/internal/sink"
)

// Controller is the top-level orchestrator: it owns Chrome, the page tab,
// the preference store and the sinks, and runs one Session.
type Controller struct {
	cfg    *config.Config
	mgr    *browser.Manager
	sinkR  *sink.Router
	logger *slog.Logger

	mu      sync.Mutex
	tab     *browser.Tab
	prefs   *config.Prefs
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
	watched chan struct{}
}

// New creates a Controller from configuration.
func New(cfg *config.Config, logger *slog.Logger, sinks ...Sink) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		Stealth:          browser.ParseStealth(cfg.Browser.Stealth),
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Logger:           logger,
	})

	return &Controller{
		cfg:    cfg,
		mgr:    mgr,
		sinkR:  sink.NewRouter(logger, sinks...),
		logger: logger,
	}
}

// Start launches the browser, opens the page, attaches a Session and runs
// it in the background until Stop or ctx cancellation.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfg.Page.URL == "" {
		return fmt.Errorf("ebiview: page url is required")
	}

	if _, err := c.mgr.Start(ctx); err != nil {
		return fmt.Errorf("ebiview: start browser: %w", err)
	}

	var store Store
	if c.cfg.Prefs.Path != "" {
		prefs, err := config.OpenPrefs(c.cfg.Prefs.Path)
		if err != nil {
			return fmt.Errorf("ebiview: open prefs: %w", err)
		}
		c.prefs = prefs
		store = prefs
	}

	pc := c.cfg.Page
	panels := make([]string, 0, len(pc.Panels))
	for _, p := range pc.Panels {
		panels = append(panels, p.Selector)
	}
	tab, err := browser.OpenTab(ctx, c.mgr, pc.URL, browser.TabOptions{
		Script: browser.ScriptConfig{
			Anchors: pc.Anchors,
			Panels:  panels,
			Theme:   pc.Theme.Toggle,
		},
		EmulateReducedMotion: pc.ReducedMotion == "emulate",
	})
	if err != nil {
		return fmt.Errorf("ebiview: open tab: %w", err)
	}
	c.tab = tab

	runCtx, cancel := context.WithCancel(ctx)
	session, err := Attach(runCtx, tab, SessionConfig{
		Page:   pc,
		Store:  store,
		Sink:   c.sinkR,
		Logger: c.logger,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("ebiview: attach: %w", err)
	}
	c.session = session
	c.cancel = cancel
	c.done = make(chan struct{})

	go func() {
		defer close(c.done)
		session.Run(runCtx)
	}()

	if c.prefs != nil {
		c.watched = make(chan struct{})
		go func() {
			defer close(c.watched)
			c.prefs.Watch(runCtx, c.cfg.Prefs.PollInterval, c.logger, func() {
				session.ReloadTheme(runCtx)
			})
		}()
	}

	c.logger.Info("ebiview: running", "url", pc.URL)
	return nil
}

// Session returns the running session, nil before Start.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Stop ends the session and shuts down the tab, sinks, store and browser.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		<-c.done
		if c.watched != nil {
			<-c.watched
			c.watched = nil
		}
		c.cancel = nil
	}
	if c.tab != nil {
		c.tab.Close()
		c.tab = nil
	}
	if c.prefs != nil {
		c.prefs.Close()
		c.prefs = nil
	}
	c.sinkR.Close()
	c.mgr.Close()
	c.logger.Info("ebiview: stopped")
}
