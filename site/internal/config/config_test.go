package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hazyhaar/ebiview/viewport"
)

func TestLoadFile_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ebiview.yaml")
	yml := `
page:
  url: https://ebi.example/
  reduced_motion: "on"
  counters:
    duration: 400ms
  charts:
    items:
      - selector: "#only"
        chart: stages
sinks:
  - type: webhook
    url: http://hooks.example/ebi
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Page.URL != "https://ebi.example/" {
		t.Errorf("URL: got %q", cfg.Page.URL)
	}
	if cfg.Page.ReducedMotion != "on" {
		t.Errorf("ReducedMotion: got %q", cfg.Page.ReducedMotion)
	}
	if cfg.Page.Counters.Duration != 400*time.Millisecond {
		t.Errorf("counter duration: got %v", cfg.Page.Counters.Duration)
	}
	if len(cfg.Page.Charts.Items) != 1 || cfg.Page.Charts.Items[0].Selector != "#only" {
		t.Errorf("chart items: got %+v", cfg.Page.Charts.Items)
	}
	if len(cfg.Page.Reveal.Selectors) != 6 {
		t.Errorf("reveal selectors: got %d, want 6", len(cfg.Page.Reveal.Selectors))
	}
	want := viewport.Options{Threshold: 0.1, Margin: viewport.Margin{Bottom: -40}}
	if cfg.Page.Reveal.Options == nil || *cfg.Page.Reveal.Options != want {
		t.Errorf("reveal options: got %+v, want %+v", cfg.Page.Reveal.Options, want)
	}
	if cfg.Page.Nav.ActiveLine != 120 || cfg.Page.Nav.ScrolledOffset != 60 {
		t.Errorf("nav: got %+v", cfg.Page.Nav)
	}
	if cfg.Browser.Stealth != "headless" {
		t.Errorf("stealth: got %q", cfg.Browser.Stealth)
	}
	if len(cfg.Sinks) != 1 || cfg.Sinks[0].Type != "webhook" {
		t.Errorf("sinks: got %+v", cfg.Sinks)
	}
}

func TestLoadFile_ExplicitZeroOptionsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ebiview.yaml")
	yml := `
page:
  url: https://ebi.example/
  counters:
    options:
      threshold: 0
  charts:
    options:
      threshold: 0.3
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := cfg.Page.Counters.Options; got == nil || *got != (viewport.Options{}) {
		t.Errorf("counter options: got %+v, want zero", got)
	}
	want := viewport.Options{Threshold: 0.3}
	if got := cfg.Page.Charts.Options; got == nil || *got != want {
		t.Errorf("chart options: got %+v, want %+v", got, want)
	}
	if got := cfg.Page.Reveal.Options; got == nil || got.Threshold != 0.1 {
		t.Errorf("reveal options not defaulted: %+v", got)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("page: [unclosed"), 0o644)
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("https://ebi.example/")
	if !cfg.Page.Anchors {
		t.Error("anchors should be on by default")
	}
	if len(cfg.Page.Panels) != 2 {
		t.Fatalf("panels: got %d, want 2", len(cfg.Page.Panels))
	}
	if cfg.Page.Panels[1].CollapsedText != "Ver más" {
		t.Errorf("competence label: got %q", cfg.Page.Panels[1].CollapsedText)
	}
	if cfg.Page.Theme.Key != "theme" || cfg.Page.Theme.Default != "light" {
		t.Errorf("theme: got %+v", cfg.Page.Theme)
	}
}

func TestPrefs_GetSet(t *testing.T) {
	p, err := OpenPrefs(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	ctx := context.Background()

	if _, ok, err := p.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}

	if err := p.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := p.Set(ctx, "theme", "light"); err != nil {
		t.Fatal(err)
	}

	v, ok, err := p.Get(ctx, "theme")
	if err != nil || !ok || v != "light" {
		t.Fatalf("Get: got %q ok=%v err=%v, want light", v, ok, err)
	}
}

func TestPrefs_WatchSeesOtherWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "ebiview.db")

	a, err := OpenPrefs(path)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	b, err := OpenPrefs(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan struct{}, 1)
	go a.Watch(ctx, 10*time.Millisecond, nil, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	// Let the watcher seed its version first.
	time.Sleep(50 * time.Millisecond)
	if err := b.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("watch did not report the external write")
	}

	v, _, err := a.Get(context.Background(), "theme")
	if err != nil || v != "dark" {
		t.Fatalf("Get after change: got %q err=%v", v, err)
	}
}

func TestPrefs_WatchMemoryReturns(t *testing.T) {
	p, err := OpenPrefs(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	done := make(chan struct{})
	go func() {
		p.Watch(context.Background(), time.Millisecond, nil, func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch on an in-memory store should return immediately")
	}
}
