// Package config handles ebiview configuration from YAML files and the
// SQLite preference store.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/ebiview/viewport"
)

// Config is the top-level ebiview configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Page    PageConfig    `yaml:"page"`
	Prefs   PrefsConfig   `yaml:"prefs"`
	Sinks   []SinkConfig  `yaml:"sinks"`
}

// BrowserConfig controls Chrome.
type BrowserConfig struct {
	Remote           string   `yaml:"remote"`
	Stealth          string   `yaml:"stealth"` // headless | headful
	ResourceBlocking []string `yaml:"resource_blocking"`
	XvfbDisplay      string   `yaml:"xvfb_display"`
}

// PageConfig describes the page and its interactive regions.
type PageConfig struct {
	URL string `yaml:"url"`
	// ReducedMotion: auto (ask the page) | on | off | emulate (force the
	// media feature in Chrome, then ask the page).
	ReducedMotion string        `yaml:"reduced_motion"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	Reveal        RevealConfig  `yaml:"reveal"`
	Counters      CounterConfig `yaml:"counters"`
	Charts        ChartsConfig  `yaml:"charts"`
	Nav           NavConfig     `yaml:"nav"`
	Anchors       bool          `yaml:"anchors"`
	Panels        []PanelConfig `yaml:"panels"`
	Theme         ThemeConfig   `yaml:"theme"`
}

// RevealConfig lists the sections that fade in when scrolled to.
type RevealConfig struct {
	Selectors []string          `yaml:"selectors"`
	Options   *viewport.Options `yaml:"options"`
	Class     string            `yaml:"class"`         // added at registration
	Visible   string            `yaml:"visible_class"` // added on enter
}

// CounterConfig selects animated counters.
type CounterConfig struct {
	Selector  string            `yaml:"selector"`
	Attribute string            `yaml:"attribute"` // holds the integer target
	Duration  time.Duration     `yaml:"duration"`
	Options   *viewport.Options `yaml:"options"`
}

// ChartsConfig lists the lazily rendered charts.
type ChartsConfig struct {
	ScriptURL string            `yaml:"script_url"`
	Options   *viewport.Options `yaml:"options"`
	Items     []ChartItem       `yaml:"items"`
}

// ChartItem binds a canvas to one of the fixed chart configurations.
type ChartItem struct {
	Selector string `yaml:"selector"`
	Chart    string `yaml:"chart"` // stages | competences
}

// NavConfig drives active-section highlighting and the fixed nav.
type NavConfig struct {
	Links          string   `yaml:"links"`
	Sections       []string `yaml:"sections"`
	ActiveLine     float64  `yaml:"active_line"`
	Fixed          string   `yaml:"fixed"`
	ScrolledClass  string   `yaml:"scrolled_class"`
	ScrolledOffset float64  `yaml:"scrolled_offset"`
}

// PanelConfig describes a family of expand/collapse buttons.
type PanelConfig struct {
	Selector      string `yaml:"selector"`
	CollapsedText string `yaml:"collapsed_text"`
	ExpandedText  string `yaml:"expanded_text"`
}

// ThemeConfig drives the theme toggle.
type ThemeConfig struct {
	Toggle  string `yaml:"toggle"`
	Key     string `yaml:"key"`
	Default string `yaml:"default"`
}

// PrefsConfig locates the preference database. Empty path keeps
// preferences in memory.
type PrefsConfig struct {
	Path         string        `yaml:"path"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// SinkConfig defines an output backend.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook
	URL  string `yaml:"url"`  // for webhook
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration for the stock Sistema EBI page.
func Default(url string) *Config {
	cfg := &Config{Page: PageConfig{URL: url, Anchors: true}}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with the stock page values.
func (c *Config) ApplyDefaults() {
	if c.Browser.Stealth == "" {
		c.Browser.Stealth = "headless"
	}
	if c.Browser.XvfbDisplay == "" {
		c.Browser.XvfbDisplay = ":99"
	}

	c.Page.ApplyDefaults()

	if c.Prefs.PollInterval <= 0 {
		c.Prefs.PollInterval = time.Second
	}
}

// ApplyDefaults fills unset page fields with the stock page values. Nil
// visibility options take the stock value; an explicit zero is kept.
func (p *PageConfig) ApplyDefaults() {
	if p.ReducedMotion == "" {
		p.ReducedMotion = "auto"
	}
	if p.FrameInterval <= 0 {
		p.FrameInterval = viewport.DefaultFrameInterval
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 250 * time.Millisecond
	}

	if len(p.Reveal.Selectors) == 0 {
		p.Reveal.Selectors = []string{
			".section-criteria", ".section-principles", ".section-stages",
			".section-competences", ".section-cta", ".nav-sections",
		}
	}
	if p.Reveal.Options == nil {
		p.Reveal.Options = &viewport.Options{Threshold: 0.1, Margin: viewport.Margin{Bottom: -40}}
	}
	if p.Reveal.Class == "" {
		p.Reveal.Class = "reveal"
	}
	if p.Reveal.Visible == "" {
		p.Reveal.Visible = "is-visible"
	}

	if p.Counters.Selector == "" {
		p.Counters.Selector = "[data-count]"
	}
	if p.Counters.Attribute == "" {
		p.Counters.Attribute = "data-count"
	}
	if p.Counters.Duration <= 0 {
		p.Counters.Duration = viewport.CounterDuration
	}
	if p.Counters.Options == nil {
		p.Counters.Options = &viewport.Options{Threshold: 0.5}
	}

	if p.Charts.ScriptURL == "" {
		p.Charts.ScriptURL = "https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"
	}
	if p.Charts.Options == nil {
		p.Charts.Options = &viewport.Options{Threshold: 0.2, Margin: viewport.Margin{Bottom: 100}}
	}
	if len(p.Charts.Items) == 0 {
		p.Charts.Items = []ChartItem{
			{Selector: "#chart-etapas", Chart: "stages"},
			{Selector: "#chart-competencias", Chart: "competences"},
		}
	}

	if p.Nav.Links == "" {
		p.Nav.Links = ".nav-link"
	}
	if len(p.Nav.Sections) == 0 {
		p.Nav.Sections = []string{"criterios", "principios", "etapas", "competencias", "objetivo"}
	}
	if p.Nav.ActiveLine <= 0 {
		p.Nav.ActiveLine = 120
	}
	if p.Nav.Fixed == "" {
		p.Nav.Fixed = ".nav-fixed"
	}
	if p.Nav.ScrolledClass == "" {
		p.Nav.ScrolledClass = "nav-fixed--scrolled"
	}
	if p.Nav.ScrolledOffset <= 0 {
		p.Nav.ScrolledOffset = 60
	}

	if len(p.Panels) == 0 {
		p.Panels = []PanelConfig{
			{Selector: ".stage-card-btn", CollapsedText: "Ver detalle", ExpandedText: "Ver menos"},
			{Selector: ".competence-btn", CollapsedText: "Ver más", ExpandedText: "Ver menos"},
		}
	}

	if p.Theme.Toggle == "" {
		p.Theme.Toggle = ".theme-toggle"
	}
	if p.Theme.Key == "" {
		p.Theme.Key = "theme"
	}
	if p.Theme.Default == "" {
		p.Theme.Default = "light"
	}
}
