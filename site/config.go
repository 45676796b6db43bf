package site

import (
	"github.com/hazyhaar/ebiview/site/internal/config"
)

// Config is the top-level ebiview configuration. Re-exported from internal.
type Config = config.Config

// BrowserConfig controls Chrome.
type BrowserConfig = config.BrowserConfig

// PageConfig describes the page and its interactive regions.
type PageConfig = config.PageConfig

// SinkConfig defines an output backend.
type SinkConfig = config.SinkConfig

// Prefs is the SQLite preference store.
type Prefs = config.Prefs

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// DefaultConfig returns the stock Sistema EBI configuration for url.
func DefaultConfig(url string) *Config {
	return config.Default(url)
}

// OpenPrefs opens the preference database at path.
func OpenPrefs(path string) (*Prefs, error) {
	return config.OpenPrefs(path)
}
