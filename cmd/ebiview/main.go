// Command ebiview drives the Sistema EBI page in Chrome and runs its
// interactivity (reveal on scroll, counters, lazy charts, navigation,
// panels, theme) from Go, printing presentation events as JSON lines.
//
// Usage:
//
//	ebiview -config ebiview.yaml
//	ebiview -url https://ebi.example/ -reduced-motion on
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/ebiview/site"
)

func main() {
	configPath := flag.String("config", "", "path to ebiview.yaml config file")
	pageURL := flag.String("url", "", "page URL (stock configuration, stdout sink)")
	reduced := flag.String("reduced-motion", "", "override reduced motion: auto, on, off, emulate")
	prefsPath := flag.String("prefs", "", "path to the SQLite preference database")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath, *pageURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: ebiview -config <file> | -url <url>")
		os.Exit(2)
	}
	if *reduced != "" {
		cfg.Page.ReducedMotion = *reduced
	}
	if *prefsPath != "" {
		cfg.Prefs.Path = *prefsPath
	}

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("ebiview: fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path, url string) (*site.Config, error) {
	switch {
	case path != "":
		cfg, err := site.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if url != "" {
			cfg.Page.URL = url
		}
		return cfg, nil
	case url != "":
		return site.DefaultConfig(url), nil
	}
	return nil, fmt.Errorf("ebiview: -config or -url is required")
}

func run(ctx context.Context, logger *slog.Logger, cfg *site.Config) error {
	var sinks []site.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, site.NewStdoutSink(nil))
		case "webhook":
			sinks = append(sinks, site.NewWebhookSink(sc.URL, logger))
		default:
			logger.Warn("ebiview: unknown sink type", "type", sc.Type)
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, site.NewStdoutSink(nil))
	}

	c := site.New(cfg, logger, sinks...)
	if err := c.Start(ctx); err != nil {
		c.Stop()
		return fmt.Errorf("start: %w", err)
	}

	<-ctx.Done()
	c.Stop()
	return nil
}
