package site

import (
	"context"

	"github.com/hazyhaar/ebiview/site/event"
)

// ChartConfig is a Chart.js configuration object.
type ChartConfig struct {
	Type    string         `json:"type"`
	Data    ChartData      `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

// ChartData holds labels and datasets.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
}

// withoutAnimation returns a copy that renders in its final state.
func (c ChartConfig) withoutAnimation() ChartConfig {
	opts := make(map[string]any, len(c.Options)+1)
	for k, v := range c.Options {
		opts[k] = v
	}
	opts["animation"] = false
	c.Options = opts
	return c
}

// FixedChart returns one of the two charts the page ships with.
func FixedChart(name string) (ChartConfig, bool) {
	switch name {
	case "stages":
		return ChartConfig{
			Type: "bar",
			Data: ChartData{
				Labels: []string{"Infantil", "Primaria", "Secundaria", "Bachillerato"},
				Datasets: []Dataset{{
					Label:           "Cursos por etapa",
					Data:            []float64{3, 6, 4, 2},
					BackgroundColor: []string{"#1f6f8b", "#2a9d8f", "#e9c46a", "#e76f51"},
				}},
			},
			Options: map[string]any{
				"responsive": true,
				"plugins":    map[string]any{"legend": map[string]any{"display": false}},
				"scales":     map[string]any{"y": map[string]any{"beginAtZero": true}},
			},
		}, true

	case "competences":
		return ChartConfig{
			Type: "radar",
			Data: ChartData{
				Labels: []string{
					"Lingüística", "Plurilingüe", "STEM", "Digital",
					"Personal y social", "Ciudadana", "Emprendedora", "Cultural",
				},
				Datasets: []Dataset{{
					Label:       "Peso en el currículo",
					Data:        []float64{9, 7, 8, 7, 8, 6, 5, 6},
					BorderColor: "#1f6f8b",
					BorderWidth: 2,
				}},
			},
			Options: map[string]any{
				"responsive": true,
				"scales":     map[string]any{"r": map[string]any{"suggestedMin": 0, "suggestedMax": 10}},
			},
		}, true
	}
	return ChartConfig{}, false
}

// chartEffect renders one canvas once the charting dependency is loaded.
type chartEffect struct {
	s        *Session
	selector string
	chart    ChartConfig
}

// Enter loads in the background: the trigger must not block on the network.
func (c *chartEffect) Enter() {
	c.s.bg.Add(1)
	go func() {
		defer c.s.bg.Done()
		c.s.loader.Do(c.s.ctx, func() { c.render(c.chart) })
	}()
}

// Settle loads synchronously and renders the final state.
func (c *chartEffect) Settle() {
	c.s.loader.Do(c.s.ctx, func() { c.render(c.chart.withoutAnimation()) })
}

func (c *chartEffect) render(cfg ChartConfig) {
	if err := c.s.page.RenderChart(c.s.ctx, c.selector, cfg); err != nil {
		c.s.logger.Warn("site: render chart", "selector", c.selector, "error", err)
		return
	}
	c.s.emit(event.KindChartRendered, c.selector, cfg.Type)
}

func (s *Session) registerCharts(_ context.Context) {
	for _, item := range s.cfg.Charts.Items {
		chart, ok := FixedChart(item.Chart)
		if !ok {
			s.logger.Warn("site: unknown chart", "chart", item.Chart, "selector", item.Selector)
			continue
		}
		s.trigger.Register(item.Selector, *s.cfg.Charts.Options, &chartEffect{
			s:        s,
			selector: item.Selector,
			chart:    chart,
		})
	}
}
