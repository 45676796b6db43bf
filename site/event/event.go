// Package event defines the presentation-state changes emitted by ebiview.
// Consumers (dashboards, test harnesses, webhooks) import this package to
// decode what happened on the page.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of presentation change.
type Kind string

const (
	KindRevealed      Kind = "revealed"       // region received is-visible
	KindCounterDone   Kind = "counter_done"   // counter reached its target
	KindChartRendered Kind = "chart_rendered" // chart constructed on its canvas
	KindNavActive     Kind = "nav_active"     // active nav section changed
	KindNavScrolled   Kind = "nav_scrolled"   // fixed nav scrolled state flipped
	KindPanelToggled  Kind = "panel_toggled"  // stage/competence panel expanded or collapsed
	KindAnchorFocused Kind = "anchor_focused" // in-page anchor target focused and scrolled to
	KindThemeChanged  Kind = "theme_changed"  // data-theme applied
)

// Event is one presentation change on a page.
type Event struct {
	ID        string `json:"id"` // UUIDv7
	PageURL   string `json:"page_url"`
	Kind      Kind   `json:"kind"`
	Target    string `json:"target,omitempty"` // selector of the element concerned
	Value     string `json:"value,omitempty"`  // kind-specific: counter value, theme, section id...
	Timestamp int64  `json:"timestamp"`        // epoch milliseconds
}

// New stamps an Event with a fresh ID and the current time.
func New(pageURL string, kind Kind, target, value string) Event {
	return Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		PageURL:   pageURL,
		Kind:      kind,
		Target:    target,
		Value:     value,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Marshal serialises an Event to JSON.
func Marshal(e *Event) ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal deserialises an Event from JSON.
func Unmarshal(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
