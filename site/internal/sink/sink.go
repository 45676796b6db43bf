// Package sink defines output backends for ebiview events.
package sink

import (
	"context"

	"github.com/hazyhaar/ebiview/site/event"
)

// Sink delivers presentation events to a backend (stdout, webhook,
// in-process callback).
type Sink interface {
	Send(ctx context.Context, e event.Event) error
	Close() error
}
